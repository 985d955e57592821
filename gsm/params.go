package gsm

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/warthog618/sms/encoding/gsm7"
)

// Limits enforced before anything is sent.
const (
	MaxSMSSeptets  = 160
	MaxConnPayload = 1460
	MaxFTPDownload = 1 << 20
	MaxHTTPBody    = 1 << 20
)

var (
	numberRe = regexp.MustCompile(`^\+?[0-9*#]{1,20}$`)
	pinRe    = regexp.MustCompile(`^[0-9]{4,8}$`)
	pukRe    = regexp.MustCompile(`^[0-9]{8}$`)
)

// paramsAs accepts params of type T or *T.
func paramsAs[T any](params any) (T, error) {
	switch v := params.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, invalid("want %T, got %T", zero, params)
}

func checkNumber(n string) error {
	if !numberRe.MatchString(n) {
		return invalid("phone number %q", n)
	}
	return nil
}

func checkPIN(p string) error {
	if !pinRe.MatchString(p) {
		return invalid("PIN must be 4 to 8 digits")
	}
	return nil
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= MaxConns {
		return invalid("slot %d out of range 0..%d", slot, MaxConns-1)
	}
	return nil
}

// checkText rejects strings that would break out of a quoted AT argument.
func checkText(name, s string) error {
	if strings.ContainsAny(s, "\"\r\n\x1a") {
		return invalid("%s contains quote or control characters", name)
	}
	return nil
}

// FuncParams selects the phone functionality level.
type FuncParams struct {
	Func Func
	// Reset restarts the module before changing level.
	Reset bool
}

// PINParams carries a SIM PIN.
type PINParams struct {
	PIN string
}

// PUKParams unblocks the SIM with PUK and sets a new PIN.
type PUKParams struct {
	PUK string
	PIN string
}

// SMSParams is a text message to send.
type SMSParams struct {
	Number string
	Text   string
}

func (p SMSParams) validate() error {
	if err := checkNumber(p.Number); err != nil {
		return err
	}
	if p.Text == "" {
		return invalid("empty message")
	}
	septets, err := gsm7.Encode([]byte(p.Text))
	if err != nil {
		return invalid("message is not GSM 7-bit encodable: %v", err)
	}
	if len(septets) > MaxSMSSeptets {
		return invalid("message is %d septets, limit is %d", len(septets), MaxSMSSeptets)
	}
	return nil
}

// IndexParams addresses a message, phonebook entry or SIM position.
type IndexParams struct {
	Index int
}

// MassDelete selects which stored messages AT+CMGDA removes.
type MassDelete uint8

const (
	DeleteRead MassDelete = iota
	DeleteUnread
	DeleteSent
	DeleteUnsent
	DeleteReceived
	DeleteAll
)

var massDeleteNames = [...]string{
	DeleteRead:     "DEL READ",
	DeleteUnread:   "DEL UNREAD",
	DeleteSent:     "DEL SENT",
	DeleteUnsent:   "DEL UNSENT",
	DeleteReceived: "DEL INBOX",
	DeleteAll:      "DEL ALL",
}

// MassDeleteParams is the argument of SMSMassDelete.
type MassDeleteParams struct {
	Kind MassDelete
}

// ListFilter selects messages for AT+CMGL.
type ListFilter uint8

const (
	ListAll ListFilter = iota
	ListUnread
	ListRead
	ListUnsent
	ListSent
)

var listFilterNames = [...]string{
	ListAll:    "ALL",
	ListUnread: "REC UNREAD",
	ListRead:   "REC READ",
	ListUnsent: "STO UNSENT",
	ListSent:   "STO SENT",
}

// ListParams is the argument of SMSList.
type ListParams struct {
	Filter ListFilter
}

// DialParams is the number to call.
type DialParams struct {
	Number string
}

// PhonebookParams is the argument of PBAdd, PBEdit and PBDelete. Index is
// ignored by PBAdd.
type PhonebookParams struct {
	Index  int
	Number string
	Name   string
}

// RangeParams selects phonebook entries From..To inclusive.
type RangeParams struct {
	From, To int
}

// SearchParams is the argument of PBSearch.
type SearchParams struct {
	Name string
}

// AttachParams configures the GPRS bearer.
type AttachParams struct {
	APN      string
	User     string
	Password string
}

func (p AttachParams) validate() error {
	if p.APN == "" {
		return invalid("APN is required")
	}
	for name, v := range map[string]string{"APN": p.APN, "user": p.User, "password": p.Password} {
		if err := checkText(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Protocol is the transport of a connection slot.
type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// ConnParams opens a connection in Slot.
type ConnParams struct {
	Slot     int
	Protocol Protocol
	Host     string
	Port     int
}

func (p ConnParams) validate() error {
	if err := checkSlot(p.Slot); err != nil {
		return err
	}
	if p.Protocol != TCP && p.Protocol != UDP {
		return invalid("protocol %q", p.Protocol)
	}
	if p.Host == "" {
		return invalid("host is required")
	}
	if err := checkText("host", p.Host); err != nil {
		return err
	}
	if p.Port < 1 || p.Port > 65535 {
		return invalid("port %d", p.Port)
	}
	return nil
}

// SlotParams addresses a connection slot.
type SlotParams struct {
	Slot int
}

// ConnSendParams writes Data to an open slot.
type ConnSendParams struct {
	Slot int
	Data []byte
}

// ConnReadParams reads at most Max bytes from a slot.
type ConnReadParams struct {
	Slot int
	Max  int
}

// HTTPMethod is the action of AT+HTTPACTION.
type HTTPMethod uint8

const (
	HTTPGet  HTTPMethod = 0
	HTTPPost HTTPMethod = 1
	HTTPHead HTTPMethod = 2
)

// HTTPParams is one HTTP request.
type HTTPParams struct {
	Method      HTTPMethod
	URL         string
	ContentType string
	Body        []byte
}

func (p HTTPParams) validate() error {
	u, err := url.Parse(p.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("URL %q", p.URL)
	}
	if err := checkText("URL", p.URL); err != nil {
		return err
	}
	if err := checkText("content type", p.ContentType); err != nil {
		return err
	}
	if p.Method > HTTPHead {
		return invalid("HTTP method %d", p.Method)
	}
	if len(p.Body) > 0 && p.Method != HTTPPost {
		return invalid("body requires POST")
	}
	return nil
}

// HTTPResponse is the reply of HTTPExecute. Status carries the HTTP status
// or the modem's 6xx network error code.
type HTTPResponse struct {
	Status int
	Body   []byte
}

// FTPParams addresses a file on an FTP server.
type FTPParams struct {
	Server   string
	Port     int
	User     string
	Password string
	Path     string
	Name     string
	Passive  bool
	// Data is the content to upload.
	Data []byte
}

func (p FTPParams) validate() error {
	if p.Server == "" {
		return invalid("FTP server is required")
	}
	if p.Name == "" {
		return invalid("FTP file name is required")
	}
	if p.Port < 0 || p.Port > 65535 {
		return invalid("port %d", p.Port)
	}
	for name, v := range map[string]string{
		"server": p.Server, "user": p.User, "password": p.Password, "path": p.Path, "name": p.Name,
	} {
		if err := checkText(name, v); err != nil {
			return err
		}
	}
	return nil
}

// OperatorMode is the <mode> of AT+COPS.
type OperatorMode uint8

const (
	OperatorAuto       OperatorMode = 0
	OperatorManual     OperatorMode = 1
	OperatorDeregister OperatorMode = 2
	OperatorFormatOnly OperatorMode = 3
	OperatorFallback   OperatorMode = 4
)

// OperatorFormat is the <format> of AT+COPS.
type OperatorFormat uint8

const (
	FormatLong    OperatorFormat = 0
	FormatShort   OperatorFormat = 1
	FormatNumeric OperatorFormat = 2
)

// OperatorParams is the argument of OperatorSet. Name is required for
// manual modes.
type OperatorParams struct {
	Mode   OperatorMode
	Format OperatorFormat
	Name   string
}

func (p OperatorParams) validate() error {
	if p.Mode > OperatorFallback {
		return invalid("operator mode %d", p.Mode)
	}
	if p.Format > FormatNumeric {
		return invalid("operator format %d", p.Format)
	}
	if (p.Mode == OperatorManual || p.Mode == OperatorFallback) && p.Name == "" {
		return invalid("operator name is required in mode %d", p.Mode)
	}
	return checkText("operator", p.Name)
}

// OperatorStatus is the availability of an operator in a scan.
type OperatorStatus uint8

const (
	OperatorUnknown   OperatorStatus = 0
	OperatorAvailable OperatorStatus = 1
	OperatorCurrent   OperatorStatus = 2
	OperatorForbidden OperatorStatus = 3
)

// Operator is one network operator.
type Operator struct {
	Status  OperatorStatus
	Mode    OperatorMode
	Long    string
	Short   string
	Numeric string
}

// Message is a stored text message.
type Message struct {
	Index  int
	Status string
	Number string
	Time   time.Time
	Text   string
}

// PhonebookEntry is one SIM phonebook record.
type PhonebookEntry struct {
	Index  int
	Number string
	Type   int
	Name   string
}

// Signal is the reply of AT+CSQ.
type Signal struct {
	// RSSI is 0..31, or 99 when unknown.
	RSSI int
	// BER is 0..7, or 99 when unknown.
	BER int
}

// DBm converts RSSI to dBm. ok is false when the modem does not know.
func (s Signal) DBm() (dbm int, ok bool) {
	if s.RSSI < 0 || s.RSSI > 31 {
		return 0, false
	}
	return -113 + 2*s.RSSI, true
}

func (s Signal) String() string {
	if d, ok := s.DBm(); ok {
		return fmt.Sprintf("%d dBm", d)
	}
	return "unknown"
}

// Battery is the reply of AT+CBC.
type Battery struct {
	Charging   bool
	Percent    int
	MilliVolts int
}
