package gsm

import (
	"fmt"
	"slices"
	"time"
)

// CommandID identifies an operation: category in the high byte, ordinal in
// the low byte.
type CommandID uint16

// Category is the high byte of a CommandID.
type Category uint8

const (
	CategoryGeneral Category = iota
	CategoryPIN
	CategorySMS
	CategoryCall
	CategoryInfo
	CategoryPhonebook
	CategoryDateTime
	CategoryGPRS
	CategoryOperator
)

var categoryNames = [...]string{
	CategoryGeneral:   "general",
	CategoryPIN:       "pin",
	CategorySMS:       "sms",
	CategoryCall:      "call",
	CategoryInfo:      "info",
	CategoryPhonebook: "phonebook",
	CategoryDateTime:  "datetime",
	CategoryGPRS:      "gprs",
	CategoryOperator:  "operator",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%#02x)", uint8(c))
}

// CmdIdle marks a free channel. It is never a valid operation.
const CmdIdle CommandID = 0x0000

const (
	CmdSMSNotify       CommandID = 0x0001
	CmdErrorNumeric    CommandID = 0x0002
	CmdCallCLCC        CommandID = 0x0003
	CmdFactorySettings CommandID = 0x0004
	CmdAT              CommandID = 0x0005
	CmdEchoOff         CommandID = 0x0006
	CmdEchoOn          CommandID = 0x0007
	CmdFuncSet         CommandID = 0x0009
	CmdFuncGet         CommandID = 0x000A

	CmdPIN       CommandID = 0x0101
	CmdPUK       CommandID = 0x0102
	CmdPINRemove CommandID = 0x0103
	CmdPINAdd    CommandID = 0x0104
	CmdPINStatus CommandID = 0x0105

	CmdSMSSend       CommandID = 0x0201
	CmdSMSRead       CommandID = 0x0202
	CmdSMSDelete     CommandID = 0x0203
	CmdSMSMassDelete CommandID = 0x0204
	CmdSMSList       CommandID = 0x0205
	CmdSMSTextMode   CommandID = 0x0210

	CmdCallVoice       CommandID = 0x0301
	CmdCallData        CommandID = 0x0302
	CmdCallAnswer      CommandID = 0x0303
	CmdCallHangup      CommandID = 0x0304
	CmdCallVoiceSIMPos CommandID = 0x0305

	CmdInfoModel        CommandID = 0x0401
	CmdInfoManufacturer CommandID = 0x0402
	CmdInfoRevision     CommandID = 0x0403
	CmdInfoNumber       CommandID = 0x0404
	CmdInfoSerial       CommandID = 0x0405
	CmdInfoBattery      CommandID = 0x0407
	CmdInfoSignal       CommandID = 0x0408

	CmdPBAdd    CommandID = 0x0501
	CmdPBEdit   CommandID = 0x0502
	CmdPBDelete CommandID = 0x0503
	CmdPBGet    CommandID = 0x0504
	CmdPBList   CommandID = 0x0505
	CmdPBSearch CommandID = 0x0506

	CmdDateTimeGet CommandID = 0x0601

	CmdGPRSAttach    CommandID = 0x0702
	CmdGPRSDetach    CommandID = 0x0703
	CmdHTTPExecute   CommandID = 0x0706
	CmdFTPDownload   CommandID = 0x070C
	CmdFTPUpload     CommandID = 0x070F
	CmdConnStart     CommandID = 0x0729
	CmdConnSend      CommandID = 0x072A
	CmdConnClose     CommandID = 0x072B
	CmdConnRead      CommandID = 0x072C
	CmdNetworkStatus CommandID = 0x0733
	CmdOperatorScan  CommandID = 0x0820
	CmdOperatorRead  CommandID = 0x0821
	CmdOperatorSet   CommandID = 0x0822
)

// Category returns the command family of id.
func (id CommandID) Category() Category { return Category(id >> 8) }

// Ordinal returns the position of id within its category.
func (id CommandID) Ordinal() uint8 { return uint8(id) }

func (id CommandID) String() string {
	if id == CmdIdle {
		return "IDLE"
	}
	if e, ok := registry[id]; ok {
		return e.name
	}
	return fmt.Sprintf("CMD(%#04x)", uint16(id))
}

// entry describes one operation of the registry.
type entry struct {
	name string
	// timeout overrides the category default when non-zero.
	timeout time.Duration
	// build validates params and returns the routine for one invocation.
	build func(params any) (*routine, error)
}

var categoryTimeouts = map[Category]time.Duration{
	CategoryGeneral:   5 * time.Second,
	CategoryPIN:       10 * time.Second,
	CategorySMS:       60 * time.Second,
	CategoryCall:      30 * time.Second,
	CategoryInfo:      5 * time.Second,
	CategoryPhonebook: 10 * time.Second,
	CategoryDateTime:  5 * time.Second,
	CategoryGPRS:      60 * time.Second,
	CategoryOperator:  30 * time.Second,
}

var registry map[CommandID]entry

func init() {
	registry = map[CommandID]entry{
		CmdSMSNotify:       {name: "SMSNotify", build: simple("AT+CNMI=2,1,0,0,0")},
		CmdErrorNumeric:    {name: "ErrorNumeric", build: simple("AT+CMEE=1")},
		CmdCallCLCC:        {name: "CallCLCC", build: simple("AT+CLCC=1")},
		CmdFactorySettings: {name: "FactorySettings", build: simple("AT&F")},
		CmdAT:              {name: "AT", build: simple("AT")},
		CmdEchoOff:         {name: "EchoOff", build: simple("ATE0")},
		CmdEchoOn:          {name: "EchoOn", build: simple("ATE1")},
		CmdFuncSet:         {name: "FuncSet", timeout: 15 * time.Second, build: buildFuncSet},
		CmdFuncGet:         {name: "FuncGet", build: buildFuncGet},

		CmdPIN:       {name: "PIN", build: buildPIN},
		CmdPUK:       {name: "PUK", build: buildPUK},
		CmdPINRemove: {name: "PINRemove", build: buildPINLock(false)},
		CmdPINAdd:    {name: "PINAdd", build: buildPINLock(true)},
		CmdPINStatus: {name: "PINStatus", timeout: 5 * time.Second, build: buildPINStatus},

		CmdSMSSend:       {name: "SMSSend", build: buildSMSSend},
		CmdSMSRead:       {name: "SMSRead", timeout: 10 * time.Second, build: buildSMSRead},
		CmdSMSDelete:     {name: "SMSDelete", timeout: 10 * time.Second, build: buildSMSDelete},
		CmdSMSMassDelete: {name: "SMSMassDelete", build: buildSMSMassDelete},
		CmdSMSList:       {name: "SMSList", timeout: 20 * time.Second, build: buildSMSList},
		CmdSMSTextMode:   {name: "SMSTextMode", timeout: 5 * time.Second, build: simple("AT+CMGF=1")},

		CmdCallVoice:       {name: "CallVoice", build: buildDial(true)},
		CmdCallData:        {name: "CallData", build: buildDial(false)},
		CmdCallAnswer:      {name: "CallAnswer", build: buildAnswer},
		CmdCallHangup:      {name: "CallHangup", build: simple("ATH")},
		CmdCallVoiceSIMPos: {name: "CallVoiceSIMPos", build: buildDialSIMPos},

		CmdInfoModel:        {name: "InfoModel", build: buildInfo("AT+CGMM", false)},
		CmdInfoManufacturer: {name: "InfoManufacturer", build: buildInfo("AT+CGMI", false)},
		CmdInfoRevision:     {name: "InfoRevision", build: buildInfo("AT+CGMR", false)},
		CmdInfoNumber:       {name: "InfoNumber", build: buildOwnNumber},
		CmdInfoSerial:       {name: "InfoSerial", build: buildInfo("AT+CGSN", false)},
		CmdInfoBattery:      {name: "InfoBattery", build: buildBattery},
		CmdInfoSignal:       {name: "InfoSignal", build: buildSignal},

		CmdPBAdd:    {name: "PBAdd", build: buildPBWrite(false)},
		CmdPBEdit:   {name: "PBEdit", build: buildPBWrite(true)},
		CmdPBDelete: {name: "PBDelete", build: buildPBDelete},
		CmdPBGet:    {name: "PBGet", build: buildPBGet},
		CmdPBList:   {name: "PBList", timeout: 30 * time.Second, build: buildPBList},
		CmdPBSearch: {name: "PBSearch", build: buildPBSearch},

		CmdDateTimeGet: {name: "DateTimeGet", build: buildClock},

		CmdGPRSAttach:    {name: "GPRSAttach", timeout: 180 * time.Second, build: buildAttach},
		CmdGPRSDetach:    {name: "GPRSDetach", build: buildDetach},
		CmdHTTPExecute:   {name: "HTTPExecute", timeout: 120 * time.Second, build: buildHTTP},
		CmdFTPDownload:   {name: "FTPDownload", timeout: 120 * time.Second, build: buildFTPDownload},
		CmdFTPUpload:     {name: "FTPUpload", timeout: 120 * time.Second, build: buildFTPUpload},
		CmdConnStart:     {name: "ConnStart", timeout: 75 * time.Second, build: buildConnStart},
		CmdConnSend:      {name: "ConnSend", timeout: 30 * time.Second, build: buildConnSend},
		CmdConnClose:     {name: "ConnClose", timeout: 10 * time.Second, build: buildConnClose},
		CmdConnRead:      {name: "ConnRead", timeout: 10 * time.Second, build: buildConnRead},
		CmdNetworkStatus: {name: "NetworkStatus", timeout: 5 * time.Second, build: buildNetworkStatus},

		CmdOperatorScan: {name: "OperatorScan", timeout: 180 * time.Second, build: buildOperatorScan},
		CmdOperatorRead: {name: "OperatorRead", build: buildOperatorRead},
		CmdOperatorSet:  {name: "OperatorSet", timeout: 120 * time.Second, build: buildOperatorSet},
	}
}

// Commands returns every registered command id in ascending order.
func Commands() []CommandID {
	ids := make([]CommandID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// DefaultTimeout is the time budget of id when no override is configured.
func DefaultTimeout(id CommandID) time.Duration {
	if e, ok := registry[id]; ok && e.timeout > 0 {
		return e.timeout
	}
	if d, ok := categoryTimeouts[id.Category()]; ok {
		return d
	}
	return 5 * time.Second
}
