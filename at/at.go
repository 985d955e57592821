package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	CR     = "\r"
	Prompt = "> "
	CtrlZ  = "\x1a"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"
	ShutOK     = "SHUT OK"
	Download   = "DOWNLOAD"
	CallReady  = "Call Ready"
	SMSReady   = "SMS Ready"

	// Connection status lines, prefixed with "<n>, "
	ConnectOK      = "CONNECT OK"
	ConnectFail    = "CONNECT FAIL"
	AlreadyConnect = "ALREADY CONNECT"
	CloseOK        = "CLOSE OK"
	Closed         = "CLOSED"
	SendOK         = "SEND OK"
	SendFail       = "SEND FAIL"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg         = "+CMTI:"
	UrcMessageReport  = "+CDSI:"
	UrcSignalStrength = "+CSQ:"
	UrcCall           = "RING"
	UrcCallStatus     = "+CLCC:"
	UrcRegistration   = "+CREG:"
	UrcPDPDeact       = "+PDP: DEACT"
	UrcUVWarning      = "UNDER-VOLTAGE WARNNING"
	UrcUVPowerDown    = "UNDER-VOLTAGE POWER DOWN"

	// Information response prefixes
	RespSimStatus  = "+CPIN:"
	RespRxGet      = "+CIPRXGET:"
	RespHTTPAction = "+HTTPACTION:"
	RespHTTPRead   = "+HTTPREAD:"
	RespFTPGet     = "+FTPGET:"
	RespFTPPut     = "+FTPPUT:"
	RespSendSMS    = "+CMGS:"
	RespReadSMS    = "+CMGR:"
	RespListSMS    = "+CMGL:"
	RespFunc       = "+CFUN:"
	RespNumber     = "+CNUM:"
	RespBattery    = "+CBC:"
	RespPhonebook  = "+CPBR:"
	RespPBFind     = "+CPBF:"
	RespClock      = "+CCLK:"
	RespOperator   = "+COPS:"

	// SIM states as reported by +CPIN
	SimReady     = "READY"
	SimPin       = "SIM PIN"
	SimPuk       = "SIM PUK"
	SimPhPin     = "PH-SIM PIN"
	SimPhPuk     = "PH-SIM PUK"
	SimPin2      = "SIM PIN2"
	SimPuk2      = "SIM PUK2"
	SimNotInsert = "NOT INSERTED"

	// Commands used during bring-up
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdEchoOn        = "ATE1"
	CmdVerboseErrors = "AT+CMEE=2"
	CmdNumericErrors = "AT+CMEE=1"
	CmdSimStatus     = "AT+CPIN?"
	CmdSetTextMode   = "AT+CMGF=1"
	CmdRegistration  = "AT+CREG?"
	CmdSMSNotify     = "AT+CNMI=2,1,0,0,0"
	CmdCallStatusOn  = "AT+CLCC=1"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
	TypeRaw                        // Length-prefixed binary payload
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	case TypePrompt:
		return "prompt"
	case TypeRaw:
		return "raw"
	}
	return "unknown"
}
