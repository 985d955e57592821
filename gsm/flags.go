package gsm

import "strings"

// Responses is the set of reply flags for the command that currently owns
// the channel. It is cleared whenever a command sends a new line and when
// the channel is released.
type Responses uint32

const (
	RespOK Responses = 1 << iota
	RespError
	RespPrompt
	RespData
	RespNoCarrier
	RespBusy
	RespNoDialtone
	RespNoAnswer
	RespShutOK
	RespConnectOK
	RespConnectFail
	RespAlreadyConnect
	RespCloseOK
	RespSendOK
	RespSendFail
	RespCallReady
	RespSMSReady
	RespHTTPAction
	RespDownload
	RespFTPGet
	RespFTPPut
	RespFTPUploadReady

	// respFinal are the flags that terminate a plain command.
	respFinal = RespOK | RespError
	// respDialFailed are the call progress results that end a dial attempt.
	respDialFailed = RespNoCarrier | RespBusy | RespNoDialtone | RespNoAnswer
)

var responseNames = []string{
	"OK", "ERROR", "PROMPT", "DATA", "NO CARRIER", "BUSY", "NO DIALTONE", "NO ANSWER",
	"SHUT OK", "CONNECT OK", "CONNECT FAIL", "ALREADY CONNECT", "CLOSE OK",
	"SEND OK", "SEND FAIL", "CALL READY", "SMS READY", "HTTPACTION", "DOWNLOAD",
	"FTPGET", "FTPPUT", "FTPPUT READY",
}

// Has reports whether all flags in f are set.
func (r Responses) Has(f Responses) bool { return r&f == f }

// Any reports whether at least one flag in f is set.
func (r Responses) Any(f Responses) bool { return r&f != 0 }

func (r Responses) String() string {
	var names []string
	for i, name := range responseNames {
		if r&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Event tags a notification delivered to the application callback.
type Event uint8

const (
	// EventIdle is synthesized once when a fire-and-forget command completes.
	EventIdle Event = iota
	EventConnDataReceived
	EventConnClosed
	EventCallCLCC
	EventCallRing
	EventSMSReceived
	EventGPRSAttached
	EventGPRSAttachError
	EventGPRSDetached
	EventUVWarning
	EventUVPowerDown
	EventNetworkChanged
)

var eventNames = [...]string{
	EventIdle:             "Idle",
	EventConnDataReceived: "ConnDataReceived",
	EventConnClosed:       "ConnClosed",
	EventCallCLCC:         "CallCLCC",
	EventCallRing:         "CallRING",
	EventSMSReceived:      "SMSReceived",
	EventGPRSAttached:     "GPRSAttached",
	EventGPRSAttachError:  "GPRSAttachError",
	EventGPRSDetached:     "GPRSDetached",
	EventUVWarning:        "UVWarning",
	EventUVPowerDown:      "UVPowerDown",
	EventNetworkChanged:   "NetworkChanged",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "Event(?)"
}

// critical events are dispatched ahead of everything else.
func (e Event) critical() bool {
	return e == EventConnClosed || e == EventUVPowerDown
}

// Events is the set of unsolicited notifications waiting for dispatch.
// Unlike Responses it survives command completion and is only drained by
// the dispatcher.
type Events uint32

// Has reports whether ev is pending.
func (s Events) Has(ev Event) bool { return s&(1<<ev) != 0 }

func (s *Events) set(ev Event)   { *s |= 1 << ev }
func (s *Events) clear(ev Event) { *s &^= 1 << ev }
