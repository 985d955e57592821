package gsm

import (
	"fmt"
	"strings"

	"i4.energy/across/gsmat/at"
)

// SimState is the SIM lock state reported by +CPIN.
type SimState uint8

const (
	SimUnknown SimState = iota
	SimReady
	SimWaitingPIN
	SimWaitingPUK
	SimWaitingPhonePIN
	SimWaitingPhonePUK
	SimWaitingPIN2
	SimWaitingPUK2
	SimNotInserted
)

var simStateNames = [...]string{
	SimUnknown:         "Unknown",
	SimReady:           "Ready",
	SimWaitingPIN:      "WaitingPIN",
	SimWaitingPUK:      "WaitingPUK",
	SimWaitingPhonePIN: "WaitingPhonePIN",
	SimWaitingPhonePUK: "WaitingPhonePUK",
	SimWaitingPIN2:     "WaitingPIN2",
	SimWaitingPUK2:     "WaitingPUK2",
	SimNotInserted:     "NotInserted",
}

func (s SimState) String() string {
	if int(s) < len(simStateNames) {
		return simStateNames[s]
	}
	return fmt.Sprintf("SimState(%d)", uint8(s))
}

func parseSimState(v string) SimState {
	switch strings.TrimSpace(v) {
	case at.SimReady:
		return SimReady
	case at.SimPin:
		return SimWaitingPIN
	case at.SimPuk:
		return SimWaitingPUK
	case at.SimPhPin:
		return SimWaitingPhonePIN
	case at.SimPhPuk:
		return SimWaitingPhonePUK
	case at.SimPin2:
		return SimWaitingPIN2
	case at.SimPuk2:
		return SimWaitingPUK2
	case at.SimNotInsert:
		return SimNotInserted
	}
	return SimUnknown
}

// NetworkStatus is the registration state reported by +CREG. The values
// match the <stat> codes of 3GPP TS 27.007.
type NetworkStatus uint8

const (
	NetworkNotRegistered     NetworkStatus = 0
	NetworkRegisteredHome    NetworkStatus = 1
	NetworkSearching         NetworkStatus = 2
	NetworkDenied            NetworkStatus = 3
	NetworkUnknown           NetworkStatus = 4
	NetworkRegisteredRoaming NetworkStatus = 5
)

func (n NetworkStatus) String() string {
	switch n {
	case NetworkNotRegistered:
		return "NotRegistered"
	case NetworkRegisteredHome:
		return "RegisteredHome"
	case NetworkSearching:
		return "Searching"
	case NetworkDenied:
		return "Denied"
	case NetworkRegisteredRoaming:
		return "RegisteredRoaming"
	}
	return "Unknown"
}

// Registered reports whether the device may use network services.
func (n NetworkStatus) Registered() bool {
	return n == NetworkRegisteredHome || n == NetworkRegisteredRoaming
}

// err returns the guard failure matching an unregistered status.
func (n NetworkStatus) err() error {
	switch n {
	case NetworkNotRegistered:
		return ErrNetworkNotRegistered
	case NetworkSearching:
		return ErrNetworkSearching
	case NetworkDenied:
		return ErrNetworkRegistrationDenied
	}
	return ErrNetworkError
}

// Func is the phone functionality level of +CFUN.
type Func uint8

const (
	FuncMin     Func = 0
	FuncFull    Func = 1
	FuncDisable Func = 4
)

// MaxConns is the number of connection slots of the modem.
const MaxConns = 6

// Conn is a snapshot of one connection slot.
type Conn struct {
	// Active is set by CONNECT OK and cleared by CLOSE OK, CLOSED or detach.
	Active bool
	// Unknown is set when a connect or close timed out; the slot is
	// treated as inactive until the modem reports otherwise.
	Unknown bool
	// Requested, Received and Remaining describe the last read.
	Requested int
	Received  int
	Remaining int
	// TotalRead counts bytes read since the slot was opened.
	TotalRead int
	// ReadAnnounced is set when the modem announced data with +CIPRXGET: 1.
	ReadAnnounced bool
	// ReadNotified is set once the announcement was handed to the callback.
	ReadNotified bool
	// ClosedByPeer is set when the modem reported CLOSED.
	ClosedByPeer bool
}

func (c *Conn) reset() { *c = Conn{} }

// CallDir is the direction of a call.
type CallDir uint8

const (
	CallDirMO CallDir = 0
	CallDirMT CallDir = 1
)

// CallState is the state of a call reported by +CLCC.
type CallState uint8

const (
	CallStateActive     CallState = 0
	CallStateHeld       CallState = 1
	CallStateDialing    CallState = 2
	CallStateAlerting   CallState = 3
	CallStateIncoming   CallState = 4
	CallStateWaiting    CallState = 5
	CallStateDisconnect CallState = 6
)

// CallType is the bearer of a call.
type CallType uint8

const (
	CallTypeVoice CallType = 0
	CallTypeData  CallType = 1
	CallTypeFax   CallType = 2
)

// CallInfo is the last call status line reported by +CLCC.
type CallInfo struct {
	ID          int
	Dir         CallDir
	State       CallState
	Type        CallType
	Multiparty  bool
	Number      string
	AddressType int
	Name        string
}
