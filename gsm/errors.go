package gsm

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned by Begin when another command owns the channel or
	// an idle notification has not been delivered yet. The caller must retry.
	ErrBusy = errors.New("gsm: busy")

	// ErrInvalidParameter is returned when caller supplied arguments fail
	// validation. Nothing has been sent to the modem in that case.
	ErrInvalidParameter = errors.New("gsm: invalid parameter")

	// ErrTimeout is returned when the modem did not answer within the
	// command's time budget. The channel is released.
	ErrTimeout = errors.New("gsm: timeout")

	// ErrModem is returned when the modem replied with ERROR or another
	// failure result code. Errors of type *ModemError wrap it.
	ErrModem = errors.New("gsm: modem error")

	// ErrSimNotReady is returned by commands that require an unlocked SIM.
	//
	// Callers may handle this error specially (for example, by prompting
	// the user for a PIN) and retry.
	ErrSimNotReady = errors.New("gsm: SIM not ready")

	ErrNetworkNotRegistered      = errors.New("gsm: network not registered")
	ErrNetworkSearching          = errors.New("gsm: network searching")
	ErrNetworkRegistrationDenied = errors.New("gsm: network registration denied")
	ErrNetworkError              = errors.New("gsm: network error")

	// ErrSendFailed is returned when the transport rejected or shortened a write.
	ErrSendFailed = errors.New("gsm: send failed")

	// ErrUnknownCommand is returned by Begin for ids outside the registry.
	ErrUnknownCommand = errors.New("gsm: unknown command")

	// ErrNesting is returned when a second level of command nesting is
	// requested.
	ErrNesting = errors.New("gsm: nesting too deep")
)

// ModemError carries the failure line reported by the modem.
type ModemError struct {
	Command CommandID
	// Line is the final result line, e.g. "ERROR", "+CME ERROR: 10" or "NO CARRIER".
	Line string
}

func (e *ModemError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("gsm: %s: modem error", e.Command)
	}
	return fmt.Sprintf("gsm: %s: %s", e.Command, e.Line)
}

func (e *ModemError) Unwrap() error { return ErrModem }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// Result is the closed set of outcomes a command can have.
type Result uint8

const (
	ResultOK Result = iota
	ResultBusy
	ResultInvalidParameter
	ResultTimeout
	ResultModemError
	ResultSimNotReady
	ResultNetworkNotRegistered
	ResultNetworkSearching
	ResultNetworkRegistrationDenied
	ResultNetworkError
	ResultSendFailed
)

var resultNames = [...]string{
	ResultOK:                        "Ok",
	ResultBusy:                      "Busy",
	ResultInvalidParameter:          "InvalidParameter",
	ResultTimeout:                   "Timeout",
	ResultModemError:                "ModemError",
	ResultSimNotReady:               "SimNotReady",
	ResultNetworkNotRegistered:      "NetworkNotRegistered",
	ResultNetworkSearching:          "NetworkSearching",
	ResultNetworkRegistrationDenied: "NetworkRegistrationDenied",
	ResultNetworkError:              "NetworkError",
	ResultSendFailed:                "SendFailed",
}

func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("Result(%d)", uint8(r))
}

// ResultOf maps an error returned by the engine to its Result tag.
// Errors outside the engine's vocabulary map to ResultModemError.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrBusy):
		return ResultBusy
	case errors.Is(err, ErrInvalidParameter), errors.Is(err, ErrUnknownCommand):
		return ResultInvalidParameter
	case errors.Is(err, ErrTimeout):
		return ResultTimeout
	case errors.Is(err, ErrSimNotReady):
		return ResultSimNotReady
	case errors.Is(err, ErrNetworkNotRegistered):
		return ResultNetworkNotRegistered
	case errors.Is(err, ErrNetworkSearching):
		return ResultNetworkSearching
	case errors.Is(err, ErrNetworkRegistrationDenied):
		return ResultNetworkRegistrationDenied
	case errors.Is(err, ErrNetworkError):
		return ResultNetworkError
	case errors.Is(err, ErrSendFailed):
		return ResultSendFailed
	}
	return ResultModemError
}
