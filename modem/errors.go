package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has not been successfully initialized.
	//
	// This can occur if the Dialer returned no transport or if the Modem was
	// not created via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, and by every operation after Close.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrSIMPinRequired is returned when the SIM card requires a PIN and no
	// PIN was provided in the Config.
	//
	// Callers may handle this error specially (for example, by prompting
	// the user for a PIN) and retry initialization.
	ErrSIMPinRequired = errors.New("SIM PIN required")

	// ErrLoopRunning is returned by Loop when another Loop is already running.
	ErrLoopRunning = errors.New("modem loop already running")

	// ErrLoopNotRunning is returned by operations that need the Loop.
	ErrLoopNotRunning = errors.New("modem loop not running")

	// ErrUnexpectedReply is returned when a command completed with a reply of
	// an unexpected type.
	ErrUnexpectedReply = errors.New("unexpected reply")
)
