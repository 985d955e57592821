package modem

import (
	"context"
	"fmt"

	"i4.energy/across/gsmat/gsm"
)

// SimStatus queries the SIM lock state.
func (m *Modem) SimStatus(ctx context.Context) (gsm.SimState, error) {
	return call[gsm.SimState](ctx, m, gsm.CmdPINStatus, nil)
}

// EnterPIN unlocks the SIM and returns the state reported afterwards.
func (m *Modem) EnterPIN(ctx context.Context, pin string) (gsm.SimState, error) {
	return call[gsm.SimState](ctx, m, gsm.CmdPIN, gsm.PINParams{PIN: pin})
}

// NetworkStatus queries the registration state.
func (m *Modem) NetworkStatus(ctx context.Context) (gsm.NetworkStatus, error) {
	return call[gsm.NetworkStatus](ctx, m, gsm.CmdNetworkStatus, nil)
}

// Signal queries the received signal quality.
func (m *Modem) Signal(ctx context.Context) (gsm.Signal, error) {
	return call[gsm.Signal](ctx, m, gsm.CmdInfoSignal, nil)
}

// Operators scans for the operators in range. A scan can take minutes.
func (m *Modem) Operators(ctx context.Context) ([]gsm.Operator, error) {
	return call[[]gsm.Operator](ctx, m, gsm.CmdOperatorScan, nil)
}

// Operator returns the operator the modem is registered with.
func (m *Modem) Operator(ctx context.Context) (gsm.Operator, error) {
	return call[gsm.Operator](ctx, m, gsm.CmdOperatorRead, nil)
}

// SelectOperator changes the operator selection mode.
func (m *Modem) SelectOperator(ctx context.Context, p gsm.OperatorParams) error {
	_, err := m.Exec(ctx, gsm.CmdOperatorSet, p)
	return err
}

// AttachGPRS brings up the packet data bearer and returns the local IP
// address. An empty APN falls back to the configured one.
func (m *Modem) AttachGPRS(ctx context.Context, p gsm.AttachParams) (string, error) {
	if p.APN == "" {
		p.APN = m.config.APN
	}
	ip, err := call[string](ctx, m, gsm.CmdGPRSAttach, p)
	if err != nil {
		return "", fmt.Errorf("attach GPRS: %w", err)
	}
	return ip, nil
}

// DetachGPRS closes every connection and tears the bearer down.
func (m *Modem) DetachGPRS(ctx context.Context) error {
	_, err := m.Exec(ctx, gsm.CmdGPRSDetach, nil)
	return err
}
