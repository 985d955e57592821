package modem

import (
	"context"

	"i4.energy/across/gsmat/gsm"
)

// Dial starts a voice call to number. It returns once the modem accepted the
// dial command; call progress arrives on Events as EventCallCLCC.
func (m *Modem) Dial(ctx context.Context, number string) error {
	_, err := m.Exec(ctx, gsm.CmdCallVoice, gsm.DialParams{Number: number})
	return err
}

// DialStored calls the number stored at index of the SIM phonebook.
func (m *Modem) DialStored(ctx context.Context, index int) error {
	_, err := m.Exec(ctx, gsm.CmdCallVoiceSIMPos, gsm.IndexParams{Index: index})
	return err
}

// Answer accepts an incoming call.
func (m *Modem) Answer(ctx context.Context) error {
	_, err := m.Exec(ctx, gsm.CmdCallAnswer, nil)
	return err
}

// Hangup ends the current call.
func (m *Modem) Hangup(ctx context.Context) error {
	_, err := m.Exec(ctx, gsm.CmdCallHangup, nil)
	return err
}
