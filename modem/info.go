package modem

import (
	"context"
	"time"

	"i4.energy/across/gsmat/gsm"
)

// ModelInfo identifies the module.
type ModelInfo struct {
	Manufacturer string
	Model        string
	Revision     string
	Serial       string
}

// ModelInfo queries manufacturer, model, firmware revision and IMEI.
func (m *Modem) ModelInfo(ctx context.Context) (ModelInfo, error) {
	var (
		id  ModelInfo
		err error
	)
	for _, q := range []struct {
		cmd gsm.CommandID
		dst *string
	}{
		{gsm.CmdInfoManufacturer, &id.Manufacturer},
		{gsm.CmdInfoModel, &id.Model},
		{gsm.CmdInfoRevision, &id.Revision},
		{gsm.CmdInfoSerial, &id.Serial},
	} {
		if *q.dst, err = call[string](ctx, m, q.cmd, nil); err != nil {
			return ModelInfo{}, err
		}
	}
	return id, nil
}

// OwnNumber returns the subscriber number stored on the SIM.
func (m *Modem) OwnNumber(ctx context.Context) (string, error) {
	return call[string](ctx, m, gsm.CmdInfoNumber, nil)
}

func (m *Modem) Battery(ctx context.Context) (gsm.Battery, error) {
	return call[gsm.Battery](ctx, m, gsm.CmdInfoBattery, nil)
}

// Clock reads the modem's real time clock.
func (m *Modem) Clock(ctx context.Context) (time.Time, error) {
	return call[time.Time](ctx, m, gsm.CmdDateTimeGet, nil)
}

// SetFunc changes the phone functionality level. Registration and SIM state
// are forgotten unless the level is full functionality.
func (m *Modem) SetFunc(ctx context.Context, f gsm.Func, reset bool) error {
	_, err := m.Exec(ctx, gsm.CmdFuncSet, gsm.FuncParams{Func: f, Reset: reset})
	return err
}

// Phonebook returns the entries From..To of the SIM phonebook.
func (m *Modem) Phonebook(ctx context.Context, from, to int) ([]gsm.PhonebookEntry, error) {
	return call[[]gsm.PhonebookEntry](ctx, m, gsm.CmdPBList, gsm.RangeParams{From: from, To: to})
}

// AddContact stores a new phonebook entry.
func (m *Modem) AddContact(ctx context.Context, number, name string) error {
	_, err := m.Exec(ctx, gsm.CmdPBAdd, gsm.PhonebookParams{Number: number, Name: name})
	return err
}
