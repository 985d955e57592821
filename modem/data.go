package modem

import (
	"context"

	"i4.energy/across/gsmat/gsm"
)

// Connect opens a TCP or UDP connection on slot. GPRS must be attached.
func (m *Modem) Connect(ctx context.Context, p gsm.ConnParams) error {
	_, err := m.Exec(ctx, gsm.CmdConnStart, p)
	return err
}

// Send writes data to the connection on slot and returns the number of
// bytes the modem accepted.
func (m *Modem) Send(ctx context.Context, slot int, data []byte) (int, error) {
	return call[int](ctx, m, gsm.CmdConnSend, gsm.ConnSendParams{Slot: slot, Data: data})
}

// Read fetches at most limit buffered bytes from the connection on slot.
// Call it after an EventConnDataReceived notification.
func (m *Modem) Read(ctx context.Context, slot, limit int) ([]byte, error) {
	return call[[]byte](ctx, m, gsm.CmdConnRead, gsm.ConnReadParams{Slot: slot, Max: limit})
}

// CloseConn closes the connection on slot.
func (m *Modem) CloseConn(ctx context.Context, slot int) error {
	_, err := m.Exec(ctx, gsm.CmdConnClose, gsm.SlotParams{Slot: slot})
	return err
}

// HTTP performs one request with the modem's HTTP client.
func (m *Modem) HTTP(ctx context.Context, p gsm.HTTPParams) (gsm.HTTPResponse, error) {
	return call[gsm.HTTPResponse](ctx, m, gsm.CmdHTTPExecute, p)
}

// FTPGet downloads one file.
func (m *Modem) FTPGet(ctx context.Context, p gsm.FTPParams) ([]byte, error) {
	return call[[]byte](ctx, m, gsm.CmdFTPDownload, p)
}

// FTPPut uploads p.Data.
func (m *Modem) FTPPut(ctx context.Context, p gsm.FTPParams) error {
	_, err := m.Exec(ctx, gsm.CmdFTPUpload, p)
	return err
}
