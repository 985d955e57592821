package modem

import (
	"context"
	"fmt"

	"i4.energy/across/gsmat/gsm"
)

// call runs id through the Loop and asserts the type of its reply.
func call[T any](ctx context.Context, m *Modem, id gsm.CommandID, params any) (T, error) {
	var zero T
	reply, err := m.Exec(ctx, id, params)
	if err != nil {
		return zero, err
	}
	v, ok := reply.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrUnexpectedReply, id, reply)
	}
	return v, nil
}

// SendSMS sends a text message to the specified recipient and returns the
// message reference assigned by the network.
//
// The message is sent in text mode (not PDU mode) and must fit into one
// GSM 7-bit message. The recipient should be in international format
// (e.g., "+1234567890").
//
// This method blocks until the message is accepted by the network or an error
// occurs. Network delivery (to the final recipient) happens asynchronously.
func (m *Modem) SendSMS(ctx context.Context, recipient, message string) (int, error) {
	ref, err := call[int](ctx, m, gsm.CmdSMSSend, gsm.SMSParams{Number: recipient, Text: message})
	if err != nil {
		return 0, fmt.Errorf("send SMS: %w", err)
	}
	return ref, nil
}

// ReadSMS returns the message stored at index. It fails with gsm.ErrNotFound
// when the slot is empty.
func (m *Modem) ReadSMS(ctx context.Context, index int) (gsm.Message, error) {
	return call[gsm.Message](ctx, m, gsm.CmdSMSRead, gsm.IndexParams{Index: index})
}

// ListSMS returns the stored messages matching filter.
func (m *Modem) ListSMS(ctx context.Context, filter gsm.ListFilter) ([]gsm.Message, error) {
	return call[[]gsm.Message](ctx, m, gsm.CmdSMSList, gsm.ListParams{Filter: filter})
}

// DeleteSMS removes the message stored at index.
func (m *Modem) DeleteSMS(ctx context.Context, index int) error {
	_, err := m.Exec(ctx, gsm.CmdSMSDelete, gsm.IndexParams{Index: index})
	return err
}

// DeleteAllSMS removes the stored messages selected by which.
func (m *Modem) DeleteAllSMS(ctx context.Context, which gsm.MassDelete) error {
	_, err := m.Exec(ctx, gsm.CmdSMSMassDelete, gsm.MassDeleteParams{Kind: which})
	return err
}
