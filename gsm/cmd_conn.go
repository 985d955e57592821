package gsm

import (
	"errors"
	"fmt"
)

// respConnect are the outcomes of AT+CIPSTART.
const respConnect = RespConnectOK | RespConnectFail | RespAlreadyConnect

// markUnknown flags a slot whose connect or close timed out.
func markUnknown(slot int) func(*Session, error) {
	return func(s *Session, err error) {
		if errors.Is(err, ErrTimeout) {
			s.conns[slot].Active = false
			s.conns[slot].Unknown = true
		}
	}
}

func buildConnStart(params any) (*routine, error) {
	p, err := paramsAs[ConnParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	line := fmt.Sprintf(`AT+CIPSTART=%d,"%s","%s",%d`, p.Slot, p.Protocol, p.Host, p.Port)
	return &routine{
		steps: seq(
			simReady(),
			networkRegistered(),
			[]step{
				func(t *task) next { return t.exec(line, respFinal) },
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return wait(respConnect)
				},
				func(t *task) next {
					if t.s.connSlot != p.Slot {
						// Status of another slot.
						t.s.resp &^= respConnect
						return waitJump(respConnect, 0)
					}
					return checkOK(t)
				},
			},
		),
		after: markUnknown(p.Slot),
	}, nil
}

func buildConnSend(params any) (*routine, error) {
	p, err := paramsAs[ConnSendParams](params)
	if err != nil {
		return nil, err
	}
	if err := checkSlot(p.Slot); err != nil {
		return nil, err
	}
	if len(p.Data) < 1 || len(p.Data) > MaxConnPayload {
		return nil, invalid("payload of %d bytes, want 1..%d", len(p.Data), MaxConnPayload)
	}
	data := append([]byte(nil), p.Data...)
	return &routine{
		steps: []step{
			func(t *task) next {
				return t.exec(fmt.Sprintf("AT+CIPSEND=%d,%d", p.Slot, len(data)), RespPrompt|RespError)
			},
			func(t *task) next {
				if err := t.modemErr(); err != nil {
					return finish(err)
				}
				return t.write(data, RespSendOK|RespSendFail|RespError)
			},
			func(t *task) next {
				if err := t.modemErr(); err != nil {
					return finish(err)
				}
				t.reply = len(data)
				return proceed()
			},
		},
	}, nil
}

func buildConnClose(params any) (*routine, error) {
	p, err := paramsAs[SlotParams](params)
	if err != nil {
		return nil, err
	}
	if err := checkSlot(p.Slot); err != nil {
		return nil, err
	}
	return &routine{
		steps: []step{
			func(t *task) next {
				return t.exec(fmt.Sprintf("AT+CIPCLOSE=%d", p.Slot), RespCloseOK|RespError)
			},
			checkOK,
		},
		after: markUnknown(p.Slot),
	}, nil
}

func buildConnRead(params any) (*routine, error) {
	p, err := paramsAs[ConnReadParams](params)
	if err != nil {
		return nil, err
	}
	if err := checkSlot(p.Slot); err != nil {
		return nil, err
	}
	if p.Max < 1 || p.Max > MaxConnPayload {
		return nil, invalid("read size %d, want 1..%d", p.Max, MaxConnPayload)
	}
	return &routine{
		steps: query(fmt.Sprintf("AT+CIPRXGET=2,%d,%d", p.Slot, p.Max), func(t *task) error {
			c := &t.s.conns[p.Slot]
			c.Requested = p.Max
			c.Received = t.s.rxGot
			c.Remaining = t.s.rxLeft
			c.TotalRead += t.s.rxGot
			if c.Remaining == 0 {
				c.ReadAnnounced = false
				c.ReadNotified = false
			}
			t.reply = append([]byte(nil), t.s.payload...)
			return nil
		}),
	}, nil
}
