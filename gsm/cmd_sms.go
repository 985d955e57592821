package gsm

import (
	"errors"
	"fmt"
	"strings"

	"i4.energy/across/gsmat/at"
)

// ErrNotFound is returned when a storage index holds no entry.
var ErrNotFound = errors.New("gsm: entry not found")

func buildSMSSend(params any) (*routine, error) {
	p, err := paramsAs[SMSParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &routine{
		steps: seq(
			simReady(),
			networkRegistered(),
			cmd(at.CmdSetTextMode),
			[]step{
				func(t *task) next {
					return t.exec(fmt.Sprintf(`AT+CMGS="%s"`, p.Number), RespPrompt|RespError)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					return t.write([]byte(p.Text+at.CtrlZ), respFinal)
				},
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					ref := -1
					if v, ok := t.line(at.RespSendSMS); ok {
						ref = atoi(v, -1)
					}
					t.reply = ref
					return proceed()
				},
			},
		),
	}, nil
}

func checkIndex(params any) (int, error) {
	p, err := paramsAs[IndexParams](params)
	if err != nil {
		return 0, err
	}
	if p.Index < 1 {
		return 0, invalid("index %d", p.Index)
	}
	return p.Index, nil
}

func buildSMSRead(params any) (*routine, error) {
	i, err := checkIndex(params)
	if err != nil {
		return nil, err
	}
	return &routine{
		steps: seq(
			simReady(),
			cmd(at.CmdSetTextMode),
			query(fmt.Sprintf("AT+CMGR=%d", i), func(t *task) error {
				msgs := parseMessages(t.s.lines, at.RespReadSMS, i)
				if len(msgs) == 0 {
					return fmt.Errorf("%w: message %d", ErrNotFound, i)
				}
				t.reply = msgs[0]
				return nil
			}),
		),
	}, nil
}

func buildSMSDelete(params any) (*routine, error) {
	i, err := checkIndex(params)
	if err != nil {
		return nil, err
	}
	return &routine{
		steps: seq(simReady(), cmd(fmt.Sprintf("AT+CMGD=%d", i))),
	}, nil
}

func buildSMSMassDelete(params any) (*routine, error) {
	p, err := paramsAs[MassDeleteParams](params)
	if err != nil {
		return nil, err
	}
	if int(p.Kind) >= len(massDeleteNames) {
		return nil, invalid("mass delete kind %d", p.Kind)
	}
	return &routine{
		steps: seq(
			simReady(),
			cmd(at.CmdSetTextMode),
			cmd(fmt.Sprintf(`AT+CMGDA="%s"`, massDeleteNames[p.Kind])),
		),
	}, nil
}

func buildSMSList(params any) (*routine, error) {
	p, err := paramsAs[ListParams](params)
	if err != nil {
		return nil, err
	}
	if int(p.Filter) >= len(listFilterNames) {
		return nil, invalid("list filter %d", p.Filter)
	}
	return &routine{
		steps: seq(
			simReady(),
			cmd(at.CmdSetTextMode),
			query(fmt.Sprintf(`AT+CMGL="%s"`, listFilterNames[p.Filter]), func(t *task) error {
				t.reply = parseMessages(t.s.lines, at.RespListSMS, 0)
				return nil
			}),
		),
	}, nil
}

// parseMessages collects text mode messages from reply lines. A header
// line starting with prefix opens a message and the following lines up to
// the next header are its text. +CMGR headers carry no index, so index is
// used for them.
//
//	+CMGR: <stat>,<oa>,[<alpha>],<scts>
//	+CMGL: <index>,<stat>,<oa>,[<alpha>],<scts>
func parseMessages(lines []string, prefix string, index int) []Message {
	var (
		msgs []Message
		text []string
	)
	flush := func() {
		if len(msgs) > 0 {
			msgs[len(msgs)-1].Text = strings.Join(text, "\n")
		}
		text = nil
	}
	for _, l := range lines {
		v, ok := value(l, prefix)
		if !ok {
			if len(msgs) > 0 {
				text = append(text, l)
			}
			continue
		}
		flush()
		f := fields(v)
		m := Message{Index: index}
		if prefix == at.RespListSMS && len(f) > 0 {
			m.Index = atoi(f[0], 0)
			f = f[1:]
		}
		if len(f) > 0 {
			m.Status = f[0]
		}
		if len(f) > 1 {
			m.Number = f[1]
		}
		if len(f) > 3 {
			if ts, err := parseClock(f[3]); err == nil {
				m.Time = ts
			}
		}
		msgs = append(msgs, m)
	}
	flush()
	return msgs
}
