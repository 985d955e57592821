package gsm

import (
	"fmt"

	"i4.energy/across/gsmat/at"
)

func buildOperatorScan(any) (*routine, error) {
	return &routine{
		steps: seq(
			simReady(),
			query("AT+COPS=?", func(t *task) error {
				// +COPS: (<stat>,"long","short","numeric"),...,,(modes),(formats)
				v, ok := t.line(at.RespOperator)
				if !ok {
					return fmt.Errorf("%w: no %s line", ErrModem, at.RespOperator)
				}
				var ops []Operator
				for _, g := range groups(v) {
					f := fields(g)
					if len(f) != 4 {
						continue
					}
					ops = append(ops, Operator{
						Status:  OperatorStatus(atoi(f[0], 0)),
						Long:    f[1],
						Short:   f[2],
						Numeric: f[3],
					})
				}
				t.reply = ops
				return nil
			}),
		),
	}, nil
}

func buildOperatorRead(any) (*routine, error) {
	return &routine{
		steps: query("AT+COPS?", func(t *task) error {
			// +COPS: <mode>[,<format>,<oper>]
			v, ok := t.line(at.RespOperator)
			if !ok {
				return fmt.Errorf("%w: no %s line", ErrModem, at.RespOperator)
			}
			f := fields(v)
			op := Operator{Status: OperatorCurrent, Mode: OperatorMode(atoi(f[0], 0))}
			if len(f) >= 3 {
				switch OperatorFormat(atoi(f[1], 0)) {
				case FormatLong:
					op.Long = f[2]
				case FormatShort:
					op.Short = f[2]
				case FormatNumeric:
					op.Numeric = f[2]
				}
			} else {
				op.Status = OperatorUnknown
			}
			t.reply = op
			return nil
		}),
	}, nil
}

func buildOperatorSet(params any) (*routine, error) {
	p, err := paramsAs[OperatorParams](params)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	line := fmt.Sprintf("AT+COPS=%d", p.Mode)
	if p.Name != "" {
		line = fmt.Sprintf(`AT+COPS=%d,%d,"%s"`, p.Mode, p.Format, p.Name)
	}
	return &routine{
		steps: seq(simReady(), cmd(line), []step{func(t *task) next {
			// Registration changes with the operator; force the next guard to ask.
			t.s.network = NetworkUnknown
			return proceed()
		}}),
	}, nil
}
