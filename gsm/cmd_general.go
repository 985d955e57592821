package gsm

import (
	"fmt"

	"i4.energy/across/gsmat/at"
)

func buildFuncSet(params any) (*routine, error) {
	p, err := paramsAs[FuncParams](params)
	if err != nil {
		return nil, err
	}
	if p.Func != FuncMin && p.Func != FuncFull && p.Func != FuncDisable {
		return nil, invalid("functionality level %d", p.Func)
	}
	line := fmt.Sprintf("AT+CFUN=%d", p.Func)
	if p.Reset {
		line += ",1"
	}
	return &routine{
		steps: seq(cmd(line), []step{func(t *task) next {
			t.s.fn = p.Func
			if p.Func != FuncFull || p.Reset {
				// Radio off or restart: registration and SIM must be re-learned.
				t.s.network = NetworkUnknown
				t.s.sim = SimUnknown
			}
			return proceed()
		}}),
	}, nil
}

func buildFuncGet(any) (*routine, error) {
	return &routine{
		steps: query("AT+CFUN?", func(t *task) error {
			if _, ok := t.line(at.RespFunc); !ok {
				return fmt.Errorf("%w: no %s line", ErrModem, at.RespFunc)
			}
			t.reply = t.s.fn
			return nil
		}),
	}, nil
}
