package gsm

import (
	"fmt"

	"i4.energy/across/gsmat/at"
)

// replySIM stores the SIM state learned from the last +CPIN line.
func replySIM(t *task) error {
	if _, ok := t.line(at.RespSimStatus); !ok {
		return fmt.Errorf("%w: no %s line", ErrModem, at.RespSimStatus)
	}
	t.reply = t.s.sim
	return nil
}

func buildPIN(params any) (*routine, error) {
	p, err := paramsAs[PINParams](params)
	if err != nil {
		return nil, err
	}
	if err := checkPIN(p.PIN); err != nil {
		return nil, err
	}
	return &routine{
		steps: seq(
			cmd(fmt.Sprintf(`AT+CPIN="%s"`, p.PIN)),
			query(at.CmdSimStatus, replySIM),
		),
	}, nil
}

func buildPUK(params any) (*routine, error) {
	p, err := paramsAs[PUKParams](params)
	if err != nil {
		return nil, err
	}
	if !pukRe.MatchString(p.PUK) {
		return nil, invalid("PUK must be 8 digits")
	}
	if err := checkPIN(p.PIN); err != nil {
		return nil, err
	}
	return &routine{
		steps: seq(
			cmd(fmt.Sprintf(`AT+CPIN="%s","%s"`, p.PUK, p.PIN)),
			query(at.CmdSimStatus, replySIM),
		),
	}, nil
}

// buildPINLock enables or disables the PIN request at power up.
func buildPINLock(enable bool) func(any) (*routine, error) {
	mode := 0
	if enable {
		mode = 1
	}
	return func(params any) (*routine, error) {
		p, err := paramsAs[PINParams](params)
		if err != nil {
			return nil, err
		}
		if err := checkPIN(p.PIN); err != nil {
			return nil, err
		}
		return &routine{
			steps: seq(simReady(), cmd(fmt.Sprintf(`AT+CLCK="SC",%d,"%s"`, mode, p.PIN))),
		}, nil
	}
}

func buildPINStatus(any) (*routine, error) {
	return &routine{steps: query(at.CmdSimStatus, replySIM)}, nil
}
