package gsm

import (
	"fmt"
	"strings"

	"i4.energy/across/gsmat/at"
)

// buildInfo returns the text of a product identification command.
func buildInfo(line string, needSIM bool) func(any) (*routine, error) {
	return func(any) (*routine, error) {
		return &routine{
			steps: seq(
				only(needSIM, simReady()...),
				query(line, func(t *task) error {
					if len(t.s.lines) == 0 {
						return fmt.Errorf("%w: empty reply", ErrModem)
					}
					t.reply = strings.Join(t.s.lines, "\n")
					return nil
				}),
			),
		}, nil
	}
}

func buildOwnNumber(any) (*routine, error) {
	return &routine{
		steps: seq(
			simReady(),
			query("AT+CNUM", func(t *task) error {
				// +CNUM: [<alpha>],<number>,<type>
				v, ok := t.line(at.RespNumber)
				if !ok {
					return fmt.Errorf("%w: no subscriber number", ErrNotFound)
				}
				f := fields(v)
				if len(f) < 2 {
					return fmt.Errorf("%w: %q", ErrModem, v)
				}
				t.reply = f[1]
				return nil
			}),
		),
	}, nil
}

func buildBattery(any) (*routine, error) {
	return &routine{
		steps: query("AT+CBC", func(t *task) error {
			// +CBC: <bcs>,<bcl>,<voltage>
			v, _ := t.line(at.RespBattery)
			n, err := ints(v, 3)
			if err != nil {
				return err
			}
			t.reply = Battery{Charging: n[0] == 1, Percent: n[1], MilliVolts: n[2]}
			return nil
		}),
	}, nil
}

func buildSignal(any) (*routine, error) {
	return &routine{
		steps: query("AT+CSQ", func(t *task) error {
			v, _ := t.line(at.UrcSignalStrength)
			n, err := ints(v, 2)
			if err != nil {
				return err
			}
			t.reply = Signal{RSSI: n[0], BER: n[1]}
			return nil
		}),
	}, nil
}

func buildClock(any) (*routine, error) {
	return &routine{
		steps: query("AT+CCLK?", func(t *task) error {
			v, ok := t.line(at.RespClock)
			if !ok {
				return fmt.Errorf("%w: no %s line", ErrModem, at.RespClock)
			}
			ts, err := parseClock(v)
			if err != nil {
				return err
			}
			t.reply = ts
			return nil
		}),
	}, nil
}
