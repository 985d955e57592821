package gsm

import (
	"fmt"
	"strings"
)

// buildDial places a voice call or a data call. A voice dial string ends
// with a semicolon and completes on OK; a data call completes on CONNECT.
func buildDial(voice bool) func(any) (*routine, error) {
	return func(params any) (*routine, error) {
		p, err := paramsAs[DialParams](params)
		if err != nil {
			return nil, err
		}
		if err := checkNumber(p.Number); err != nil {
			return nil, err
		}
		if voice {
			return &routine{steps: seq(simReady(), dial("ATD"+p.Number+";", RespOK))}, nil
		}
		return &routine{
			steps: seq(simReady(), networkRegistered(), dial("ATD"+p.Number, RespOK|RespData)),
		}, nil
	}
}

func buildDialSIMPos(params any) (*routine, error) {
	i, err := checkIndex(params)
	if err != nil {
		return nil, err
	}
	return &routine{steps: seq(simReady(), dial(fmt.Sprintf("ATD>SM%d;", i), RespOK))}, nil
}

func buildAnswer(any) (*routine, error) {
	return &routine{steps: seq(simReady(), dial("ATA", RespOK|RespData))}, nil
}

// dial sends line and waits for success or one of the call failure codes.
func dial(line string, success Responses) []step {
	return []step{
		func(t *task) next { return t.exec(line, success|RespError|respDialFailed) },
		func(t *task) next {
			if err := t.modemErr(); err != nil {
				return finish(err)
			}
			if t.s.resp.Has(RespData) && !t.s.resp.Has(RespOK) {
				// Only CONNECT completes a data call.
				if !strings.HasPrefix(t.s.lines[len(t.s.lines)-1], "CONNECT") {
					t.s.resp &^= RespData
					return waitJump(success|RespError|respDialFailed, 0)
				}
			}
			return proceed()
		},
	}
}
