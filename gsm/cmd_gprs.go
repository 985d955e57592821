package gsm

import (
	"fmt"
	"net"

	"i4.energy/across/gsmat/at"
)

// shut closes every connection and the PDP context.
func shut() []step {
	return []step{
		func(t *task) next { return t.exec("AT+CIPSHUT", RespShutOK|RespError) },
		checkOK,
		func(t *task) next {
			for i := range t.s.conns {
				t.s.conns[i].reset()
			}
			t.s.ip = ""
			return proceed()
		},
	}
}

func buildAttach(params any) (*routine, error) {
	p, err := paramsAs[AttachParams](params)
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
			shut(),
			cmd("AT+CGATT=1"),
			// Bearer profile 1 serves HTTP and FTP.
			cmd(`AT+SAPBR=3,1,"Contype","GPRS"`),
			cmd(fmt.Sprintf(`AT+SAPBR=3,1,"APN","%s"`, p.APN)),
			only(p.User != "", cmd(fmt.Sprintf(`AT+SAPBR=3,1,"USER","%s"`, p.User))...),
			only(p.Password != "", cmd(fmt.Sprintf(`AT+SAPBR=3,1,"PWD","%s"`, p.Password))...),
			cmd("AT+SAPBR=1,1"),
			// The TCP/IP stack serves the connection slots.
			cmd("AT+CIPMUX=1"),
			cmd("AT+CIPRXGET=1"),
			cmd(fmt.Sprintf(`AT+CSTT="%s","%s","%s"`, p.APN, p.User, p.Password)),
			cmd("AT+CIICR"),
			[]step{
				func(t *task) next { return t.exec("AT+CIFSR", RespData|RespError) },
				func(t *task) next {
					if err := t.modemErr(); err != nil {
						return finish(err)
					}
					ip := t.s.lines[len(t.s.lines)-1]
					if net.ParseIP(ip) == nil {
						return finish(&ModemError{Command: t.id, Line: ip})
					}
					t.s.ip = ip
					t.reply = ip
					return proceed()
				},
			},
		),
		after: func(s *Session, err error) {
			if err != nil {
				s.raise(Notification{Event: EventGPRSAttachError, Err: err})
				return
			}
			s.raise(Notification{Event: EventGPRSAttached})
		},
	}, nil
}

func buildDetach(any) (*routine, error) {
	return &routine{
		steps: seq(
			shut(),
			// The bearer may already be closed.
			try("AT+SAPBR=0,1"),
			cmd("AT+CGATT=0"),
		),
	}, nil
}

func buildNetworkStatus(any) (*routine, error) {
	return &routine{
		steps: query(at.CmdRegistration, func(t *task) error {
			if _, ok := t.line(at.UrcRegistration); !ok {
				return fmt.Errorf("%w: no %s line", ErrModem, at.UrcRegistration)
			}
			t.reply = t.s.network
			return nil
		}),
	}, nil
}
