package gsm

import (
	"strings"

	"i4.energy/across/gsmat/at"
)

// decode applies one token to the session. Reply flags and reply data are
// only recorded while a command owns the channel; notifications and state
// such as the SIM, registration and connection slots are tracked at any
// time.
func (s *Session) decode(tok at.Token) {
	switch tok.Type {
	case at.TypePrompt:
		s.respond(RespPrompt)
		return
	case at.TypeRaw:
		if s.active != CmdIdle {
			s.payload = append(s.payload, tok.Data...)
		}
		return
	}

	line := tok.Line
	if s.unsolicited(line) {
		return
	}
	if slot, status, ok := at.ConnLine(line); ok {
		s.connStatus(slot, status)
		return
	}
	if v, ok := value(line, at.RespSimStatus); ok {
		s.sim = parseSimState(v)
	}
	if v, ok := value(line, at.RespFunc); ok {
		s.fn = Func(atoi(v, int(s.fn)))
	}
	if s.active == CmdIdle {
		return
	}

	switch {
	case line == at.OK:
		s.resp |= RespOK
	case line == at.ERROR, strings.HasPrefix(line, at.CmeError), strings.HasPrefix(line, at.CmsError):
		s.fail(RespError, line)
	case line == at.NoCarrier:
		s.fail(RespNoCarrier, line)
	case line == at.Busy:
		s.fail(RespBusy, line)
	case line == at.NoDialtone:
		s.fail(RespNoDialtone, line)
	case line == at.NoAnswer:
		s.fail(RespNoAnswer, line)
	case line == at.ShutOK:
		s.resp |= RespShutOK
	case line == at.Download:
		s.resp |= RespDownload
	case line == at.CallReady:
		s.resp |= RespCallReady
	case line == at.SMSReady:
		s.resp |= RespSMSReady
	default:
		s.lines = append(s.lines, line)
		s.resp |= RespData
		s.info(line)
	}
}

func (s *Session) respond(f Responses) {
	if s.active != CmdIdle {
		s.resp |= f
	}
}

func (s *Session) fail(f Responses, line string) {
	s.final = line
	s.resp |= f
}

// unsolicited handles result codes the modem emits on its own. It reports
// whether line was consumed.
func (s *Session) unsolicited(line string) bool {
	switch line {
	case at.UrcCall:
		s.raise(Notification{Event: EventCallRing})
		return true
	case at.UrcUVWarning:
		s.raise(Notification{Event: EventUVWarning})
		return true
	case at.UrcUVPowerDown:
		s.raise(Notification{Event: EventUVPowerDown})
		return true
	case at.UrcPDPDeact:
		for i := range s.conns {
			s.conns[i].reset()
		}
		s.ip = ""
		s.raise(Notification{Event: EventGPRSDetached})
		return true
	}

	if v, ok := value(line, at.UrcNewMsg); ok {
		f := fields(v)
		n := Notification{Event: EventSMSReceived, Memory: f[0]}
		if len(f) > 1 {
			n.Index = atoi(f[1], 0)
		}
		s.raise(n)
		return true
	}
	if v, ok := value(line, at.UrcCallStatus); ok {
		ci, err := parseCallInfo(v)
		if err != nil {
			return true
		}
		s.call = ci
		s.raise(Notification{Event: EventCallCLCC, Call: ci})
		return true
	}
	if v, ok := value(line, at.RespRxGet+" 1,"); ok {
		slot := atoi(v, -1)
		if slot < 0 || slot >= MaxConns {
			return true
		}
		s.conns[slot].ReadAnnounced = true
		s.conns[slot].ReadNotified = false
		s.raise(Notification{Event: EventConnDataReceived, Slot: slot})
		return true
	}
	if slot, status, ok := at.ConnLine(line); ok && status == at.Closed {
		if slot < MaxConns {
			s.conns[slot].reset()
			s.conns[slot].ClosedByPeer = true
			s.raise(Notification{Event: EventConnClosed, Slot: slot})
		}
		return true
	}
	// +CREG is the reply of the registration query and otherwise a URC.
	if v, ok := value(line, at.UrcRegistration); ok && s.active != CmdNetworkStatus {
		// URC form: <stat>[,<lac>,<ci>]
		stat := NetworkStatus(atoi(fields(v)[0], int(NetworkUnknown)))
		s.network = stat
		s.raise(Notification{Event: EventNetworkChanged, Network: stat})
		return true
	}
	return false
}

// connStatus applies a "<n>, <status>" line.
func (s *Session) connStatus(slot int, status string) {
	if slot >= MaxConns {
		return
	}
	c := &s.conns[slot]
	var f Responses
	switch status {
	case at.ConnectOK:
		c.reset()
		c.Active = true
		f = RespConnectOK
	case at.AlreadyConnect:
		c.Active = true
		c.Unknown = false
		f = RespAlreadyConnect
	case at.ConnectFail:
		c.Active = false
		c.Unknown = false
		f = RespConnectFail
	case at.CloseOK:
		c.reset()
		f = RespCloseOK
	case at.SendOK:
		f = RespSendOK
	case at.SendFail:
		f = RespSendFail
	}
	if s.active == CmdIdle {
		return
	}
	s.connSlot = slot
	if f == RespConnectFail || f == RespSendFail {
		s.final = status
	}
	s.resp |= f
}

// info records data carried by information lines that routines wait on.
func (s *Session) info(line string) {
	switch {
	case strings.HasPrefix(line, at.UrcRegistration):
		// Query form: <n>,<stat>[,<lac>,<ci>]
		v, _ := value(line, at.UrcRegistration)
		f := fields(v)
		if len(f) >= 2 {
			s.network = NetworkStatus(atoi(f[1], int(NetworkUnknown)))
		} else {
			s.network = NetworkStatus(atoi(f[0], int(NetworkUnknown)))
		}
	case strings.HasPrefix(line, at.RespRxGet+" 2,"):
		// +CIPRXGET: 2,<id>,<got>,<left>
		v, _ := value(line, at.RespRxGet+" 2,")
		f := fields(v)
		if len(f) >= 3 {
			s.connSlot = atoi(f[0], 0)
			s.rxGot = atoi(f[1], 0)
			s.rxLeft = atoi(f[2], 0)
		}
	case strings.HasPrefix(line, at.RespHTTPAction):
		v, _ := value(line, at.RespHTTPAction)
		f := fields(v)
		if len(f) >= 3 {
			s.http = httpStatus{method: atoi(f[0], 0), code: atoi(f[1], 0), length: atoi(f[2], 0)}
			s.resp |= RespHTTPAction
		}
	case strings.HasPrefix(line, at.RespFTPGet+" 1,"):
		v, _ := value(line, at.RespFTPGet+" 1,")
		s.ftp.getCode = atoi(v, -1)
		if s.ftp.getCode == 0 {
			s.ftp.getDone = true
		}
		s.resp |= RespFTPGet
	case strings.HasPrefix(line, at.RespFTPPut+" 1,"):
		// +FTPPUT: 1,<code>[,<maxlength>]
		v, _ := value(line, at.RespFTPPut+" 1,")
		f := fields(v)
		s.ftp.putCode = atoi(f[0], -1)
		if len(f) > 1 {
			s.ftp.putMax = atoi(f[1], 0)
		}
		s.resp |= RespFTPPut
	case strings.HasPrefix(line, at.RespFTPPut+" 2,"):
		v, _ := value(line, at.RespFTPPut+" 2,")
		s.ftp.putReady = atoi(v, 0)
		s.resp |= RespFTPUploadReady
	}
}
