package gsm

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		id     CommandID
		params any
	}{
		{"wrong params type", CmdSMSSend, DialParams{Number: "1"}},
		{"nil params pointer", CmdSMSSend, (*SMSParams)(nil)},
		{"number with letters", CmdCallVoice, DialParams{Number: "12ab"}},
		{"number too long", CmdCallVoice, DialParams{Number: strings.Repeat("1", 21)}},
		{"short PIN", CmdPIN, PINParams{PIN: "123"}},
		{"PUK of 7 digits", CmdPUK, PUKParams{PUK: "1234567", PIN: "1234"}},
		{"empty SMS", CmdSMSSend, SMSParams{Number: "123"}},
		{"SMS too long", CmdSMSSend, SMSParams{Number: "123", Text: strings.Repeat("a", 161)}},
		{"SMS not GSM 7-bit", CmdSMSSend, SMSParams{Number: "123", Text: "日本"}},
		{"SMS index 0", CmdSMSRead, IndexParams{Index: 0}},
		{"slot out of range", CmdConnClose, SlotParams{Slot: MaxConns}},
		{"negative slot", CmdConnRead, ConnReadParams{Slot: -1, Max: 10}},
		{"read size 0", CmdConnRead, ConnReadParams{Slot: 0, Max: 0}},
		{"empty payload", CmdConnSend, ConnSendParams{Slot: 0}},
		{"payload too large", CmdConnSend, ConnSendParams{Slot: 0, Data: make([]byte, MaxConnPayload+1)}},
		{"port 0", CmdConnStart, ConnParams{Slot: 0, Protocol: TCP, Host: "h", Port: 0}},
		{"unknown protocol", CmdConnStart, ConnParams{Slot: 0, Protocol: "SCTP", Host: "h", Port: 1}},
		{"ftp URL", CmdHTTPExecute, HTTPParams{URL: "ftp://example.com"}},
		{"quote in URL", CmdHTTPExecute, HTTPParams{URL: `http://example.com/"`}},
		{"GET with body", CmdHTTPExecute, HTTPParams{URL: "http://example.com", Body: []byte("x")}},
		{"FTP without server", CmdFTPDownload, FTPParams{Name: "f"}},
		{"FTP without name", CmdFTPUpload, FTPParams{Server: "s"}},
		{"phonebook index 0", CmdPBGet, IndexParams{}},
		{"inverted range", CmdPBList, RangeParams{From: 5, To: 1}},
		{"manual operator without name", CmdOperatorSet, OperatorParams{Mode: OperatorManual}},
		{"missing APN", CmdGPRSAttach, AttachParams{}},
		{"bad functionality", CmdFuncSet, FuncParams{Func: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t).ready()
			err := h.e.Begin(tt.id, tt.params, nil)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if len(h.w.writes) != 0 || !h.e.s.IsIdle() {
				t.Errorf("validation failure had side effects: %q", h.w.writes)
			}
		})
	}
}

func TestSMSRead(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdSMSRead, IndexParams{Index: 2})
	h.exchange("AT+CMGF=1\r", "OK")
	h.exchange("AT+CMGR=2\r",
		`+CMGR: "REC UNREAD","+4915112345","","24/01/02,10:20:30+04"`,
		"first line",
		"second line",
		"OK",
	)

	r.check(t, nil)
	m := r.reply.(Message)
	if m.Index != 2 || m.Status != "REC UNREAD" || m.Number != "+4915112345" {
		t.Errorf("header: %+v", m)
	}
	if m.Text != "first line\nsecond line" {
		t.Errorf("text: %q", m.Text)
	}
	want := time.Date(2024, 1, 2, 9, 20, 30, 0, time.UTC)
	if !m.Time.Equal(want) {
		t.Errorf("time: got %s, want %s", m.Time, want)
	}
}

func TestSMSReadEmpty(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdSMSRead, IndexParams{Index: 9})
	h.exchange("AT+CMGF=1\r", "OK")
	h.exchange("AT+CMGR=9\r", "OK")
	r.check(t, ErrNotFound)
}

func TestSMSList(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdSMSList, ListParams{Filter: ListUnread})
	h.exchange("AT+CMGF=1\r", "OK")
	h.exchange(`AT+CMGL="REC UNREAD"`+"\r",
		`+CMGL: 1,"REC UNREAD","+111","","24/01/02,10:20:30+00"`,
		"one",
		`+CMGL: 3,"REC UNREAD","+333","","24/01/03,11:00:00+00"`,
		"three",
		"OK",
	)
	r.check(t, nil)
	msgs := r.reply.([]Message)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %+v", msgs)
	}
	if msgs[0].Index != 1 || msgs[0].Text != "one" || msgs[1].Index != 3 || msgs[1].Number != "+333" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestPINEntry(t *testing.T) {
	h := newHarness(t)
	r := h.begin(CmdPIN, PINParams{PIN: "1234"})
	h.exchange(`AT+CPIN="1234"`+"\r", "OK")
	h.exchange("AT+CPIN?\r", "+CPIN: READY", "OK")

	r.check(t, nil)
	if r.reply != SimReady {
		t.Errorf("reply: %v", r.reply)
	}
}

func TestPINRejected(t *testing.T) {
	h := newHarness(t)
	r := h.begin(CmdPIN, PINParams{PIN: "0000"})
	h.exchange(`AT+CPIN="0000"`+"\r", "+CME ERROR: 16")

	r.check(t, ErrModem)
	if !strings.Contains(r.err.Error(), "+CME ERROR: 16") {
		t.Errorf("error lost the modem line: %v", r.err)
	}
	h.noMoreWrites()
}

func TestInfoCommands(t *testing.T) {
	tests := []struct {
		name  string
		id    CommandID
		write string
		reply []string
		want  any
	}{
		{"model", CmdInfoModel, "AT+CGMM\r", []string{"SIMCOM_SIM800L", "OK"}, "SIMCOM_SIM800L"},
		{"serial", CmdInfoSerial, "AT+CGSN\r", []string{"861234567890123", "OK"}, "861234567890123"},
		{"own number", CmdInfoNumber, "AT+CNUM\r", []string{`+CNUM: "","+4915112345",145,7,4`, "OK"}, "+4915112345"},
		{"battery", CmdInfoBattery, "AT+CBC\r", []string{"+CBC: 0,81,4012", "OK"}, Battery{Percent: 81, MilliVolts: 4012}},
		{"signal", CmdInfoSignal, "AT+CSQ\r", []string{"+CSQ: 17,0", "OK"}, Signal{RSSI: 17}},
		{"functionality", CmdFuncGet, "AT+CFUN?\r", []string{"+CFUN: 1", "OK"}, FuncFull},
		{"SIM status", CmdPINStatus, "AT+CPIN?\r", []string{"+CPIN: SIM PUK", "OK"}, SimWaitingPUK},
		{
			"clock", CmdDateTimeGet, "AT+CCLK?\r", []string{`+CCLK: "24/06/30,23:59:58+08"`, "OK"},
			time.Date(2024, 6, 30, 23, 59, 58, 0, time.FixedZone("", 2*3600)),
		},
		{
			"operator", CmdOperatorRead, "AT+COPS?\r", []string{`+COPS: 0,0,"Telekom.de"`, "OK"},
			Operator{Status: OperatorCurrent, Long: "Telekom.de"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t).ready()
			r := h.begin(tt.id, nil)
			h.exchange(tt.write, tt.reply...)

			r.check(t, nil)
			if ts, ok := tt.want.(time.Time); ok {
				if got, _ := r.reply.(time.Time); !got.Equal(ts) {
					t.Errorf("got %v, want %v", r.reply, tt.want)
				}
				return
			}
			if r.reply != tt.want {
				t.Errorf("got %#v, want %#v", r.reply, tt.want)
			}
		})
	}
}

func TestOperatorScan(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdOperatorScan, nil)
	h.exchange("AT+COPS=?\r",
		`+COPS: (2,"Telekom.de","TDG","26201"),(3,"Vodafone.de","Vodafone","26202"),,(0,1,2,3,4),(0,1,2)`,
		"OK",
	)
	r.check(t, nil)
	ops := r.reply.([]Operator)
	if len(ops) != 2 {
		t.Fatalf("expected 2 operators, got %+v", ops)
	}
	if ops[0].Status != OperatorCurrent || ops[0].Numeric != "26201" || ops[1].Status != OperatorForbidden {
		t.Errorf("unexpected operators: %+v", ops)
	}
}

func TestPhonebook(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdPBAdd, PhonebookParams{Number: "+4915112345", Name: "Office"})
	h.exchange(`AT+CPBW=,"+4915112345",145,"Office"`+"\r", "OK")
	r.check(t, nil)

	r = h.begin(CmdPBList, RangeParams{From: 1, To: 3})
	h.exchange("AT+CPBR=1,3\r",
		`+CPBR: 1,"+4915112345",145,"Office"`,
		`+CPBR: 3,"0301234",129,"Home"`,
		"OK",
	)
	r.check(t, nil)
	entries := r.reply.([]PhonebookEntry)
	if len(entries) != 2 || entries[1] != (PhonebookEntry{Index: 3, Number: "0301234", Type: 129, Name: "Home"}) {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestAttach(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdGPRSAttach, AttachParams{APN: "internet"})
	h.exchange("AT+CIPSHUT\r", "SHUT OK")
	h.exchange("AT+CGATT=1\r", "OK")
	h.exchange(`AT+SAPBR=3,1,"Contype","GPRS"`+"\r", "OK")
	h.exchange(`AT+SAPBR=3,1,"APN","internet"`+"\r", "OK")
	h.exchange("AT+SAPBR=1,1\r", "OK")
	h.exchange("AT+CIPMUX=1\r", "OK")
	h.exchange("AT+CIPRXGET=1\r", "OK")
	h.exchange(`AT+CSTT="internet","",""`+"\r", "OK")
	h.exchange("AT+CIICR\r", "OK")
	h.exchange("AT+CIFSR\r", "10.64.12.7")

	r.check(t, nil)
	if r.reply != "10.64.12.7" || h.e.s.IP() != "10.64.12.7" {
		t.Errorf("IP: reply %v, session %s", r.reply, h.e.s.IP())
	}
	if len(h.events) != 1 || h.events[0].Event != EventGPRSAttached {
		t.Errorf("expected GPRSAttached, got %v", h.events)
	}
}

func TestAttachFailure(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdGPRSAttach, AttachParams{APN: "internet"})
	h.exchange("AT+CIPSHUT\r", "SHUT OK")
	h.exchange("AT+CGATT=1\r", "ERROR")

	r.check(t, ErrModem)
	if len(h.events) != 1 || h.events[0].Event != EventGPRSAttachError {
		t.Errorf("expected GPRSAttachError, got %v", h.events)
	}
}

func TestConnSendAndRead(t *testing.T) {
	h := newHarness(t).ready()
	h.e.s.conns[0].Active = true

	r := h.begin(CmdConnSend, ConnSendParams{Slot: 0, Data: []byte("ping")})
	h.exchange("AT+CIPSEND=0,4\r", "> ")
	h.exchange("ping", "0, SEND OK")
	r.check(t, nil)
	if r.reply != 4 {
		t.Errorf("sent: %v", r.reply)
	}

	h.feed("+CIPRXGET: 1,0")
	if len(h.events) != 1 || h.events[0].Event != EventConnDataReceived {
		t.Fatalf("expected data announcement, got %v", h.events)
	}

	r = h.begin(CmdConnRead, ConnReadParams{Slot: 0, Max: 3})
	h.exchange("AT+CIPRXGET=2,0,3\r", "+CIPRXGET: 2,0,3,1")
	h.raw("pon")
	h.feed("OK")
	r.check(t, nil)
	if string(r.reply.([]byte)) != "pon" {
		t.Errorf("read: %q", r.reply)
	}
	if c := h.e.s.Conn(0); !c.ReadAnnounced || c.Remaining != 1 || c.TotalRead != 3 {
		t.Errorf("slot after partial read: %+v", c)
	}

	r = h.begin(CmdConnRead, ConnReadParams{Slot: 0, Max: 3})
	h.exchange("AT+CIPRXGET=2,0,3\r", "+CIPRXGET: 2,0,1,0")
	h.raw("g")
	h.feed("OK")
	r.check(t, nil)
	if c := h.e.s.Conn(0); c.ReadAnnounced || c.ReadNotified || c.TotalRead != 4 {
		t.Errorf("slot after drain: %+v", c)
	}
}

func TestConnSendFail(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdConnSend, ConnSendParams{Slot: 5, Data: []byte("x")})
	h.exchange("AT+CIPSEND=5,1\r", "> ")
	h.exchange("x", "5, SEND FAIL")
	r.check(t, ErrModem)
}

func TestConnStartTimeout(t *testing.T) {
	h := newHarness(t, WithTickPeriod(time.Second), WithTimeout(CmdConnStart, 2*time.Second)).ready()
	r := h.begin(CmdConnStart, ConnParams{Slot: 3, Protocol: UDP, Host: "10.0.0.1", Port: 5000})
	h.exchange(`AT+CIPSTART=3,"UDP","10.0.0.1",5000`+"\r", "OK")
	for range 3 {
		h.e.Tick()
	}
	r.check(t, ErrTimeout)
	if c := h.e.s.Conn(3); c.Active || !c.Unknown {
		t.Errorf("slot after timeout: %+v", c)
	}

	// A late CONNECT OK settles the slot.
	h.feed("3, CONNECT OK")
	if c := h.e.s.Conn(3); !c.Active || c.Unknown {
		t.Errorf("slot after late connect: %+v", c)
	}
}

func TestConnStartIgnoresOtherSlots(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdConnStart, ConnParams{Slot: 2, Protocol: TCP, Host: "example.com", Port: 80})
	h.exchange(`AT+CIPSTART=2,"TCP","example.com",80`+"\r", "OK", "0, CONNECT FAIL", "4, CONNECT OK")
	if r.called != 0 {
		t.Fatalf("completed on another slot's status: %v", r.err)
	}
	h.feed("2, CONNECT OK")
	r.check(t, nil)
	if c := h.e.s.Conn(2); !c.Active {
		t.Errorf("slot 2 not active: %+v", c)
	}
	if c := h.e.s.Conn(4); !c.Active {
		t.Errorf("slot 4 status not tracked: %+v", c)
	}
	h.noMoreWrites()
}

func TestConnClose(t *testing.T) {
	h := newHarness(t).ready()
	h.e.s.conns[2].Active = true
	r := h.begin(CmdConnClose, SlotParams{Slot: 2})
	h.exchange("AT+CIPCLOSE=2\r", "2, CLOSE OK")
	r.check(t, nil)
	if c := h.e.s.Conn(2); c.Active || c.ClosedByPeer {
		t.Errorf("slot after close: %+v", c)
	}
}

func TestFTPDownload(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdFTPDownload, FTPParams{Server: "ftp.example.com", User: "u", Password: "p", Path: "/pub", Name: "a.txt"})
	h.exchange("AT+FTPCID=1\r", "OK")
	h.exchange(`AT+FTPSERV="ftp.example.com"`+"\r", "OK")
	h.exchange("AT+FTPPORT=21\r", "OK")
	h.exchange(`AT+FTPUN="u"`+"\r", "OK")
	h.exchange(`AT+FTPPW="p"`+"\r", "OK")
	h.exchange("AT+FTPMODE=0\r", "OK")
	h.exchange(`AT+FTPGETPATH="/pub/"`+"\r", "OK")
	h.exchange(`AT+FTPGETNAME="a.txt"`+"\r", "OK")
	h.exchange("AT+FTPGET=1\r", "OK", "+FTPGET: 1,1")

	h.exchange("AT+FTPGET=2,1024\r", "+FTPGET: 2,5")
	h.raw("hello")
	h.feed("OK")
	h.exchange("AT+FTPGET=2,1024\r", "+FTPGET: 2,0", "OK")
	// Drained; the modem reports more data later.
	h.feed("+FTPGET: 1,1")
	h.exchange("AT+FTPGET=2,1024\r", "+FTPGET: 2,6")
	h.raw(" world")
	h.feed("OK", "+FTPGET: 1,0")
	h.exchange("AT+FTPGET=2,1024\r", "+FTPGET: 2,0", "OK")

	r.check(t, nil)
	if got := string(r.reply.([]byte)); got != "hello world" {
		t.Errorf("content: %q", got)
	}
	h.noMoreWrites()
}

func TestFTPUpload(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdFTPUpload, FTPParams{Server: "s", Port: 2121, Passive: true, Name: "b.bin", Data: []byte("abcdef")})
	h.exchange("AT+FTPCID=1\r", "OK")
	h.exchange(`AT+FTPSERV="s"`+"\r", "OK")
	h.exchange("AT+FTPPORT=2121\r", "OK")
	h.exchange(`AT+FTPUN=""`+"\r", "OK")
	h.exchange(`AT+FTPPW=""`+"\r", "OK")
	h.exchange("AT+FTPMODE=1\r", "OK")
	h.exchange(`AT+FTPPUTPATH="/"`+"\r", "OK")
	h.exchange(`AT+FTPPUTNAME="b.bin"`+"\r", "OK")
	h.exchange("AT+FTPPUT=1\r", "OK", "+FTPPUT: 1,1,4")
	h.exchange("AT+FTPPUT=2,4\r", "+FTPPUT: 2,4")
	h.exchange("abcd", "OK", "+FTPPUT: 1,1,4")
	h.exchange("AT+FTPPUT=2,2\r", "+FTPPUT: 2,2")
	h.exchange("ef", "OK", "+FTPPUT: 1,1,4")
	h.exchange("AT+FTPPUT=2,0\r", "OK", "+FTPPUT: 1,0")

	r.check(t, nil)
	h.noMoreWrites()
}

func TestFuncSetForgetsRegistration(t *testing.T) {
	h := newHarness(t).ready()
	r := h.begin(CmdFuncSet, FuncParams{Func: FuncMin})
	h.exchange("AT+CFUN=0\r", "OK")
	r.check(t, nil)
	if h.e.s.Network() != NetworkUnknown || h.e.s.SIM() != SimUnknown {
		t.Errorf("state kept after radio off: %s %s", h.e.s.Network(), h.e.s.SIM())
	}
}
