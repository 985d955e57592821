package modem_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"i4.energy/across/gsmat/gsm"
	"i4.energy/across/gsmat/modem"
)

func TestSendSMS(t *testing.T) {
	// SendSMS must follow the text mode protocol strictly:
	//
	//  1. Write: AT+CREG?             (registration unknown after start-up)
	//  2. Write: AT+CMGF=1
	//  3. Write: AT+CMGS="+1234567890"
	//  4. Read:  "> "                 (wait for prompt)
	//  5. Write: "Hello World\x1a"    (only after receiving prompt)
	//  6. Read:  "+CMGS: 42\r\nOK\r\n"
	//
	// Writing the message body before receiving the prompt fails with real
	// modem hardware.
	t.Run("Success", func(t *testing.T) {
		tr := modem.NewTestTransport()
		tr.On("AT+CREG?", "+CREG: 0,1\r\n\r\nOK\r\n").
			On(`AT+CMGS="+1234567890"`, "> ").
			On("Hello World\x1a", "\r\n+CMGS: 42\r\n\r\nOK\r\n")
		m := newTestModem(t, tr)

		ref, err := m.SendSMS(context.Background(), "+1234567890", "Hello World")
		if err != nil {
			t.Fatalf("SendSMS() error: %v", err)
		}
		if ref != 42 {
			t.Errorf("message reference = %d, want 42", ref)
		}

		written := tr.Written()
		i := slices.Index(written, "AT+CREG?")
		if i < 0 {
			t.Fatalf("registration not checked: %q", written)
		}
		want := []string{"AT+CREG?", "AT+CMGF=1", `AT+CMGS="+1234567890"`, "Hello World\x1a"}
		if got := written[i : i+len(want)]; !slices.Equal(got, want) {
			t.Errorf("writes = %q, want %q", got, want)
		}
	})

	t.Run("Registration is checked once", func(t *testing.T) {
		tr := modem.NewTestTransport()
		tr.On("AT+CREG?", "+CREG: 0,5\r\n\r\nOK\r\n").
			On(`AT+CMGS="+1234567890"`, "> ").
			On(`AT+CMGS="+1234567890"`, "> ").
			On("one\x1a", "+CMGS: 1\r\n\r\nOK\r\n").
			On("two\x1a", "+CMGS: 2\r\n\r\nOK\r\n")
		m := newTestModem(t, tr)

		for _, text := range []string{"one", "two"} {
			if _, err := m.SendSMS(context.Background(), "+1234567890", text); err != nil {
				t.Fatalf("SendSMS(%q) error: %v", text, err)
			}
		}
		n := 0
		for _, w := range tr.Written() {
			if w == "AT+CREG?" {
				n++
			}
		}
		if n != 1 {
			t.Errorf("AT+CREG? sent %d times, want 1", n)
		}
	})

	t.Run("Not registered", func(t *testing.T) {
		tr := modem.NewTestTransport()
		tr.On("AT+CREG?", "+CREG: 0,2\r\n\r\nOK\r\n")
		m := newTestModem(t, tr)

		_, err := m.SendSMS(context.Background(), "+1234567890", "Hello")
		if !errors.Is(err, gsm.ErrNetworkSearching) {
			t.Errorf("expected ErrNetworkSearching, got: %v", err)
		}
		if slices.Contains(tr.Written(), `AT+CMGS="+1234567890"`) {
			t.Error("message sent while searching")
		}
	})

	t.Run("Modem rejects the message", func(t *testing.T) {
		tr := modem.NewTestTransport()
		tr.On("AT+CREG?", "+CREG: 0,1\r\n\r\nOK\r\n").
			On(`AT+CMGS="+1234567890"`, "> ").
			On("Hello\x1a", "+CMS ERROR: 500\r\n")
		m := newTestModem(t, tr)

		_, err := m.SendSMS(context.Background(), "+1234567890", "Hello")
		var me *gsm.ModemError
		if !errors.As(err, &me) {
			t.Fatalf("expected ModemError, got: %v", err)
		}
		if me.Line != "+CMS ERROR: 500" {
			t.Errorf("line = %q", me.Line)
		}
	})

	t.Run("Invalid messages", func(t *testing.T) {
		tests := []struct {
			name   string
			number string
			text   string
		}{
			{"empty", "+1234567890", ""},
			{"too long", "+1234567890", strings.Repeat("a", 161)},
			{"not GSM 7-bit", "+1234567890", "Привет"},
			{"bad number", "123\"", "Hello"},
		}
		tr := modem.NewTestTransport()
		m := newTestModem(t, tr)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := m.SendSMS(context.Background(), tt.number, tt.text)
				if !errors.Is(err, gsm.ErrInvalidParameter) {
					t.Errorf("expected ErrInvalidParameter, got: %v", err)
				}
			})
		}
		for _, w := range tr.Written() {
			if strings.HasPrefix(w, "AT+CMGS") {
				t.Errorf("unexpected write %q", w)
			}
		}
	})
}

func TestReadSMS(t *testing.T) {
	tr := modem.NewTestTransport()
	tr.On("AT+CMGR=1", "+CMGR: \"REC UNREAD\",\"+31628870634\",,\"11/01/09,10:26:26+04\"\r\nThis is text message 1\r\n\r\nOK\r\n").
		On("AT+CMGR=2", "OK\r\n")
	m := newTestModem(t, tr)

	msg, err := m.ReadSMS(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Index != 1 || msg.Status != "REC UNREAD" || msg.Number != "+31628870634" || msg.Text != "This is text message 1" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if want := time.Date(2011, 1, 9, 9, 26, 26, 0, time.UTC); !msg.Time.Equal(want) {
		t.Errorf("time = %s, want %s", msg.Time, want)
	}

	if _, err := m.ReadSMS(context.Background(), 2); !errors.Is(err, gsm.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestListSMS(t *testing.T) {
	tr := modem.NewTestTransport()
	tr.On(`AT+CMGL="ALL"`, "+CMGL: 1,\"REC READ\",\"+111\",,\"24/01/02,10:20:30+00\"\r\nfirst\r\n"+
		"+CMGL: 4,\"STO UNSENT\",\"+222\",,\r\nsecond\r\n\r\nOK\r\n")
	m := newTestModem(t, tr)

	msgs, err := m.ListSMS(context.Background(), gsm.ListAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Index != 1 || msgs[0].Text != "first" || msgs[1].Index != 4 || msgs[1].Text != "second" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}
