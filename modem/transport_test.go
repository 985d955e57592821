package modem

import (
	"context"
	"errors"
	"testing"

	"go.bug.st/serial"
	"go.uber.org/mock/gomock"
)

func TestSerialDialer(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		dialer  SerialDialer
		ctx     context.Context
		wantErr error
		wantMsg string
	}{
		{
			name:    "empty port name",
			dialer:  SerialDialer{},
			ctx:     context.Background(),
			wantMsg: "gsm: serial port name is required",
		},
		{
			name:    "nil context",
			dialer:  SerialDialer{PortName: "/dev/ttyUSB0"},
			ctx:     nil,
			wantMsg: "gsm: context is nil",
		},
		{
			name:    "canceled context",
			dialer:  SerialDialer{PortName: "/dev/nonexistent"},
			ctx:     canceled,
			wantErr: context.Canceled,
		},
		{
			name: "explicit mode on a missing port",
			dialer: SerialDialer{
				PortName: "/dev/nonexistent",
				Mode: &serial.Mode{
					BaudRate: 9600,
					Parity:   serial.NoParity,
					DataBits: 8,
					StopBits: serial.OneStopBit,
				},
			},
			ctx: context.Background(),
		},
		{
			name:   "default mode on a missing port",
			dialer: SerialDialer{PortName: "/dev/nonexistent"},
			ctx:    context.Background(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := tt.dialer.Dial(tt.ctx)
			if err == nil {
				t.Fatal("expected error")
			}
			if transport != nil {
				t.Error("expected nil transport")
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Errorf("expected %v, got: %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("unexpected error message: %v", err)
			}
		})
	}
}

func TestDefaultSerialMode(t *testing.T) {
	if DefaultSerialMode.BaudRate != 115200 || DefaultSerialMode.DataBits != 8 {
		t.Errorf("unexpected default mode: %+v", DefaultSerialMode)
	}
}

// Test the interface compliance
func TestTransportInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := NewMockTransport(ctrl)
	var _ Transport = mockTransport
	var _ Transport = NewTestTransport()

	data := []byte("AT\r")
	mockTransport.EXPECT().Write(data).Return(len(data), nil)
	mockTransport.EXPECT().Close().Return(nil)

	n, err := mockTransport.Write(data)
	if err != nil {
		t.Errorf("unexpected write error: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected %d bytes written, got %d", len(data), n)
	}
	if err := mockTransport.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestDialerInterface_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDialer := NewMockDialer(ctrl)
	var _ Dialer = mockDialer
	var _ Dialer = SerialDialer{}
	dialError := errors.New("dial failed")

	ctx := context.Background()
	mockDialer.EXPECT().Dial(ctx).Return(nil, dialError)

	transport, err := mockDialer.Dial(ctx)
	if err != dialError {
		t.Errorf("expected dial error, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport on error")
	}
}

func TestTestTransportScript(t *testing.T) {
	tr := NewTestTransport()
	tr.On("AT+CSQ", "+CSQ: 10,0\r\n\r\nOK\r\n")

	if _, err := tr.Write([]byte("AT+CSQ\r")); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Write([]byte("AT+CSQ\r")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	var got []byte
	for len(got) < len("+CSQ: 10,0\r\n\r\nOK\r\nOK\r\n") {
		n, err := tr.Read(buf)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "+CSQ: 10,0\r\n\r\nOK\r\nOK\r\n" {
		t.Errorf("read %q", got)
	}
	tr.Close()
	if _, err := tr.Write([]byte("AT\r")); err == nil {
		t.Error("write after close must fail")
	}
}
