package modem_test

import (
	"io"
	"sync"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/gsmat/modem"
)

// MockSequenceBuilder scripts a MockTransport as a modem. Every expected
// write queues its reply for the transport's reads; reads block until a
// reply is queued or the line is disconnected, because the modem reads its
// transport from a background goroutine.
type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any

	replies chan string
	closed  chan struct{}
	once    sync.Once
	err     error
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	b := &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
		replies:   make(chan string, 16),
		closed:    make(chan struct{}),
	}
	transport.EXPECT().Read(gomock.Any()).DoAndReturn(b.read).AnyTimes()
	return b
}

func (b *MockSequenceBuilder) read(p []byte) (int, error) {
	select {
	case resp := <-b.replies:
		return copy(p, resp), nil
	case <-b.closed:
		return 0, b.err
	}
}

// Disconnect makes every pending and future read fail with err.
func (b *MockSequenceBuilder) Disconnect(err error) {
	b.once.Do(func() {
		b.err = err
		close(b.closed)
	})
}

// Unsolicited queues output the modem sends on its own.
func (b *MockSequenceBuilder) Unsolicited(data string) {
	b.replies <- data
}

// Expect adds a write of cmd answered with resp.
func (b *MockSequenceBuilder) Expect(cmd, resp string) *MockSequenceBuilder {
	wire := []byte(cmd + "\r")
	b.calls = append(b.calls,
		b.transport.EXPECT().Write(wire).DoAndReturn(func(p []byte) (int, error) {
			b.replies <- resp
			return len(p), nil
		}),
	)
	return b
}

// WriteError adds a write of cmd failing with err.
func (b *MockSequenceBuilder) WriteError(cmd string, err error) *MockSequenceBuilder {
	b.calls = append(b.calls, b.transport.EXPECT().Write([]byte(cmd+"\r")).Return(0, err))
	return b
}

// Close adds the transport close; it disconnects pending reads.
func (b *MockSequenceBuilder) Close(err error) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Close().DoAndReturn(func() error {
			b.Disconnect(io.EOF)
			return err
		}),
	)
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Expect("AT", "AT\r\nOK\r\n")
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.Expect("ATE0", "ATE0\r\nOK\r\n")
}

func (b *MockSequenceBuilder) ErrorNumeric() *MockSequenceBuilder {
	return b.Expect("AT+CMEE=1", "OK\r\n")
}

func (b *MockSequenceBuilder) SimPinRequired() *MockSequenceBuilder {
	return b.Expect("AT+CPIN?", "+CPIN: SIM PIN\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SimReady() *MockSequenceBuilder {
	return b.Expect("AT+CPIN?", "+CPIN: READY\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) EnterPIN(pin string) *MockSequenceBuilder {
	return b.Expect(`AT+CPIN="`+pin+`"`, "OK\r\n")
}

func (b *MockSequenceBuilder) SMSTextMode() *MockSequenceBuilder {
	return b.Expect("AT+CMGF=1", "OK\r\n")
}

func (b *MockSequenceBuilder) SMSNotify() *MockSequenceBuilder {
	return b.Expect("AT+CNMI=2,1,0,0,0", "OK\r\n")
}

func (b *MockSequenceBuilder) CallCLCC() *MockSequenceBuilder {
	return b.Expect("AT+CLCC=1", "OK\r\n")
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

// initMockCalls scripts a successful initialization with a ready SIM.
func initMockCalls(b *MockSequenceBuilder) []any {
	return b.
		AT().
		EchoOff().
		ErrorNumeric().
		SimReady().
		SMSTextMode().
		SMSNotify().
		CallCLCC().
		Build()
}
