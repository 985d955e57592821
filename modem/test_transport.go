package modem

import (
	"io"
	"strings"
	"sync"
)

// TestTransport is a scripted in-memory modem used by tests.
//
// Every command written to it is answered with the next reply registered
// for that command with On; commands without a scripted reply are answered
// with "OK". Reads block until output is available, like a real serial port
// would, because the Modem reads the transport from a background goroutine.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	pending  []byte
	closed   bool
	script   map[string][]string
	written  []string
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
		script:   make(map[string][]string),
	}
}

// On queues reply as the answer to the next write of cmd. cmd is compared
// without the trailing carriage return. An empty reply leaves the command
// unanswered.
func (t *TestTransport) On(cmd, reply string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.script[cmd] = append(t.script[cmd], reply)
	return t
}

// Written returns the commands written so far.
func (t *TestTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.written...)
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	cmd := strings.TrimSuffix(string(p), "\r")
	t.written = append(t.written, cmd)

	reply := "OK\r\n"
	if q := t.script[cmd]; len(q) > 0 {
		reply, t.script[cmd] = q[0], q[1:]
	}
	if reply != "" {
		t.readChan <- []byte(reply)
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	if len(t.pending) == 0 {
		data, ok := <-t.readChan
		if !ok {
			return 0, io.EOF
		}
		t.pending = data
	}
	n = copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates unsolicited output from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}
