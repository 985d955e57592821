package gsm

import (
	"errors"
	"testing"

	"i4.energy/across/gsmat/at"
)

// wire records what the engine writes to the modem.
type wire struct {
	writes []string
	// err fails every write when set.
	err error
	// short makes every write report one byte less than requested.
	short bool
}

func (w *wire) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.writes = append(w.writes, string(p))
	if w.short {
		return len(p) - 1, nil
	}
	return len(p), nil
}

// harness drives an Engine through a scripted conversation.
type harness struct {
	t      *testing.T
	e      *Engine
	w      *wire
	n      int
	events []Notification
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t, w: &wire{}}
	opts = append([]Option{WithCallback(func(n Notification) {
		h.events = append(h.events, n)
	})}, opts...)
	h.e = New(h.w, opts...)
	return h
}

// ready marks the SIM unlocked and the device registered so guards pass
// without traffic.
func (h *harness) ready() *harness {
	h.e.s.sim = SimReady
	h.e.s.network = NetworkRegisteredHome
	return h
}

func (h *harness) feed(lines ...string) {
	for _, l := range lines {
		h.e.Feed(at.Token{Type: at.Classify(l), Line: l})
	}
}

func (h *harness) raw(data string) {
	h.e.Feed(at.Token{Type: at.TypeRaw, Data: []byte(data)})
}

// exchange checks that the next write is want, then feeds reply.
func (h *harness) exchange(want string, reply ...string) {
	h.t.Helper()
	if h.n >= len(h.w.writes) {
		h.t.Fatalf("expected write %q, got nothing (writes: %q)", want, h.w.writes)
	}
	if got := h.w.writes[h.n]; got != want {
		h.t.Fatalf("write %d: expected %q, got %q", h.n, want, got)
	}
	h.n++
	h.feed(reply...)
}

// noMoreWrites fails when the engine wrote past the scripted exchanges.
func (h *harness) noMoreWrites() {
	h.t.Helper()
	if h.n != len(h.w.writes) {
		h.t.Errorf("unexpected writes: %q", h.w.writes[h.n:])
	}
}

// result collects the outcome of a blocking command.
type result struct {
	called int
	reply  any
	err    error
}

func (r *result) done(reply any, err error) {
	r.called++
	r.reply = reply
	r.err = err
}

func (h *harness) begin(id CommandID, params any) *result {
	h.t.Helper()
	r := &result{}
	if err := h.e.Begin(id, params, r.done); err != nil {
		h.t.Fatalf("Begin(%s): %v", id, err)
	}
	return r
}

func (r *result) check(t *testing.T, want error) {
	t.Helper()
	if r.called != 1 {
		t.Fatalf("done called %d times, want 1", r.called)
	}
	if want == nil && r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if want != nil && !errors.Is(r.err, want) {
		t.Fatalf("expected %v, got %v", want, r.err)
	}
}
