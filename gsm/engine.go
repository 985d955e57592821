// Package gsm drives a cellular modem over one AT command channel.
//
// The Engine is single threaded and deterministic: the owner feeds it
// decoded modem output with Feed, advances its clock with Tick and starts
// commands with Begin. Exactly one command owns the channel at a time.
// A command runs as a list of steps; a step sends a line and suspends
// until one of the reply flags it waits for is set, or until the command's
// time budget is spent. Unsolicited notifications are queued and handed
// to the Callback whenever the channel is idle.
package gsm

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"i4.energy/across/gsmat/at"
)

// DefaultTickPeriod is the clock resolution of the engine.
const DefaultTickPeriod = 10 * time.Millisecond

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for protocol traces.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTickPeriod sets how much the session clock advances per Tick.
func WithTickPeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tick = d
		}
	}
}

// WithTimeout overrides the time budget of one command.
func WithTimeout(id CommandID, d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeouts[id] = d
		}
	}
}

// WithCallback sets the notification callback.
func WithCallback(cb Callback) Option {
	return func(e *Engine) { e.cb = cb }
}

// Engine runs commands over the modem channel.
type Engine struct {
	w        io.Writer
	s        *Session
	log      *slog.Logger
	tick     time.Duration
	timeouts map[CommandID]time.Duration
	cb       Callback

	// call is the command that owns the channel, nil when idle.
	call *task
}

// New returns an Engine writing AT commands to w.
func New(w io.Writer, opts ...Option) *Engine {
	e := &Engine{
		w:        w,
		s:        newSession(),
		log:      slog.New(slog.DiscardHandler),
		tick:     DefaultTickPeriod,
		timeouts: make(map[CommandID]time.Duration),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the engine state for inspection.
func (e *Engine) Session() *Session { return e.s }

// SetCallback replaces the notification callback.
func (e *Engine) SetCallback(cb Callback) { e.cb = cb }

// TickPeriod returns the clock resolution.
func (e *Engine) TickPeriod() time.Duration { return e.tick }

// Timeout returns the time budget of id.
func (e *Engine) Timeout(id CommandID) time.Duration {
	if d, ok := e.timeouts[id]; ok {
		return d
	}
	return DefaultTimeout(id)
}

// Begin starts command id with params.
//
// When done is nil the command runs fire-and-forget and its outcome is
// delivered later as an EventIdle notification. Otherwise done is called
// exactly once with the reply and the result when the command completes.
//
// Begin returns ErrBusy while another command owns the channel or an idle
// notification is still undelivered, ErrUnknownCommand for ids outside the
// registry and ErrInvalidParameter when params fail validation. In those
// cases nothing is sent and done is never called.
func (e *Engine) Begin(id CommandID, params any, done func(reply any, err error)) error {
	if !e.s.IsIdle() || e.s.idle != nil {
		return ErrBusy
	}
	ent, ok := registry[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	r, err := ent.build(params)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	if err := e.s.claim(id); err != nil {
		return err
	}
	e.s.timeout = e.Timeout(id)
	e.s.resetResponses()

	t := &task{id: id, e: e, s: e.s, r: r, done: done}
	e.call = t
	e.log.Debug("command start", "command", id, "timeout", e.s.timeout, "blocking", done != nil)
	e.run(t)
	return nil
}

// Feed hands one decoded token to the engine.
func (e *Engine) Feed(tok at.Token) {
	dropped := e.s.dropped
	e.s.decode(tok)
	if e.s.dropped > dropped {
		e.log.Warn("notification dropped", "pending", len(e.s.pending), "dropped", e.s.dropped)
	}
	e.Poll()
}

// Tick advances the session clock by one period, aborts the active command
// when its time budget is exceeded and polls.
func (e *Engine) Tick() {
	e.s.now += e.tick
	if t := e.call; t != nil && e.s.expired() {
		err := fmt.Errorf("%w: %s after %s", ErrTimeout, t.id, e.s.timeout)
		e.finish(t, err)
	}
	e.Poll()
}

// Poll resumes the active command when its wait condition holds and
// dispatches notifications when the channel is idle.
func (e *Engine) Poll() {
	if t := e.call; t != nil && t.wait != 0 && e.s.resp.Any(t.wait) {
		t.wait = 0
		e.run(t)
	}
	if e.call == nil {
		e.dispatch()
	}
}

// Abort ends the active command with err, as if its time budget were spent,
// and dispatches pending notifications. It does nothing when idle.
func (e *Engine) Abort(err error) {
	if t := e.call; t != nil {
		e.finish(t, err)
	}
	e.Poll()
}

// run executes steps of t until one suspends or the routine ends.
func (e *Engine) run(t *task) {
	for e.call == t {
		if t.pc >= len(t.r.steps) {
			e.finish(t, nil)
			return
		}
		n := t.r.steps[t.pc](t)
		if n.done {
			e.finish(t, n.err)
			return
		}
		t.pc += n.jump
		if n.wait != 0 && !e.s.resp.Any(n.wait) {
			t.wait = n.wait
			return
		}
	}
}

// finish releases the channel and reports the outcome of t.
func (e *Engine) finish(t *task, err error) {
	e.call = nil
	e.s.release()
	if t.r.after != nil {
		t.r.after(e.s, err)
	}
	if err != nil {
		e.log.Debug("command failed", "command", t.id, "result", ResultOf(err), "error", err)
	} else {
		e.log.Debug("command done", "command", t.id)
	}
	if t.done != nil {
		t.done(t.reply, err)
		return
	}
	e.s.idle = &Notification{Event: EventIdle, Command: t.id, Reply: t.reply, Err: err}
}

// send writes b to the transport. A short write is a failure; the engine
// never retries.
func (e *Engine) send(b []byte) error {
	e.log.Debug("send", "command", e.s.active, "line", strings.TrimRight(string(b), at.CRLF))
	n, err := e.w.Write(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrSendFailed, n, len(b))
	}
	return nil
}
