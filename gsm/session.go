package gsm

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
)

// Channel ownership states.
const (
	stateIdle   = "idle"
	stateActive = "active"
	stateNested = "nested"
)

// Channel ownership transitions.
const (
	evClaim         = "claim"
	evSave          = "save"
	evRestoreIdle   = "restore-idle"
	evRestoreActive = "restore-active"
	evRelease       = "release"
)

// maxPending bounds the number of undelivered notifications.
const maxPending = 64

// Session is the single mutable record of the engine. Callers only read it;
// the engine, the decoder and the dispatcher are the only writers.
type Session struct {
	owner *fsm.FSM

	active CommandID
	saved  CommandID

	now     time.Duration
	start   time.Duration
	timeout time.Duration

	sim     SimState
	network NetworkStatus
	fn      Func
	ip      string
	call    CallInfo
	conns   [MaxConns]Conn

	resp   Responses
	events Events

	// pending holds notifications in arrival order.
	pending []Notification
	// dropped counts notifications lost because pending was full.
	dropped int
	// idle holds the completion of a fire-and-forget command until the
	// dispatcher delivers it. The channel counts as busy meanwhile.
	idle *Notification

	// Reply data of the active command, written by the decoder.
	final    string
	lines    []string
	payload  []byte
	connSlot int
	rxGot    int
	rxLeft   int
	http     httpStatus
	ftp      ftpStatus
}

type httpStatus struct {
	method, code, length int
}

type ftpStatus struct {
	getCode  int
	getDone  bool
	putCode  int
	putMax   int
	putReady int
}

func newSession() *Session {
	s := &Session{
		network: NetworkUnknown,
		fn:      FuncFull,
	}
	s.owner = fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: evClaim, Src: []string{stateIdle}, Dst: stateActive},
			{Name: evSave, Src: []string{stateIdle, stateActive}, Dst: stateNested},
			{Name: evRestoreIdle, Src: []string{stateNested}, Dst: stateIdle},
			{Name: evRestoreActive, Src: []string{stateNested}, Dst: stateActive},
			{Name: evRelease, Src: []string{stateActive, stateNested}, Dst: stateIdle},
		},
		fsm.Callbacks{},
	)
	return s
}

func (s *Session) transition(ev string) error {
	return s.owner.Event(context.Background(), ev)
}

// IsIdle reports whether no command owns the channel.
func (s *Session) IsIdle() bool { return s.active == CmdIdle }

// Active returns the command that owns the channel.
func (s *Session) Active() CommandID { return s.active }

// Dropped returns how many notifications were discarded because too many
// were waiting.
func (s *Session) Dropped() int { return s.dropped }

// Now returns the session clock.
func (s *Session) Now() time.Duration { return s.now }

// SIM returns the last known SIM state.
func (s *Session) SIM() SimState { return s.sim }

// Network returns the last known registration state.
func (s *Session) Network() NetworkStatus { return s.network }

// IP returns the address obtained by the last GPRS attach.
func (s *Session) IP() string { return s.ip }

// Call returns the last +CLCC report.
func (s *Session) Call() CallInfo { return s.call }

// Conn returns a snapshot of connection slot i.
func (s *Session) Conn(i int) Conn {
	if i < 0 || i >= MaxConns {
		return Conn{}
	}
	return s.conns[i]
}

// Responses returns the reply flags of the active command.
func (s *Session) Responses() Responses { return s.resp }

// Events returns the set of undelivered notifications.
func (s *Session) Events() Events { return s.events }

// claim makes id the owner of an idle channel.
func (s *Session) claim(id CommandID) error {
	if s.active != CmdIdle || s.idle != nil {
		return ErrBusy
	}
	if err := s.transition(evClaim); err != nil {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	s.start = s.now
	s.active = id
	return nil
}

// save remembers the current owner so that a sub-query can take the channel.
// Only one level is supported.
func (s *Session) save() error {
	if err := s.transition(evSave); err != nil {
		return fmt.Errorf("%w: %v", ErrNesting, err)
	}
	s.saved = s.active
	return nil
}

// enter hands the channel to a sub-query after save. budget applies only
// when nothing owned the channel before.
func (s *Session) enter(id CommandID, budget time.Duration) {
	if s.active == CmdIdle {
		s.start = s.now
		s.timeout = budget
	}
	s.active = id
}

// restore gives the channel back to the command remembered by save.
func (s *Session) restore() error {
	ev := evRestoreActive
	if s.saved == CmdIdle {
		ev = evRestoreIdle
	}
	if err := s.transition(ev); err != nil {
		return fmt.Errorf("%w: %v", ErrNesting, err)
	}
	s.active = s.saved
	s.saved = CmdIdle
	return nil
}

// release frees the channel. Responses and reply data are cleared, events
// are left for the dispatcher.
func (s *Session) release() {
	if s.owner.Can(evRelease) {
		_ = s.transition(evRelease)
	}
	s.active = CmdIdle
	s.saved = CmdIdle
	s.timeout = 0
	s.resetResponses()
}

// resetResponses clears the reply flags and data before a new line is sent.
func (s *Session) resetResponses() {
	s.resp = 0
	s.final = ""
	s.lines = nil
	s.payload = nil
	s.rxGot, s.rxLeft = 0, 0
}

func (s *Session) expired() bool {
	return s.active != CmdIdle && s.now-s.start > s.timeout
}

// raise queues a notification. Identical notifications that are still
// waiting are not queued twice.
func (s *Session) raise(n Notification) {
	for _, p := range s.pending {
		if p.key() == n.key() {
			return
		}
	}
	if len(s.pending) >= maxPending {
		s.dropped++
		return
	}
	s.events.set(n.Event)
	s.pending = append(s.pending, n)
}

// next removes the notification to deliver next: critical events first,
// then the idle notification, then everything else in arrival order.
func (s *Session) next() (Notification, bool) {
	for i, p := range s.pending {
		if p.Event.critical() {
			return s.take(i), true
		}
	}
	if s.idle != nil {
		n := *s.idle
		s.idle = nil
		return n, true
	}
	if len(s.pending) > 0 {
		return s.take(0), true
	}
	return Notification{}, false
}

func (s *Session) take(i int) Notification {
	n := s.pending[i]
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	still := false
	for _, p := range s.pending {
		if p.Event == n.Event {
			still = true
			break
		}
	}
	if !still {
		s.events.clear(n.Event)
	}
	return n
}
