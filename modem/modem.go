package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/atomic"

	"i4.energy/across/gsmat/at"
	"i4.energy/across/gsmat/gsm"
)

// Modem represents a GSM cellular modem that communicates via AT commands.
// It provides thread-safe access to the command engine through a central
// event loop that owns the engine and feeds it everything read from the
// transport.
type Modem struct {
	// transport provides the physical connection to the modem (serial, TCP, etc.)
	transport Transport
	// config contains the modem configuration settings
	config Config
	log    *slog.Logger
	// engine is only touched by New during initialization and by Loop afterwards.
	engine *gsm.Engine

	closed      *atomic.Bool
	loopRunning *atomic.Bool
	// dropped counts notifications lost because Events was full.
	dropped *atomic.Int64

	// tokens carries everything read from the transport. It is closed when
	// the transport fails; readErr then holds the cause.
	tokens  chan at.Token
	readErr error
	// done is closed by Close.
	done chan struct{}

	events   chan gsm.Notification
	requests chan *request

	// Owned by Loop.
	queue []*request
}

// request is one operation handed to the Loop.
type request struct {
	id     gsm.CommandID
	params any
	ctx    context.Context
	trace  ulid.ULID
	// async requests are started without a completion callback; their
	// outcome is delivered as an EventIdle notification.
	async bool
	// inspect, when set, runs on the Loop instead of a command.
	inspect func(*gsm.Session)
	resp    chan response
}

type response struct {
	reply any
	err   error
}

// PollConfig defines configuration for polling operations like waiting for SIM readiness.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the condition
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

// execFunc runs one command to completion.
type execFunc func(ctx context.Context, id gsm.CommandID, params any) (any, error)

// New creates a new Modem instance with the given configuration.
// It establishes the transport connection and initializes the modem
// hardware before returning. Call Loop afterwards to serve commands.
//
// Returns an error if the transport connection or modem initialization
// fails.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Modem{
		transport:   transport,
		config:      config,
		log:         config.Logger,
		closed:      atomic.NewBool(false),
		loopRunning: atomic.NewBool(false),
		dropped:     atomic.NewInt64(0),
		tokens:      make(chan at.Token, 16),
		done:        make(chan struct{}),
		events:      make(chan gsm.Notification, config.EventBuffer),
		requests:    make(chan *request),
	}
	opts := []gsm.Option{
		gsm.WithLogger(config.Logger),
		gsm.WithTickPeriod(config.TickPeriod),
		gsm.WithCallback(m.notify),
	}
	for id, d := range config.CommandTimeouts {
		opts = append(opts, gsm.WithTimeout(id, d))
	}
	m.engine = gsm.New(transport, opts...)

	go m.pump(at.NewReader(transport))

	initCtx := ctx
	if config.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, config.InitTimeout)
		defer cancel()
	}
	if err := m.init(initCtx, m.execDirect); err != nil {
		m.closed.Store(true)
		close(m.done)
		transport.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}
	return m, nil
}

// pump is the only reader of the transport.
func (m *Modem) pump(r *at.Reader) {
	defer close(m.tokens)
	for {
		tok, err := r.Next()
		if err != nil {
			m.readErr = err
			return
		}
		select {
		case m.tokens <- tok:
		case <-m.done:
			return
		}
	}
}

// readError is valid once tokens is closed.
func (m *Modem) readError() error {
	if m.readErr == nil || errors.Is(m.readErr, io.EOF) {
		return io.EOF
	}
	return fmt.Errorf("scanner error: %w", m.readErr)
}

// notify is the engine callback. It never blocks the engine.
func (m *Modem) notify(n gsm.Notification) {
	select {
	case m.events <- n:
	default:
		m.dropped.Inc()
		m.log.Warn("event dropped", "event", n.Event, "dropped", m.dropped.Load())
	}
}

// Events returns a read-only channel of notifications: incoming messages,
// calls, connection data, network changes and the completion of commands
// started with Begin. The channel is buffered; notifications are dropped
// when it is full.
func (m *Modem) Events() <-chan gsm.Notification {
	return m.events
}

// Dropped returns the number of notifications lost because Events was full.
func (m *Modem) Dropped() int64 {
	return m.dropped.Load()
}

// Loop is the main event loop that handles all transport I/O operations.
// It must be called exactly once after New() and before any other modem operations.
// The Loop owns the command engine:
//
// 1. Starts queued command requests from Exec and Begin calls
// 2. Feeds every token read from the transport to the engine
// 3. Advances the engine clock so command time budgets expire
// 4. Returns command replies to waiting Exec calls
//
// The Loop runs until the provided context is cancelled, the modem is closed
// or the transport fails.
//
// Usage:
//
//	modem, err := New(ctx, config)
//	if err != nil { return err }
//
//	// Start the loop (typically in a goroutine)
//	go modem.Loop(ctx)
//
//	// Now Exec calls will work
//	reply, err := modem.Exec(ctx, gsm.CmdInfoSignal, nil)
func (m *Modem) Loop(ctx context.Context) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	if !m.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer m.loopRunning.Store(false)

	ticker := time.NewTicker(m.engine.TickPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stop(ctx.Err())
			return ctx.Err()

		case <-m.done:
			m.stop(ErrAlreadyClosed)
			return ErrAlreadyClosed

		case req := <-m.requests:
			m.accept(req)

		case tok, ok := <-m.tokens:
			if !ok {
				err := m.readError()
				m.stop(err)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			m.engine.Feed(tok)

		case <-ticker.C:
			m.engine.Tick()
		}
		m.drain()
	}
}

// accept handles one request on the Loop.
func (m *Modem) accept(req *request) {
	switch {
	case req.inspect != nil:
		req.inspect(m.engine.Session())
		req.resp <- response{}
	case req.async:
		// Begin never queues.
		if len(m.queue) > 0 {
			req.resp <- response{err: gsm.ErrBusy}
			return
		}
		err := m.engine.Begin(req.id, req.params, nil)
		m.log.Debug("begin", "request", req.trace, "command", req.id, "error", err)
		req.resp <- response{err: err}
	default:
		m.queue = append(m.queue, req)
	}
}

// drain starts queued requests while the engine is idle.
func (m *Modem) drain() {
	for len(m.queue) > 0 && m.engine.Session().IsIdle() {
		req := m.queue[0]
		m.queue = m.queue[1:]
		if err := req.ctx.Err(); err != nil {
			req.resp <- response{err: fmt.Errorf("command cancelled before sending: %w", err)}
			continue
		}
		m.log.Debug("exec", "request", req.trace, "command", req.id)
		err := m.engine.Begin(req.id, req.params, func(reply any, err error) {
			req.resp <- response{reply: reply, err: err}
		})
		if err != nil {
			// Nothing was sent. ErrBusy here means an idle notification is
			// still pending; the request waits for the next round.
			if errors.Is(err, gsm.ErrBusy) {
				m.queue = append([]*request{req}, m.queue...)
				return
			}
			req.resp <- response{err: err}
		}
	}
}

// stop fails the active command and everything queued with err.
func (m *Modem) stop(err error) {
	m.engine.Abort(err)
	for _, req := range m.queue {
		req.resp <- response{err: err}
	}
	m.queue = nil
}

func (m *Modem) newRequest(ctx context.Context, id gsm.CommandID, params any) *request {
	return &request{
		id:     id,
		params: params,
		ctx:    ctx,
		trace:  ulid.Make(),
		resp:   make(chan response, 1), // Buffered so the Loop never blocks
	}
}

// submit hands req to the Loop and waits for its response.
func (m *Modem) submit(req *request) (any, error) {
	if m.closed.Load() {
		return nil, ErrAlreadyClosed
	}
	if !m.loopRunning.Load() {
		return nil, ErrLoopNotRunning
	}
	select {
	case m.requests <- req:
	case <-m.done:
		return nil, ErrAlreadyClosed
	case <-req.ctx.Done():
		return nil, fmt.Errorf("command cancelled before sending: %w", req.ctx.Err())
	}
	select {
	case resp := <-req.resp:
		return resp.reply, resp.err
	case <-req.ctx.Done():
		return nil, fmt.Errorf("command timeout: %w", req.ctx.Err())
	}
}

// Exec runs command id with params and waits for its reply. Commands are
// queued and run one at a time in the order they were submitted. A command
// that reached the modem keeps the channel until it completes or its own
// time budget runs out; ctx only bounds how long the caller waits.
//
// The Loop must be running before calling this method.
func (m *Modem) Exec(ctx context.Context, id gsm.CommandID, params any) (any, error) {
	return m.submit(m.newRequest(ctx, id, params))
}

// Begin starts command id without waiting for it. It fails with
// gsm.ErrBusy instead of queueing when the channel is in use. The outcome
// is delivered on Events as an EventIdle notification.
func (m *Modem) Begin(ctx context.Context, id gsm.CommandID, params any) error {
	req := m.newRequest(ctx, id, params)
	req.async = true
	_, err := m.submit(req)
	return err
}

// Status is a snapshot of what the modem last reported.
type Status struct {
	SIM     gsm.SimState
	Network gsm.NetworkStatus
	IP      string
	Active  gsm.CommandID
	Call    gsm.CallInfo
	Conns   [gsm.MaxConns]gsm.Conn
	Dropped int64
}

// Status returns the engine state without talking to the modem.
func (m *Modem) Status(ctx context.Context) (Status, error) {
	var st Status
	req := m.newRequest(ctx, gsm.CmdIdle, nil)
	req.inspect = func(s *gsm.Session) {
		st = Status{
			SIM:     s.SIM(),
			Network: s.Network(),
			IP:      s.IP(),
			Active:  s.Active(),
			Call:    s.Call(),
		}
		for i := range st.Conns {
			st.Conns[i] = s.Conn(i)
		}
	}
	if _, err := m.submit(req); err != nil {
		return Status{}, err
	}
	st.Dropped = m.Dropped()
	return st, nil
}

// Close shuts down the modem and releases all resources.
// It stops the event loop, closes the transport connection, and marks
// the modem as closed. After calling Close(), the modem cannot be reused.
func (m *Modem) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	close(m.done)
	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// Init re-runs the initialization sequence through the Loop, for example
// after the module was restarted with FuncSet.
func (m *Modem) Init(ctx context.Context) error {
	return m.init(ctx, m.Exec)
}

// init performs the setup sequence for the modem hardware. New runs it
// before the Loop starts and must complete it before the modem can be used.
func (m *Modem) init(ctx context.Context, exec execFunc) error {
	// 1. Wake-up / sanity check
	if _, err := exec(ctx, gsm.CmdAT, nil); err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}
	if _, err := exec(ctx, gsm.CmdEchoOff, nil); err != nil {
		return fmt.Errorf("could not disable echo: %w", err)
	}
	if _, err := exec(ctx, gsm.CmdErrorNumeric, nil); err != nil {
		return fmt.Errorf("could not enable numeric errors: %w", err)
	}

	// 2. Check SIM status
	reply, err := exec(ctx, gsm.CmdPINStatus, nil)
	if err != nil {
		return fmt.Errorf("query SIM status: %w", err)
	}
	switch sim, _ := reply.(gsm.SimState); sim {
	case gsm.SimReady:
		// OK

	case gsm.SimWaitingPIN:
		if m.config.SimPIN == "" {
			return ErrSIMPinRequired
		}
		reply, err := exec(ctx, gsm.CmdPIN, gsm.PINParams{PIN: m.config.SimPIN})
		if err != nil {
			return fmt.Errorf("enter SIM PIN: %w", err)
		}
		if reply != gsm.SimReady {
			if err := m.waitForSIMReady(ctx, exec, m.config.SIMPoll); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unsupported SIM state: %s", sim)
	}

	// 3. Messaging and call reporting
	if _, err := exec(ctx, gsm.CmdSMSTextMode, nil); err != nil {
		return fmt.Errorf("set SMS text mode: %w", err)
	}
	if _, err := exec(ctx, gsm.CmdSMSNotify, nil); err != nil {
		return fmt.Errorf("enable SMS notifications: %w", err)
	}
	if _, err := exec(ctx, gsm.CmdCallCLCC, nil); err != nil {
		return fmt.Errorf("enable call status reports: %w", err)
	}
	return nil
}

// execDirect runs a command on the engine from the calling goroutine. It is
// used during initialization, before the Loop owns the engine.
//
// WARNING: This method should only be used during initialization.
// Use Exec() for normal operations.
func (m *Modem) execDirect(ctx context.Context, id gsm.CommandID, params any) (any, error) {
	if m.closed.Load() {
		return nil, ErrAlreadyClosed
	}
	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ATTimeout)
		defer cancel()
	}

	var (
		res      response
		finished bool
	)
	err := m.engine.Begin(id, params, func(reply any, err error) {
		res, finished = response{reply: reply, err: err}, true
	})
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(m.engine.TickPeriod())
	defer ticker.Stop()
	for !finished {
		select {
		case <-ctx.Done():
			m.engine.Abort(ctx.Err())
		case tok, ok := <-m.tokens:
			if !ok {
				m.engine.Abort(m.readError())
				continue
			}
			m.engine.Feed(tok)
		case <-ticker.C:
			m.engine.Tick()
		}
	}
	return res.reply, res.err
}

// waitForSIMReady polls the SIM card status until it reports ready state.
// This is necessary after entering a SIM PIN, as the SIM card needs time
// to authenticate and become operational. Uses configurable polling interval
// and retry limits to avoid infinite waiting.
func (m *Modem) waitForSIMReady(ctx context.Context, exec execFunc, config PollConfig) error {
	var (
		pollInterval = config.Interval
		timeout      = config.Timeout
		maxRetries   = config.MaxRetries
	)

	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = int(timeout / pollInterval)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	retries := 0

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("SIM not ready: %w", ctx.Err())
		case <-ticker.C:
			retries++
			if retries > maxRetries {
				return fmt.Errorf("SIM not ready after %d retries", maxRetries)
			}
			reply, err := exec(ctx, gsm.CmdPINStatus, nil)
			if err != nil {
				// Fail fast on critical errors
				if errors.Is(err, ErrAlreadyClosed) || errors.Is(err, ErrNotInitialized) || errors.Is(err, io.EOF) {
					return fmt.Errorf("SIM status check failed: %w", err)
				}
				continue
			}
			if reply == gsm.SimReady {
				return nil
			}
		}
	}
}
