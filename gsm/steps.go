package gsm

import (
	"i4.energy/across/gsmat/at"
)

// routine is the program of one command invocation. Parameters and
// intermediate results live in the closures of its steps, so nothing is
// shared between invocations.
type routine struct {
	steps []step
	// after runs once the channel has been released, with the outcome.
	after func(s *Session, err error)
}

// step is one segment of a routine between two suspension points.
type step func(t *task) next

// next tells the engine how to continue after a step.
type next struct {
	// jump is added to the program counter.
	jump int
	// wait suspends the routine until one of the flags is set.
	wait Responses
	done bool
	err  error
}

func proceed() next { return next{jump: 1} }

func jump(n int) next { return next{jump: n} }

func wait(f Responses) next { return next{jump: 1, wait: f} }

// waitJump suspends until one of f is set, then continues n steps away.
func waitJump(f Responses, n int) next { return next{jump: n, wait: f} }

func finish(err error) next { return next{done: true, err: err} }

// task is the running invocation of a command.
type task struct {
	id    CommandID
	e     *Engine
	s     *Session
	r     *routine
	pc    int
	wait  Responses
	reply any
	done  func(reply any, err error)
}

// exec clears the reply flags, sends an AT command line and suspends until
// one of f is set.
func (t *task) exec(line string, f Responses) next {
	t.s.resetResponses()
	if err := t.e.send([]byte(line + at.CR)); err != nil {
		return finish(err)
	}
	return wait(f)
}

// write sends raw data after a prompt and suspends until one of f is set.
func (t *task) write(data []byte, f Responses) next {
	t.s.resetResponses()
	if err := t.e.send(data); err != nil {
		return finish(err)
	}
	return wait(f)
}

// modemErr returns the failure reported for the last line, if any.
func (t *task) modemErr() error {
	if t.s.resp.Any(RespError | respDialFailed | RespConnectFail | RespSendFail) {
		return &ModemError{Command: t.id, Line: t.s.final}
	}
	return nil
}

// line returns the first reply line starting with prefix, without it.
func (t *task) line(prefix string) (string, bool) {
	return findLine(t.s.lines, prefix)
}

// checkOK ends the routine with a modem error unless the last line
// succeeded.
func checkOK(t *task) next {
	if err := t.modemErr(); err != nil {
		return finish(err)
	}
	return proceed()
}

// cmd sends line and continues on OK.
func cmd(line string) []step {
	return []step{
		func(t *task) next { return t.exec(line, respFinal) },
		checkOK,
	}
}

// try sends line and continues whatever the outcome.
func try(line string) []step {
	return []step{
		func(t *task) next { return t.exec(line, respFinal) },
	}
}

// query sends line and hands the reply lines to parse on OK.
func query(line string, parse func(t *task) error) []step {
	return []step{
		func(t *task) next { return t.exec(line, respFinal) },
		func(t *task) next {
			if err := t.modemErr(); err != nil {
				return finish(err)
			}
			if parse != nil {
				if err := parse(t); err != nil {
					return finish(err)
				}
			}
			return proceed()
		},
	}
}

// when runs body only if cond holds at that point of the routine.
func when(cond func(t *task) bool, body ...step) []step {
	skip := len(body) + 1
	return append([]step{func(t *task) next {
		if cond(t) {
			return proceed()
		}
		return jump(skip)
	}}, body...)
}

// only is when with a condition fixed at build time.
func only(ok bool, body ...step) []step {
	if !ok {
		return nil
	}
	return body
}

func seq(parts ...[]step) []step {
	var steps []step
	for _, p := range parts {
		steps = append(steps, p...)
	}
	return steps
}

// simple builds a routine that sends one fixed line.
func simple(line string) func(any) (*routine, error) {
	return func(any) (*routine, error) {
		return &routine{steps: cmd(line)}, nil
	}
}
