package gsm

import (
	"fmt"

	"i4.energy/across/gsmat/at"
)

// simReady re-queries the SIM when its cached state is not Ready and ends
// the routine with ErrSimNotReady if it still is not. Nothing is sent when
// the SIM is known to be ready.
func simReady() []step {
	return when(
		func(t *task) bool { return t.s.sim != SimReady },
		func(t *task) next { return t.exec(at.CmdSimStatus, respFinal) },
		func(t *task) next {
			if t.s.sim != SimReady {
				return finish(fmt.Errorf("%w: %s", ErrSimNotReady, t.s.sim))
			}
			return proceed()
		},
	)
}

// networkRegistered re-queries the registration as a nested NetworkStatus
// command when the cached state is not registered, and ends the routine with
// the matching network error if the device still is not registered. Nothing
// is sent when the device is known to be registered.
func networkRegistered() []step {
	return when(
		func(t *task) bool { return !t.s.network.Registered() },
		func(t *task) next {
			if err := t.s.save(); err != nil {
				return finish(err)
			}
			t.s.enter(CmdNetworkStatus, t.e.Timeout(CmdNetworkStatus))
			return t.exec(at.CmdRegistration, respFinal)
		},
		func(t *task) next {
			if err := t.s.restore(); err != nil {
				return finish(err)
			}
			if !t.s.network.Registered() {
				return finish(t.s.network.err())
			}
			return proceed()
		},
	)
}
