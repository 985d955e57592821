package gsm

// Notification is delivered to the application callback by the dispatcher.
type Notification struct {
	Event Event

	// Command, Reply and Err describe a completed fire-and-forget command
	// (EventIdle).
	Command CommandID
	Reply   any
	Err     error

	// Slot is the connection of EventConnDataReceived and EventConnClosed.
	Slot int
	// Memory and Index locate the message of EventSMSReceived.
	Memory string
	Index  int
	// Call is the status line of EventCallCLCC.
	Call CallInfo
	// Network is the new state of EventNetworkChanged.
	Network NetworkStatus
}

type notificationKey struct {
	event  Event
	slot   int
	memory string
	index  int
	call   CallInfo
	net    NetworkStatus
}

func (n Notification) key() notificationKey {
	return notificationKey{
		event:  n.Event,
		slot:   n.Slot,
		memory: n.Memory,
		index:  n.Index,
		call:   n.Call,
		net:    n.Network,
	}
}

// Callback receives notifications. It runs on the engine's thread of
// control; it may start a new command with Begin since the channel is idle
// whenever it is called.
type Callback func(Notification)

// dispatch drains notifications while the channel stays idle. Connection
// closed by peer and under-voltage power down come first, then the idle
// notification of a fire-and-forget command, then every other event in the
// order it arrived.
func (e *Engine) dispatch() {
	for e.s.IsIdle() {
		n, ok := e.s.next()
		if !ok {
			return
		}
		if n.Event == EventConnDataReceived {
			e.s.conns[n.Slot].ReadNotified = true
		}
		e.log.Debug("dispatch event", "event", n.Event, "command", n.Command, "slot", n.Slot)
		if e.cb != nil {
			e.cb(n)
		}
	}
}
