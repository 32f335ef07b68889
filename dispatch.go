package hsm

// EventLogger is called before a state handler sees an event. machine is the
// index of the machine in the Dispatch call.
type EventLogger func(machine int, state *State, evt EventID)

// ResultLogger is called after a handler returns. state is the machine's
// current state at that point, which differs from the handling state when
// the handler transitioned.
type ResultLogger func(state *State, result Result)

// Dispatcher drains machine event queues.
type Dispatcher struct {
	hierarchy     bool
	skipUnhandled bool
	eventLogger   EventLogger
	resultLogger  ResultLogger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHierarchy enables or disables parent fallback. Enabled by default.
func WithHierarchy(enabled bool) Option {
	return func(d *Dispatcher) {
		d.hierarchy = enabled
	}
}

// WithSkipUnhandled leaves events that no state handles in the queue and
// moves on to the next event instead of aborting the call. Dispatch still
// reports Unhandled when such events remain.
func WithSkipUnhandled() Option {
	return func(d *Dispatcher) {
		d.skipUnhandled = true
	}
}

// WithEventLogger installs a hook called before each handler invocation.
func WithEventLogger(l EventLogger) Option {
	return func(d *Dispatcher) {
		d.eventLogger = l
	}
}

// WithResultLogger installs a hook called after each handler invocation.
func WithResultLogger(l ResultLogger) Option {
	return func(d *Dispatcher) {
		d.resultLogger = l
	}
}

// NewDispatcher returns a dispatcher with hierarchy enabled.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{hierarchy: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDispatcher = NewDispatcher()

// Dispatch drains machines with the default dispatcher.
func Dispatch(machines ...*Machine) Result {
	return defaultDispatcher.Dispatch(machines...)
}

// Dispatch delivers queued events to the current state of each machine until
// every queue is empty. Handling an event, or a TriggeredToSelf result,
// restarts the scan from the first machine. An event that no state in the
// parent chain handles makes the call return Unhandled immediately, with the
// event left at its position in the queue.
func (d *Dispatcher) Dispatch(machines ...*Machine) Result {
	for i := 0; i < len(machines); {
		m := machines[i]
		restart := false
		for pos := 0; pos < m.queue.Len(); {
			evt := m.queue.At(pos)
			r := d.deliver(i, m, evt)
			if r == Handled {
				m.queue.RemoveAt(pos)
			}
			if r == Handled || r == TriggeredToSelf {
				restart = true
				break
			}
			if !d.skipUnhandled {
				return Unhandled
			}
			pos++
		}
		if restart {
			i = 0
			continue
		}
		i++
	}
	if d.skipUnhandled {
		for _, m := range machines {
			if m.queue.Len() > 0 {
				return Unhandled
			}
		}
	}
	return Handled
}

// deliver offers evt to the current state of m and, when hierarchy is
// enabled, to its ancestors. A machine without a current state handles
// nothing. Result codes other than Handled and
// TriggeredToSelf count as Unhandled.
func (d *Dispatcher) deliver(index int, m *Machine, evt EventID) Result {
	m.event = evt
	m.dispatching = true
	defer func() {
		m.dispatching = false
	}()

	s := m.current
	if s == nil {
		return Unhandled
	}
	for {
		r := Unhandled
		if s.Handler != nil {
			if d.eventLogger != nil {
				d.eventLogger(index, s, evt)
			}
			r = s.Handler(m, evt)
			if d.resultLogger != nil {
				d.resultLogger(m.current, r)
			}
		}
		switch r {
		case Handled, TriggeredToSelf:
			return r
		}
		if !d.hierarchy {
			return Unhandled
		}
		for {
			if s.Parent == nil {
				return Unhandled
			}
			s = s.Parent
			if s.Handler != nil {
				break
			}
		}
	}
}
