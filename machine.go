package hsm

// Machine is one state machine instance: a current state plus its event
// queue.
type Machine struct {
	name    string
	current *State
	queue   *Queue

	// event is the event being dispatched, valid while dispatching is set.
	event       EventID
	dispatching bool
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithName labels the machine in logs.
func WithName(name string) MachineOption {
	return func(m *Machine) {
		m.name = name
	}
}

// WithQueueLimit bounds the event queue. Pushing onto a full queue drops an
// event according to policy.
func WithQueueLimit(limit int, policy DropPolicy) MachineOption {
	return func(m *Machine) {
		m.queue = NewQueue(limit, policy)
	}
}

// NewMachine returns a machine whose current state is initial. The initial
// state's entry function is not run; call Start for that.
func NewMachine(initial *State, opts ...MachineOption) *Machine {
	m := &Machine{
		current: initial,
		queue:   NewQueue(0, DropNewest),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs the entry function of the current state.
func (m *Machine) Start() Result {
	if m.current == nil {
		return Unhandled
	}
	triggered := false
	if r, ok := m.execute(m.current.Entry, &triggered); !ok {
		return r
	}
	if triggered {
		return TriggeredToSelf
	}
	return Handled
}

// Name returns the machine label.
func (m *Machine) Name() string { return m.name }

// State returns the current state.
func (m *Machine) State() *State { return m.current }

// Post appends evt to the machine's queue. It reports false if the event was
// dropped by a bounded queue.
func (m *Machine) Post(evt EventID) bool {
	return m.queue.Push(evt)
}

// Pending returns the number of queued events.
func (m *Machine) Pending() int { return m.queue.Len() }

// Queue exposes the event queue.
func (m *Machine) Queue() *Queue { return m.queue }

// CurrentEvent returns the event being dispatched. Outside of dispatch it
// returns the head of the queue, or NoEvent when the queue is empty.
func (m *Machine) CurrentEvent() EventID {
	if m.dispatching {
		return m.event
	}
	evt, _ := m.queue.Peek()
	return evt
}

// execute runs h and folds its result into triggered. ok is false when the
// result must abort the surrounding transition.
func (m *Machine) execute(h Handler, triggered *bool) (Result, bool) {
	if h == nil {
		return Handled, true
	}
	switch r := h(m, m.CurrentEvent()); r {
	case Handled:
		return r, true
	case TriggeredToSelf:
		*triggered = true
		return r, true
	default:
		return r, false
	}
}
