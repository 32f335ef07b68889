// Package door implements the two-door access controller on top of the hsm
// engine. A Controller owns one state machine, the unlock and open timers,
// and handles to the I/O collaborators. Each call to Process samples the
// door switches into events, fires at most one expired timer and drains the
// event queue.
//
// Only one door may be unlocked or open at a time. Opening the other door
// while one is open, or opening any door while idle, drives the controller
// into the fault state, which is left only once both doors are closed.
package door

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/hal"
	"github.com/comalice/hsm/internal/metrics"
)

// Deps are the collaborators a Controller drives.
type Deps struct {
	Inputs  hal.Inputs
	Outputs hal.Outputs
	Blinker hal.Blinker
	Clock   hal.Clock
}

// Change describes one state transition.
type Change struct {
	From  StateID
	To    StateID
	Event Event
	At    uint64
}

// Observer is notified of every transition, in order. It runs with the
// controller locked and must not call back into it.
type Observer func(Change)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger replaces the no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithMetrics records dispatch and transition metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithObserver adds a transition observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// WithDispatcherOptions passes extra options to the hsm dispatcher.
func WithDispatcherOptions(opts ...hsm.Option) Option {
	return func(c *Controller) {
		c.dispatchOpts = append(c.dispatchOpts, opts...)
	}
}

// Controller is the door control instance.
type Controller struct {
	mu sync.Mutex

	cfg   Config
	in    hal.Inputs
	out   hal.Outputs
	blink hal.Blinker
	clock hal.Clock

	log          *zap.SugaredLogger
	metrics      *metrics.Metrics
	observers    []Observer
	dispatchOpts []hsm.Option

	table      *hsm.Table
	machine    *hsm.Machine
	dispatcher *hsm.Dispatcher
	timers     [NumTimers]Timer

	transitions uint64
	dropped     uint64
	lastEvent   hsm.EventID
	lastState   *hsm.State
	reported    *hsm.State
}

// New builds a controller. The machine has no current state until Setup.
func New(deps Deps, cfg Config, opts ...Option) (*Controller, error) {
	if deps.Inputs == nil || deps.Outputs == nil || deps.Blinker == nil || deps.Clock == nil {
		return nil, errors.New("door: inputs, outputs, blinker and clock are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "door: invalid config")
	}
	c := &Controller{
		cfg:   cfg,
		in:    deps.Inputs,
		out:   deps.Outputs,
		blink: deps.Blinker,
		clock: deps.Clock,
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}

	table, err := c.buildTable()
	if err != nil {
		return nil, errors.Wrap(err, "door: building state table")
	}
	c.table = table

	mopts := []hsm.MachineOption{hsm.WithName("door-control")}
	if cfg.QueueLimit > 0 {
		mopts = append(mopts, hsm.WithQueueLimit(cfg.QueueLimit, hsm.DropNewest))
	}
	c.machine = hsm.NewMachine(nil, mopts...)

	dopts := []hsm.Option{
		hsm.WithEventLogger(c.logEvent),
		hsm.WithResultLogger(c.logResult),
	}
	c.dispatcher = hsm.NewDispatcher(append(dopts, c.dispatchOpts...)...)

	c.timers[TimerUnlock] = Timer{Timeout: millis(cfg.UnlockTimeout), handler: c.unlockTimeout}
	c.timers[TimerOpen] = Timer{Timeout: millis(cfg.OpenTimeout), handler: c.openTimeout}
	return c, nil
}

// Setup applies the blink interval and enters the init state.
func (c *Controller) Setup() hsm.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blink.SetInterval(c.cfg.BlinkInterval)
	return c.transition(StateInit)
}

// Process runs one control loop iteration: event generation, the timer
// pass and dispatch. A result other than Handled has already been logged.
// Before Setup it does nothing and reports Unhandled.
func (c *Controller) Process() hsm.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.State() == nil {
		c.log.Error("Process called before Setup")
		return hsm.Unhandled
	}
	c.generateEvents()
	c.processTimers(c.clock.NowMillis())
	return c.dispatch()
}

// Dispatch drains the queued events without sampling inputs or timers.
func (c *Controller) Dispatch() hsm.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dispatch()
}

// Post queues evt. It reports false when the queue dropped it.
func (c *Controller) Post(evt Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.post(evt)
}

// SetDoorTimer installs a new timeout, in seconds for the unlock timer and
// in minutes for the open timer. A running countdown keeps its reference.
func (c *Controller) SetDoorTimer(tt TimerType, value uint32) error {
	var d time.Duration
	switch tt {
	case TimerUnlock:
		d = time.Duration(value) * time.Second
	case TimerOpen:
		d = time.Duration(value) * time.Minute
	default:
		return errors.Newf("door: unknown timer %d", int(tt))
	}
	return c.SetTimeout(tt, d)
}

// SetTimeout installs a timeout of d. Zero disables the timer.
func (c *Controller) SetTimeout(tt TimerType, d time.Duration) error {
	if tt < 0 || tt >= NumTimers {
		return errors.Newf("door: unknown timer %d", int(tt))
	}
	if d < 0 {
		return errors.Newf("door: negative %s timeout %s", tt, d)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timers[tt].Timeout = millis(d)
	if tt == TimerUnlock {
		c.cfg.UnlockTimeout = d
	} else {
		c.cfg.OpenTimeout = d
	}
	c.log.Infof("%s timeout set to %s", tt, d)
	return nil
}

// SetBlinkInterval changes the LED blink period.
func (c *Controller) SetBlinkInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.BlinkInterval = d
	c.blink.SetInterval(d)
}

// Config returns the timing currently installed.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg
}

// State returns the current state, StateNone before Setup.
func (c *Controller) State() StateID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state()
}

// Timer returns a copy of one door timer, or a zero Timer for an unknown
// type.
func (c *Controller) Timer(tt TimerType) Timer {
	if tt < 0 || tt >= NumTimers {
		return Timer{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.timers[tt]
	t.handler = nil
	return t
}

// Snapshot is a consistent view of the controller.
type Snapshot struct {
	State       StateID
	Pending     []Event
	Timers      [NumTimers]Timer
	Remaining   [NumTimers]time.Duration
	Config      Config
	Transitions uint64
	Dropped     uint64
	Now         uint64
}

// Snapshot captures the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.NowMillis()
	s := Snapshot{
		State:       c.state(),
		Config:      c.cfg,
		Transitions: c.transitions,
		Dropped:     c.machine.Queue().Dropped(),
		Now:         now,
	}
	for _, evt := range c.machine.Queue().Events() {
		s.Pending = append(s.Pending, Event(evt))
	}
	for i := range c.timers {
		s.Timers[i] = c.timers[i]
		s.Timers[i].handler = nil
		s.Remaining[i] = c.timers[i].Remaining(now)
	}
	return s
}

// Machine exposes the underlying hsm machine. Callers must not use it
// concurrently with the controller.
func (c *Controller) Machine() *hsm.Machine { return c.machine }

// Table returns the state table.
func (c *Controller) Table() *hsm.Table { return c.table }

func (c *Controller) state() StateID {
	if s := c.machine.State(); s != nil {
		return StateID(s.ID)
	}
	return StateNone
}

func (c *Controller) post(evt Event) bool {
	if !c.machine.Post(evt.ID()) {
		c.log.Warnf("Event %s dropped, queue full", evt)
		return false
	}
	c.metrics.ObserveEvent(evt.String())
	return true
}

func (c *Controller) transition(to StateID) hsm.Result {
	return c.transitionOn(to, Event(c.machine.CurrentEvent()))
}

// transitionOn records the change before switching so that transitions made
// by the target's entry function are reported after this one.
func (c *Controller) transitionOn(to StateID, evt Event) hsm.Result {
	target := c.table.State(hsm.StateID(to))
	ch := Change{
		From:  c.state(),
		To:    to,
		Event: evt,
		At:    c.clock.NowMillis(),
	}
	c.transitions++
	c.log.Debugf("Transition %s -> %s on %s", ch.From, ch.To, ch.Event)
	c.metrics.ObserveTransition(ch.From.String(), ch.To.String(), int(ch.To), ch.To == StateFault)
	for _, o := range c.observers {
		o(ch)
	}
	return hsm.Switch(c.machine, target)
}

func (c *Controller) dispatch() hsm.Result {
	r := c.dispatcher.Dispatch(c.machine)
	c.metrics.ObserveDispatch(r.String())
	if d := c.machine.Queue().Dropped(); d > c.dropped {
		c.metrics.ObserveDropped(int(d - c.dropped))
		c.dropped = d
	}
	if r != hsm.Handled {
		head, _ := c.machine.Queue().Peek()
		c.log.Errorf("Event is not handled: %s in state %s", Event(head), c.state())
	}
	return r
}

// generateEvents converts the door switch levels into events. Every
// iteration queues a close or open event per door plus a combined event
// when both doors agree; states ignore the ones they do not care about.
func (c *Controller) generateEvents() {
	closed1 := c.in.Status(hal.Switch1).Active()
	closed2 := c.in.Status(hal.Switch2).Active()

	if !closed1 && !closed2 {
		c.post(EventDoorsOpen)
	}
	if closed1 && closed2 {
		c.post(EventDoorsClosed)
	}
	for d, closed := range [hal.NumDoors]bool{closed1, closed2} {
		if closed {
			c.post(perDoor[d].close)
		} else {
			c.post(perDoor[d].open)
		}
	}
}

// processTimers fires at most one expired timer per call.
func (c *Controller) processTimers(now uint64) {
	for i := range c.timers {
		t := &c.timers[i]
		if t.Expired(now) {
			tt := TimerType(i)
			c.log.Infof("%s timer expired", tt)
			c.metrics.ObserveTimerExpiry(tt.String())
			t.stop()
			t.handler(now)
			return
		}
		if t.Running() && t.Timeout != 0 {
			c.log.Debugf("%s timer: %s left", TimerType(i), t.Remaining(now))
		}
	}
}

func (c *Controller) unlockTimeout(uint64) {
	for d := range perDoor {
		c.post(perDoor[d].unlockTimeout)
	}
}

// openTimeout runs outside dispatch, so the change carries no event.
func (c *Controller) openTimeout(uint64) {
	c.transitionOn(StateFault, EventNone)
}

func (c *Controller) logEvent(_ int, st *hsm.State, evt hsm.EventID) {
	if evt == c.lastEvent && st == c.lastState {
		return
	}
	c.lastEvent, c.lastState = evt, st
	c.log.Debugf("Process event %s in state %s", Event(evt), st)
}

func (c *Controller) logResult(st *hsm.State, r hsm.Result) {
	if st == c.reported {
		return
	}
	c.reported = st
	c.log.Infof("State %s (%s)", st, r)
}
