// Package testutil provides deterministic fakes of the hardware collaborators
// so controller scenarios can be replayed without goroutines or wall-clock
// time.
package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/comalice/hsm/hal"
)

// ManualClock is a hal.Clock that only moves when told to. Sleep advances it,
// so bounded busy-waits terminate.
type ManualClock struct {
	mu      sync.Mutex
	now     uint64
	sleeps  int
	onSleep func(now uint64)
}

// NewManualClock returns a clock reading start milliseconds.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) NowMillis() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the clock by d, at least one millisecond.
func (c *ManualClock) Sleep(d time.Duration) {
	ms := uint64(d.Milliseconds())
	if ms == 0 {
		ms = 1
	}
	c.mu.Lock()
	c.now += ms
	c.sleeps++
	hook := c.onSleep
	now := c.now
	c.mu.Unlock()
	if hook != nil {
		hook(now)
	}
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += uint64(d.Milliseconds())
	c.mu.Unlock()
}

// Set moves the clock to ms.
func (c *ManualClock) Set(ms uint64) {
	c.mu.Lock()
	c.now = ms
	c.mu.Unlock()
}

// Sleeps returns how many times Sleep was called.
func (c *ManualClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// OnSleep installs a hook run after every Sleep with the new time.
func (c *ManualClock) OnSleep(fn func(now uint64)) {
	c.mu.Lock()
	c.onSleep = fn
	c.mu.Unlock()
}

// ScriptedInputs is a hal.Inputs returning preset statuses. By default both
// doors are closed and both buttons released, all stable.
type ScriptedInputs struct {
	mu     sync.Mutex
	status [hal.NumInputs]hal.InputStatus
	reads  [hal.NumInputs]int
}

var (
	// Closed is a settled active switch, or a held button.
	Closed = hal.InputStatus{State: hal.Active, Debounce: hal.Stable}
	// Pressed is an alias of Closed for buttons.
	Pressed = Closed
	// Open is a settled inactive switch, or a released button.
	Open = hal.InputStatus{State: hal.Inactive, Debounce: hal.Stable}
	// Released is an alias of Open for buttons.
	Released = Open
	// Bouncing is an input that has not settled.
	Bouncing = hal.InputStatus{State: hal.Inactive, Debounce: hal.Unstable}
)

// NewScriptedInputs returns inputs with both doors closed.
func NewScriptedInputs() *ScriptedInputs {
	in := &ScriptedInputs{}
	in.status[hal.Button1] = Released
	in.status[hal.Button2] = Released
	in.status[hal.Switch1] = Closed
	in.status[hal.Switch2] = Closed
	return in
}

func (s *ScriptedInputs) Status(in hal.Input) hal.InputStatus {
	if !in.Valid() {
		return hal.InputStatus{State: hal.Inactive, Debounce: hal.Unstable}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[in]++
	return s.status[in]
}

// Set presets the status of in.
func (s *ScriptedInputs) Set(in hal.Input, st hal.InputStatus) {
	s.mu.Lock()
	s.status[in] = st
	s.mu.Unlock()
}

// Reads returns how many times in was sampled.
func (s *ScriptedInputs) Reads(in hal.Input) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[in]
}

// LEDState is the last command sent to a status LED.
type LEDState struct {
	On    bool
	Color hal.Color
}

func (l LEDState) String() string {
	if !l.On {
		return "off"
	}
	return l.Color.String()
}

// RecordingOutputs is a hal.Outputs remembering the last command per door
// and the full call history.
type RecordingOutputs struct {
	mu    sync.Mutex
	locks [hal.NumDoors]hal.LockState
	leds  [hal.NumDoors]LEDState
	calls []string
}

// NewRecordingOutputs returns outputs with both doors locked and LEDs off.
func NewRecordingOutputs() *RecordingOutputs {
	return &RecordingOutputs{locks: [hal.NumDoors]hal.LockState{hal.Locked, hal.Locked}}
}

func (o *RecordingOutputs) SetLock(d hal.Door, s hal.LockState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if d.Valid() {
		o.locks[d] = s
	}
	o.calls = append(o.calls, fmt.Sprintf("lock %s %s", d, s))
}

func (o *RecordingOutputs) SetLED(d hal.Door, on bool, c hal.Color) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if d.Valid() {
		o.leds[d] = LEDState{On: on, Color: c}
	}
	o.calls = append(o.calls, fmt.Sprintf("led %s %s", d, LEDState{On: on, Color: c}))
}

// Lock returns the last lock command for d.
func (o *RecordingOutputs) Lock(d hal.Door) hal.LockState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.locks[d]
}

// LED returns the last LED command for d.
func (o *RecordingOutputs) LED(d hal.Door) LEDState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.leds[d]
}

// Calls returns the command history.
func (o *RecordingOutputs) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.calls))
	copy(out, o.calls)
	return out
}

// Reset clears the command history.
func (o *RecordingOutputs) Reset() {
	o.mu.Lock()
	o.calls = nil
	o.mu.Unlock()
}

// RecordingBlinker is a hal.Blinker that records requests instead of
// toggling anything.
type RecordingBlinker struct {
	mu       sync.Mutex
	running  bool
	pattern  hal.BlinkPattern
	interval time.Duration
	starts   int
	stops    int
}

func (b *RecordingBlinker) Start(p hal.BlinkPattern) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = true
	b.pattern = p
	b.starts++
}

func (b *RecordingBlinker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
	b.stops++
}

func (b *RecordingBlinker) SetInterval(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interval = d
}

// Running reports whether a pattern is active.
func (b *RecordingBlinker) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Pattern returns the last started pattern.
func (b *RecordingBlinker) Pattern() hal.BlinkPattern {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pattern
}

// Interval returns the last interval set.
func (b *RecordingBlinker) Interval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interval
}

// Starts returns how many times Start was called.
func (b *RecordingBlinker) Starts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.starts
}

// Stops returns how many times Stop was called.
func (b *RecordingBlinker) Stops() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stops
}
