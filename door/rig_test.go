package door_test

import (
	. "github.com/onsi/gomega"

	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/hal"
	"github.com/comalice/hsm/testutil"
)

const startMillis = 1000

// rig wires a controller to deterministic fakes.
type rig struct {
	clock   *testutil.ManualClock
	in      *testutil.ScriptedInputs
	out     *testutil.RecordingOutputs
	blink   *testutil.RecordingBlinker
	ctl     *door.Controller
	changes []door.Change
}

func newRig(cfg door.Config, opts ...door.Option) *rig {
	r := &rig{
		clock: testutil.NewManualClock(startMillis),
		in:    testutil.NewScriptedInputs(),
		out:   testutil.NewRecordingOutputs(),
		blink: &testutil.RecordingBlinker{},
	}
	opts = append(opts, door.WithObserver(func(ch door.Change) {
		r.changes = append(r.changes, ch)
	}))
	ctl, err := door.New(door.Deps{
		Inputs:  r.in,
		Outputs: r.out,
		Blinker: r.blink,
		Clock:   r.clock,
	}, cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	r.ctl = ctl
	return r
}

func (r *rig) inject(events ...door.Event) {
	for _, evt := range events {
		Expect(r.ctl.Post(evt)).To(BeTrue())
	}
	r.ctl.Dispatch()
}

// driveTo brings a freshly built rig into s with an empty queue, using
// only the documented transitions.
func (r *rig) driveTo(s door.StateID) {
	r.ctl.Setup()
	switch s {
	case door.StateInit:
		r.ctl.Machine().Queue().Reset()
	case door.StateIdle:
		r.ctl.Dispatch()
	case door.StateFault:
		r.ctl.Dispatch()
		r.inject(door.EventDoor1Open)
	case door.StateDoor1Unlocked:
		r.ctl.Dispatch()
		r.inject(door.EventDoor1Unlock)
	case door.StateDoor1Open:
		r.ctl.Dispatch()
		r.inject(door.EventDoor1Unlock, door.EventDoor1Open)
	case door.StateDoor2Unlocked:
		r.ctl.Dispatch()
		r.inject(door.EventDoor2Unlock)
	case door.StateDoor2Open:
		r.ctl.Dispatch()
		r.inject(door.EventDoor2Unlock, door.EventDoor2Open)
	}
	Expect(r.ctl.State()).To(Equal(s))
	Expect(r.ctl.Machine().Pending()).To(BeZero())
}

func (r *rig) setDoorOpen(d hal.Door, open bool) {
	st := testutil.Closed
	if open {
		st = testutil.Open
	}
	in := hal.Switch1
	if d == hal.Door2 {
		in = hal.Switch2
	}
	r.in.Set(in, st)
}

func (r *rig) lastChange() door.Change {
	Expect(r.changes).NotTo(BeEmpty())
	return r.changes[len(r.changes)-1]
}
