package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/hsm/hal"
)

// step changes the simulated pins after a pause.
type step struct {
	after  time.Duration
	desc   string
	button [hal.NumDoors]bool
	open   [hal.NumDoors]bool
}

// walkthrough unlocks and opens each door in turn, then opens both doors to
// provoke a fault and closes them again to recover.
func walkthrough() []step {
	return []step{
		{after: time.Second, desc: "press button 1", button: [2]bool{true, false}},
		{after: 300 * time.Millisecond, desc: "release button 1"},
		{after: time.Second, desc: "open door 1", open: [2]bool{true, false}},
		{after: 2 * time.Second, desc: "close door 1"},
		{after: time.Second, desc: "press button 2", button: [2]bool{false, true}},
		{after: 300 * time.Millisecond, desc: "release button 2"},
		{after: 6 * time.Second, desc: "let the unlock time out"},
		{after: time.Second, desc: "press button 2", button: [2]bool{false, true}},
		{after: 300 * time.Millisecond, desc: "release button 2"},
		{after: time.Second, desc: "open door 2", open: [2]bool{false, true}},
		{after: time.Second, desc: "open door 1 as well", open: [2]bool{true, true}},
		{after: 2 * time.Second, desc: "close both doors"},
	}
}

func simulate(ctx context.Context, pins *hal.SimPins, steps []step, log *zap.SugaredLogger) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for i, s := range steps {
		timer.Reset(s.after)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		log.Infof("Step %d/%d: %s", i+1, len(steps), s.desc)
		for d := hal.Door1; d < hal.NumDoors; d++ {
			pins.SetButton(d, s.button[d])
			pins.SetDoorOpen(d, s.open[d])
		}
	}
	log.Infof("Walk-through complete")
	return nil
}
