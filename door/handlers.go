package door

import (
	"github.com/comalice/hsm"
	"github.com/comalice/hsm/hal"
)

func (c *Controller) buildTable() (*hsm.Table, error) {
	b := hsm.NewBuilder().
		State(StateInit.String(),
			hsm.WithID(hsm.StateID(StateInit)),
			hsm.WithEntry(c.initEntry),
			hsm.WithHandler(c.initHandler)).
		State(StateIdle.String(),
			hsm.WithID(hsm.StateID(StateIdle)),
			hsm.WithEntry(c.idleEntry),
			hsm.WithHandler(c.idleHandler),
			hsm.WithExit(c.ledsOff)).
		State(StateFault.String(),
			hsm.WithID(hsm.StateID(StateFault)),
			hsm.WithEntry(c.faultEntry),
			hsm.WithHandler(c.faultHandler),
			hsm.WithExit(c.stopBlink))
	for d := hal.Door1; d < hal.NumDoors; d++ {
		b.State(unlockedState[d].String(),
			hsm.WithID(hsm.StateID(unlockedState[d])),
			hsm.WithEntry(c.unlockedEntry(d)),
			hsm.WithHandler(c.unlockedHandler(d)),
			hsm.WithExit(c.unlockedExit(d)))
		b.State(openState[d].String(),
			hsm.WithID(hsm.StateID(openState[d])),
			hsm.WithEntry(c.openEntry),
			hsm.WithHandler(c.openHandler(d)),
			hsm.WithExit(c.openExit(d)))
	}
	return b.Build()
}

func (c *Controller) lockAll() {
	c.out.SetLock(hal.Door1, hal.Locked)
	c.out.SetLock(hal.Door2, hal.Locked)
}

func (c *Controller) ledsOff(*hsm.Machine, hsm.EventID) hsm.Result {
	c.out.SetLED(hal.Door1, false, IdleColor)
	c.out.SetLED(hal.Door2, false, IdleColor)
	return hsm.Handled
}

func (c *Controller) stopBlink(m *hsm.Machine, evt hsm.EventID) hsm.Result {
	c.blink.Stop()
	return c.ledsOff(m, evt)
}

// initEntry locks both doors and waits, bounded by DebounceStableTimeout,
// for both switches to settle. It then reports the door positions as events.
func (c *Controller) initEntry(*hsm.Machine, hsm.EventID) hsm.Result {
	c.lockAll()

	start := c.clock.NowMillis()
	limit := millis(c.cfg.DebounceStableTimeout)
	var sw1, sw2 hal.InputStatus
	for {
		sw1 = c.in.Status(hal.Switch1)
		sw2 = c.in.Status(hal.Switch2)
		if sw1.Stable() && sw2.Stable() {
			break
		}
		if c.clock.NowMillis()-start >= limit {
			c.log.Errorf("Door switches not stable after %s (switch1 %s, switch2 %s)",
				c.cfg.DebounceStableTimeout, sw1, sw2)
			return c.transition(StateFault)
		}
		c.clock.Sleep(c.cfg.InitPollInterval)
	}

	if sw1.Active() && sw2.Active() {
		c.post(EventDoorsClosed)
	}
	if !sw1.Active() {
		c.post(EventDoor1Open)
	}
	if !sw2.Active() {
		c.post(EventDoor2Open)
	}
	return hsm.Handled
}

func (c *Controller) initHandler(_ *hsm.Machine, evt hsm.EventID) hsm.Result {
	switch Event(evt) {
	case EventDoorsClosed:
		return c.transition(StateIdle)
	case EventDoor1Open, EventDoor2Open:
		return c.transition(StateFault)
	}
	return hsm.Handled
}

func (c *Controller) idleEntry(*hsm.Machine, hsm.EventID) hsm.Result {
	c.out.SetLED(hal.Door1, true, IdleColor)
	c.out.SetLED(hal.Door2, true, IdleColor)
	return hsm.Handled
}

// idleHandler unlocks a door when exactly its button is pressed. Any open
// door while idle is a fault.
func (c *Controller) idleHandler(_ *hsm.Machine, evt hsm.EventID) hsm.Result {
	switch Event(evt) {
	case EventDoor1Unlock:
		return c.transition(StateDoor1Unlocked)
	case EventDoor2Unlock:
		return c.transition(StateDoor2Unlocked)
	case EventDoor1Open, EventDoor2Open, EventDoorsOpen:
		return c.transition(StateFault)
	}

	b1 := c.in.Status(hal.Button1).Active()
	b2 := c.in.Status(hal.Button2).Active()
	switch {
	case b1 && !b2:
		c.post(EventDoor1Unlock)
	case b2 && !b1:
		c.post(EventDoor2Unlock)
	default:
		c.lockAll()
	}
	return hsm.Handled
}

func (c *Controller) faultEntry(*hsm.Machine, hsm.EventID) hsm.Result {
	c.log.Warn("Entering fault state, close both doors to recover")
	c.blink.Start(FaultPattern)
	return hsm.Handled
}

func (c *Controller) faultHandler(_ *hsm.Machine, evt hsm.EventID) hsm.Result {
	if Event(evt) == EventDoorsClosed {
		return c.transition(StateIdle)
	}
	return hsm.Handled
}

func (c *Controller) unlockedEntry(d hal.Door) hsm.Handler {
	return func(*hsm.Machine, hsm.EventID) hsm.Result {
		c.out.SetLock(d, hal.Unlocked)
		c.blink.Start(doorPattern[d])
		c.timers[TimerUnlock].start(c.clock.NowMillis())
		return hsm.Handled
	}
}

func (c *Controller) unlockedHandler(d hal.Door) hsm.Handler {
	ev := perDoor[d]
	return func(_ *hsm.Machine, evt hsm.EventID) hsm.Result {
		switch Event(evt) {
		case ev.unlockTimeout:
			c.transition(StateIdle)
		case ev.open:
			c.transition(openState[d])
		}
		return hsm.Handled
	}
}

// unlockedExit relocks the door only when going back to idle; an opened
// door stays unlocked and blinking until it is closed again.
func (c *Controller) unlockedExit(d hal.Door) hsm.Handler {
	return func(m *hsm.Machine, evt hsm.EventID) hsm.Result {
		c.timers[TimerUnlock].stop()
		if next := m.State(); next != nil && StateID(next.ID) == StateIdle {
			c.out.SetLock(d, hal.Locked)
			return c.stopBlink(m, evt)
		}
		return hsm.Handled
	}
}

func (c *Controller) openEntry(*hsm.Machine, hsm.EventID) hsm.Result {
	c.timers[TimerOpen].start(c.clock.NowMillis())
	return hsm.Handled
}

func (c *Controller) openHandler(d hal.Door) hsm.Handler {
	ev := perDoor[d]
	otherOpen := perDoor[other(d)].open
	return func(_ *hsm.Machine, evt hsm.EventID) hsm.Result {
		switch Event(evt) {
		case ev.close:
			c.transition(StateIdle)
		case otherOpen:
			c.log.Errorf("%s opened while %s is open", other(d), d)
			c.transition(StateFault)
		}
		return hsm.Handled
	}
}

func (c *Controller) openExit(d hal.Door) hsm.Handler {
	return func(m *hsm.Machine, evt hsm.EventID) hsm.Result {
		c.out.SetLock(d, hal.Locked)
		c.timers[TimerOpen].stop()
		return c.stopBlink(m, evt)
	}
}
