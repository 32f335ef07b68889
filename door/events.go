package door

import (
	"fmt"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/hal"
)

// Event is a door control event. The zero value is hsm.NoEvent.
type Event hsm.EventID

// EventNone marks changes that no event caused, such as a timer expiry.
const EventNone = Event(hsm.NoEvent)

const (
	EventInitDone Event = iota + 1
	EventDoor1Unlock
	EventDoor1UnlockTimeout
	EventDoor1Open
	EventDoor1Close
	EventDoor1OpenTimeout
	EventDoor2Unlock
	EventDoor2UnlockTimeout
	EventDoor2Open
	EventDoor2Close
	EventDoor2OpenTimeout
	EventDoorsOpen
	EventDoorsClosed
	numEvents
)

var eventNames = [numEvents]string{
	EventNone:               "none",
	EventInitDone:           "init-done",
	EventDoor1Unlock:        "door1-unlock",
	EventDoor1UnlockTimeout: "door1-unlock-timeout",
	EventDoor1Open:          "door1-open",
	EventDoor1Close:         "door1-close",
	EventDoor1OpenTimeout:   "door1-open-timeout",
	EventDoor2Unlock:        "door2-unlock",
	EventDoor2UnlockTimeout: "door2-unlock-timeout",
	EventDoor2Open:          "door2-open",
	EventDoor2Close:         "door2-close",
	EventDoor2OpenTimeout:   "door2-open-timeout",
	EventDoorsOpen:          "doors-open",
	EventDoorsClosed:        "doors-closed",
}

func (e Event) String() string {
	if e < numEvents {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", uint32(e))
}

// ID converts e for the hsm engine.
func (e Event) ID() hsm.EventID { return hsm.EventID(e) }

// ParseEvent maps an event name back to its Event.
func ParseEvent(name string) (Event, bool) {
	for i, n := range eventNames {
		if i > 0 && n == name {
			return Event(i), true
		}
	}
	return 0, false
}

// Events lists every defined event.
func Events() []Event {
	out := make([]Event, 0, numEvents-1)
	for e := EventInitDone; e < numEvents; e++ {
		out = append(out, e)
	}
	return out
}

type doorEvents struct {
	unlock, unlockTimeout, open, close Event
}

var perDoor = [hal.NumDoors]doorEvents{
	hal.Door1: {EventDoor1Unlock, EventDoor1UnlockTimeout, EventDoor1Open, EventDoor1Close},
	hal.Door2: {EventDoor2Unlock, EventDoor2UnlockTimeout, EventDoor2Open, EventDoor2Close},
}

func other(d hal.Door) hal.Door {
	if d == hal.Door1 {
		return hal.Door2
	}
	return hal.Door1
}
