package door

import (
	"fmt"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/hal"
)

// StateID identifies a door control state.
type StateID hsm.StateID

// StateNone stands in for the absent source of the first transition.
const StateNone StateID = -1

const (
	StateInit StateID = iota
	StateIdle
	StateFault
	StateDoor1Unlocked
	StateDoor1Open
	StateDoor2Unlocked
	StateDoor2Open
	numStates
)

var stateNames = [numStates]string{
	StateInit:          "init",
	StateIdle:          "idle",
	StateFault:         "fault",
	StateDoor1Unlocked: "door1-unlocked",
	StateDoor1Open:     "door1-open",
	StateDoor2Unlocked: "door2-unlocked",
	StateDoor2Open:     "door2-open",
}

func (s StateID) String() string {
	if s == StateNone {
		return "none"
	}
	if s >= 0 && s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState maps a state name back to its StateID.
func ParseState(name string) (StateID, bool) {
	for i, n := range stateNames {
		if n == name {
			return StateID(i), true
		}
	}
	return StateNone, false
}

// States lists every state in id order.
func States() []StateID {
	out := make([]StateID, numStates)
	for i := range out {
		out[i] = StateID(i)
	}
	return out
}

var (
	unlockedState = [hal.NumDoors]StateID{StateDoor1Unlocked, StateDoor2Unlocked}
	openState     = [hal.NumDoors]StateID{StateDoor1Open, StateDoor2Open}
)

// Blink patterns shown while a state is active.
var (
	FaultPattern = hal.BlinkPattern{Door1: hal.Magenta, Door2: hal.Magenta}
	Door1Pattern = hal.BlinkPattern{Door1: hal.Green, Door2: hal.Red}
	Door2Pattern = hal.BlinkPattern{Door1: hal.Red, Door2: hal.Green}

	doorPattern = [hal.NumDoors]hal.BlinkPattern{Door1Pattern, Door2Pattern}
)

// IdleColor is shown steadily on both LEDs while idle.
const IdleColor = hal.White
