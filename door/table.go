package door

// Transition is one row of the door control transition table. Timer marks
// transitions taken by the open timer pass rather than by an event handler;
// their Event is the zero value.
type Transition struct {
	From  StateID
	Event Event
	To    StateID
	Timer bool
}

// Transitions returns the transition table the handlers implement. Events
// not listed for a state are consumed without effect.
func Transitions() []Transition {
	return []Transition{
		{From: StateInit, Event: EventDoorsClosed, To: StateIdle},
		{From: StateInit, Event: EventDoor1Open, To: StateFault},
		{From: StateInit, Event: EventDoor2Open, To: StateFault},

		{From: StateIdle, Event: EventDoor1Unlock, To: StateDoor1Unlocked},
		{From: StateIdle, Event: EventDoor2Unlock, To: StateDoor2Unlocked},
		{From: StateIdle, Event: EventDoor1Open, To: StateFault},
		{From: StateIdle, Event: EventDoor2Open, To: StateFault},
		{From: StateIdle, Event: EventDoorsOpen, To: StateFault},

		{From: StateFault, Event: EventDoorsClosed, To: StateIdle},

		{From: StateDoor1Unlocked, Event: EventDoor1UnlockTimeout, To: StateIdle},
		{From: StateDoor1Unlocked, Event: EventDoor1Open, To: StateDoor1Open},
		{From: StateDoor1Open, Event: EventDoor1Close, To: StateIdle},
		{From: StateDoor1Open, Event: EventDoor2Open, To: StateFault},
		{From: StateDoor1Open, To: StateFault, Timer: true},

		{From: StateDoor2Unlocked, Event: EventDoor2UnlockTimeout, To: StateIdle},
		{From: StateDoor2Unlocked, Event: EventDoor2Open, To: StateDoor2Open},
		{From: StateDoor2Open, Event: EventDoor2Close, To: StateIdle},
		{From: StateDoor2Open, Event: EventDoor1Open, To: StateFault},
		{From: StateDoor2Open, To: StateFault, Timer: true},
	}
}

// Next looks up the target of evt in state from. ok is false when the
// event leaves the state unchanged.
func Next(from StateID, evt Event) (to StateID, ok bool) {
	for _, t := range Transitions() {
		if !t.Timer && t.From == from && t.Event == evt {
			return t.To, true
		}
	}
	return from, false
}
