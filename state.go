package hsm

import "fmt"

// Result is what a handler reports back to the dispatcher.
type Result int

const (
	// Handled consumes the event.
	Handled Result = iota
	// Unhandled offers the event to the parent state.
	Unhandled
	// TriggeredToSelf keeps the event queued and restarts dispatch.
	TriggeredToSelf
)

func (r Result) String() string {
	switch r {
	case Handled:
		return "handled"
	case Unhandled:
		return "unhandled"
	case TriggeredToSelf:
		return "triggered-to-self"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// StateID identifies a state within a table.
type StateID int

// Handler processes evt on behalf of m. The same signature is used for event
// handlers and for entry and exit functions.
type Handler func(m *Machine, evt EventID) Result

// State is a node of the state graph. Nil Handler, Entry and Exit are no-ops.
// Level is the depth from the root: 0 for a top-level state, and strictly
// greater than the parent's level otherwise.
type State struct {
	ID      StateID
	Name    string
	Handler Handler
	Entry   Handler
	Exit    Handler
	Parent  *State
	Level   int
}

func (s *State) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("state(%d)", int(s.ID))
}

// IsDescendantOf reports whether s is anc or lies below it.
func (s *State) IsDescendantOf(anc *State) bool {
	for p := s; p != nil; p = p.Parent {
		if p == anc {
			return true
		}
	}
	return false
}
