// Package hal defines the hardware collaborators of the door controller and
// reference implementations: input debouncing, RGB LED and magnet output, a
// blink driver, a simulated pin bank and clocks.
package hal

import "fmt"

// Door selects one of the two doors.
type Door int

const (
	Door1 Door = iota
	Door2
	NumDoors
)

func (d Door) String() string {
	switch d {
	case Door1:
		return "door1"
	case Door2:
		return "door2"
	default:
		return fmt.Sprintf("door(%d)", int(d))
	}
}

// Valid reports whether d names a real door.
func (d Door) Valid() bool { return d >= 0 && d < NumDoors }

// Input selects a debounced digital input.
type Input int

const (
	Button1 Input = iota
	Button2
	Switch1
	Switch2
	NumInputs
)

var inputNames = [NumInputs]string{"button1", "button2", "switch1", "switch2"}

func (in Input) String() string {
	if in.Valid() {
		return inputNames[in]
	}
	return fmt.Sprintf("input(%d)", int(in))
}

// Valid reports whether in names a real input.
func (in Input) Valid() bool { return in >= 0 && in < NumInputs }

// ParseInput maps an input name back to its Input.
func ParseInput(name string) (Input, bool) {
	for i, n := range inputNames {
		if n == name {
			return Input(i), true
		}
	}
	return 0, false
}

// LockState is the state of a door magnet.
type LockState int

const (
	Unlocked LockState = iota
	Locked
)

func (s LockState) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// InputState is the debounced logical level of an input.
type InputState int

const (
	Inactive InputState = iota
	Active
)

func (s InputState) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// DebounceState tells whether the input has settled.
type DebounceState int

const (
	Unstable DebounceState = iota
	Stable
)

func (s DebounceState) String() string {
	if s == Stable {
		return "stable"
	}
	return "unstable"
}

// InputStatus is what a debounced read returns.
type InputStatus struct {
	State    InputState
	Debounce DebounceState
}

// Active reports whether the input is active.
func (s InputStatus) Active() bool { return s.State == Active }

// Stable reports whether the input has settled.
func (s InputStatus) Stable() bool { return s.Debounce == Stable }

func (s InputStatus) String() string {
	return s.State.String() + "/" + s.Debounce.String()
}

// Color of an RGB status LED.
type Color int

const (
	Red Color = iota
	Green
	Blue
	Yellow
	Magenta
	Cyan
	White
	NumColors
)

var colorNames = [NumColors]string{"red", "green", "blue", "yellow", "magenta", "cyan", "white"}

func (c Color) String() string {
	if c >= 0 && c < NumColors {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// BlinkPattern is the pair of colors shown while blinking, one per door.
type BlinkPattern struct {
	Door1 Color
	Door2 Color
}
