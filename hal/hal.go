package hal

import "time"

// Inputs returns the debounced status of an input. An invalid input yields
// {Inactive, Unstable}.
type Inputs interface {
	Status(in Input) InputStatus
}

// Outputs drives door magnets and status LEDs. Both calls are idempotent.
type Outputs interface {
	SetLock(d Door, s LockState)
	SetLED(d Door, on bool, c Color)
}

// Blinker toggles both status LEDs periodically in the background. It must
// only ever write LED outputs.
type Blinker interface {
	Start(p BlinkPattern)
	Stop()
	SetInterval(d time.Duration)
}

// Clock is a monotonic millisecond clock. Sleep is the yield point used by
// bounded busy-waits.
type Clock interface {
	NowMillis() uint64
	Sleep(d time.Duration)
}

// PinReader samples a raw digital input pin.
type PinReader interface {
	Read(p Pin) bool
}

// PinWriter drives a raw digital output pin.
type PinWriter interface {
	Write(p Pin, high bool)
}

// Pin is a raw digital I/O line.
type Pin int

const (
	PinButton1 Pin = iota
	PinButton2
	PinSwitch1
	PinSwitch2
	PinMagnet1
	PinMagnet2
	PinLED1R
	PinLED1G
	PinLED1B
	PinLED2R
	PinLED2G
	PinLED2B
	NumPins
)

var pinNames = [NumPins]string{
	"button1", "button2", "switch1", "switch2",
	"magnet1", "magnet2",
	"led1r", "led1g", "led1b",
	"led2r", "led2g", "led2b",
}

func (p Pin) String() string {
	if p >= 0 && p < NumPins {
		return pinNames[p]
	}
	return "pin?"
}
