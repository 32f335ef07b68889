package hal

import (
	"sync"

	"go.uber.org/zap"
)

var magnetPins = [NumDoors]Pin{PinMagnet1, PinMagnet2}

var ledPins = [NumDoors][3]Pin{
	{PinLED1R, PinLED1G, PinLED1B},
	{PinLED2R, PinLED2G, PinLED2B},
}

// colorMask lists which of the red, green and blue channels a color lights.
var colorMask = [NumColors][3]bool{
	Red:     {true, false, false},
	Green:   {false, true, false},
	Blue:    {false, false, true},
	Yellow:  {true, true, false},
	Magenta: {true, false, true},
	Cyan:    {false, true, true},
	White:   {true, true, true},
}

// Driver implements Outputs on raw pins. Magnets are active low, so a locked
// door drives its magnet line high. LED channels are active high.
type Driver struct {
	pins PinWriter
	log  *zap.SugaredLogger

	mu       sync.Mutex
	lastLock [NumDoors]LockState
}

// NewDriver returns a Driver writing to pins. Both magnets are driven
// locked before it returns.
func NewDriver(pins PinWriter, log *zap.SugaredLogger) *Driver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for _, pin := range magnetPins {
		pins.Write(pin, true)
	}
	return &Driver{
		pins:     pins,
		log:      log,
		lastLock: [NumDoors]LockState{Locked, Locked},
	}
}

// SetLock drives the magnet of d. Lock changes are logged.
func (o *Driver) SetLock(d Door, s LockState) {
	if !d.Valid() {
		o.log.Errorf("Invalid door type: %d", int(d))
		return
	}
	o.pins.Write(magnetPins[d], s == Locked)

	o.mu.Lock()
	changed := o.lastLock[d] != s
	o.lastLock[d] = s
	o.mu.Unlock()
	if changed {
		o.log.Infof("Door %s is %s", d, s)
	}
}

// SetLED switches the status LED of d on in color c, or off.
func (o *Driver) SetLED(d Door, on bool, c Color) {
	if !d.Valid() {
		o.log.Errorf("Invalid door type: %d", int(d))
		return
	}
	if on && (c < 0 || c >= NumColors) {
		o.log.Debugf("Ignoring unknown color %d for %s", int(c), d)
		return
	}
	var mask [3]bool
	if on {
		mask = colorMask[c]
	}
	for ch, pin := range ledPins[d] {
		o.pins.Write(pin, mask[ch])
	}
}

// DecodeLED maps the three channel levels of an LED back to a color.
func DecodeLED(r, g, b bool) (on bool, c Color) {
	for color, mask := range colorMask {
		if mask == [3]bool{r, g, b} {
			return true, Color(color)
		}
	}
	return false, 0
}
