package hal

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultDebounceDelay is the settling time applied to every input.
const DefaultDebounceDelay = 100 * time.Millisecond

// ErrInvalidInput is returned for input indices outside the input table.
var ErrInvalidInput = errors.New("invalid input")

type inputConfig struct {
	pin        Pin
	activeHigh bool
	delay      uint64
}

// Buttons are active high, door switches are active low: a closed door pulls
// its switch line down.
var defaultInputs = [NumInputs]inputConfig{
	Button1: {pin: PinButton1, activeHigh: true},
	Button2: {pin: PinButton2, activeHigh: true},
	Switch1: {pin: PinSwitch1, activeHigh: false},
	Switch2: {pin: PinSwitch2, activeHigh: false},
}

// Debouncer turns raw pin readings into debounced input statuses. A reading
// that differs from the previous one restarts the settling timer and reports
// the input inactive and unstable. Once the reading has held for longer than
// the input's delay the status becomes stable and follows the reading.
type Debouncer struct {
	mu    sync.Mutex
	pins  PinReader
	clock Clock
	log   *zap.SugaredLogger

	cfg         [NumInputs]inputConfig
	initialized [NumInputs]bool
	accepted    [NumInputs]bool
	last        [NumInputs]bool
	lastChange  [NumInputs]uint64
	status      [NumInputs]InputStatus
}

// NewDebouncer creates a debouncer reading from pins. delays holds the
// settling time of each input.
func NewDebouncer(pins PinReader, clock Clock, delays [NumInputs]time.Duration, log *zap.SugaredLogger) *Debouncer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &Debouncer{
		pins:  pins,
		clock: clock,
		log:   log,
		cfg:   defaultInputs,
	}
	for i, delay := range delays {
		d.cfg[i].delay = uint64(delay.Milliseconds())
	}
	return d
}

// Status samples in and returns its debounced status.
func (d *Debouncer) Status(in Input) InputStatus {
	if !in.Valid() {
		d.log.Errorf("Invalid input: %d", int(in))
		return InputStatus{State: Inactive, Debounce: Unstable}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cfg := d.cfg[in]
	reading := d.pins.Read(cfg.pin)
	now := d.clock.NowMillis()

	if reading != d.last[in] {
		d.lastChange[in] = now
		d.status[in] = InputStatus{State: Inactive, Debounce: Unstable}
	}

	if now-d.lastChange[in] > cfg.delay {
		d.status[in].Debounce = Stable
		if reading != d.accepted[in] || !d.initialized[in] {
			d.accepted[in] = reading
			d.initialized[in] = true
			if reading == cfg.activeHigh {
				d.log.Infof("%s is active", in)
			} else {
				d.log.Infof("%s is inactive", in)
			}
		}
		if d.accepted[in] == cfg.activeHigh {
			d.status[in].State = Active
		} else {
			d.status[in].State = Inactive
		}
	}

	d.last[in] = reading
	return d.status[in]
}

// SetDelay changes the settling time of in.
func (d *Debouncer) SetDelay(in Input, delay time.Duration) error {
	if !in.Valid() {
		return errors.Wrapf(ErrInvalidInput, "input %d", int(in))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg[in].delay = uint64(delay.Milliseconds())
	return nil
}

// Delay returns the settling time of in.
func (d *Debouncer) Delay(in Input) time.Duration {
	if !in.Valid() {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return time.Duration(d.cfg[in].delay) * time.Millisecond
}
