package door

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/comalice/hsm/hal"
)

const (
	DefaultUnlockTimeout         = 5 * time.Second
	DefaultOpenTimeout           = 10 * time.Minute
	DefaultDebounceStableTimeout = 300 * time.Millisecond
	DefaultInitPollInterval      = time.Millisecond
)

// Config holds the controller timing. A zero door timeout disables that
// timer.
type Config struct {
	UnlockTimeout time.Duration
	OpenTimeout   time.Duration
	BlinkInterval time.Duration

	// DebounceStableTimeout bounds the wait for both door switches to settle
	// when entering the init state.
	DebounceStableTimeout time.Duration
	// InitPollInterval is the pause between switch samples during that wait.
	InitPollInterval time.Duration

	// QueueLimit bounds the event queue; 0 leaves it unbounded.
	QueueLimit int
}

// DefaultConfig returns the factory timing.
func DefaultConfig() Config {
	return Config{
		UnlockTimeout:         DefaultUnlockTimeout,
		OpenTimeout:           DefaultOpenTimeout,
		BlinkInterval:         hal.DefaultBlinkInterval,
		DebounceStableTimeout: DefaultDebounceStableTimeout,
		InitPollInterval:      DefaultInitPollInterval,
	}
}

// Validate rejects negative durations and limits.
func (c Config) Validate() error {
	checks := []struct {
		name string
		d    time.Duration
	}{
		{"unlock timeout", c.UnlockTimeout},
		{"open timeout", c.OpenTimeout},
		{"blink interval", c.BlinkInterval},
		{"debounce stable timeout", c.DebounceStableTimeout},
		{"init poll interval", c.InitPollInterval},
	}
	for _, chk := range checks {
		if chk.d < 0 {
			return errors.Newf("%s must not be negative: %s", chk.name, chk.d)
		}
	}
	if c.QueueLimit < 0 {
		return errors.Newf("queue limit must not be negative: %d", c.QueueLimit)
	}
	return nil
}
