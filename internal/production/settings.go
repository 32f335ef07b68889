// Package production provides the controller's production integrations:
// persisted settings, transition publishing and visualization.
package production

import (
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/hal"
)

// ErrChecksum is returned when stored settings do not match their checksum.
var ErrChecksum = errors.New("settings checksum mismatch")

// Settings is the persisted controller configuration. Timeouts keep the
// units operators type: seconds for unlock, minutes for open.
type Settings struct {
	UnlockTimeoutS  uint32                `yaml:"unlock_timeout_s" json:"unlock_timeout_s"`
	OpenTimeoutMin  uint32                `yaml:"open_timeout_min" json:"open_timeout_min"`
	BlinkIntervalMs uint32                `yaml:"blink_interval_ms" json:"blink_interval_ms"`
	DebounceMs      [hal.NumInputs]uint32 `yaml:"debounce_ms" json:"debounce_ms"`
	Checksum        uint64                `yaml:"checksum" json:"checksum"`
}

// DefaultSettings returns the factory settings.
func DefaultSettings() Settings {
	s := Settings{
		UnlockTimeoutS:  uint32(door.DefaultUnlockTimeout / time.Second),
		OpenTimeoutMin:  uint32(door.DefaultOpenTimeout / time.Minute),
		BlinkIntervalMs: uint32(hal.DefaultBlinkInterval / time.Millisecond),
	}
	for i := range s.DebounceMs {
		s.DebounceMs[i] = uint32(hal.DefaultDebounceDelay / time.Millisecond)
	}
	return s
}

// Validate rejects settings the controller cannot run with.
func (s Settings) Validate() error {
	if s.BlinkIntervalMs == 0 {
		return errors.New("blink interval must be positive")
	}
	return nil
}

// Config converts s into controller timing, keeping base for the fields
// that are not persisted.
func (s Settings) Config(base door.Config) door.Config {
	base.UnlockTimeout = time.Duration(s.UnlockTimeoutS) * time.Second
	base.OpenTimeout = time.Duration(s.OpenTimeoutMin) * time.Minute
	base.BlinkInterval = time.Duration(s.BlinkIntervalMs) * time.Millisecond
	return base
}

// Delays returns the per-input debounce delays.
func (s Settings) Delays() [hal.NumInputs]time.Duration {
	var out [hal.NumInputs]time.Duration
	for i, ms := range s.DebounceMs {
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}

// payload is the fixed little-endian image the checksum covers.
func (s Settings) payload() []byte {
	buf := make([]byte, 0, 4*(3+len(s.DebounceMs)))
	buf = binary.LittleEndian.AppendUint32(buf, s.UnlockTimeoutS)
	buf = binary.LittleEndian.AppendUint32(buf, s.OpenTimeoutMin)
	buf = binary.LittleEndian.AppendUint32(buf, s.BlinkIntervalMs)
	for _, ms := range s.DebounceMs {
		buf = binary.LittleEndian.AppendUint32(buf, ms)
	}
	return buf
}

// Sum computes the checksum of s with seed. The Checksum field is not
// covered.
func (s Settings) Sum(seed uint64) uint64 {
	return Checksum(s.payload(), seed)
}

// Seal stores the checksum of s in s.
func (s *Settings) Seal(seed uint64) {
	s.Checksum = s.Sum(seed)
}

// Verify checks the stored checksum.
func (s Settings) Verify(seed uint64) error {
	if sum := s.Sum(seed); sum != s.Checksum {
		return errors.Wrapf(ErrChecksum, "stored %#016x, computed %#016x", s.Checksum, sum)
	}
	return nil
}
