package door

import (
	"fmt"
	"time"
)

// TimerType selects one of the two door timers.
type TimerType int

const (
	TimerUnlock TimerType = iota
	TimerOpen
	NumTimers
)

func (t TimerType) String() string {
	switch t {
	case TimerUnlock:
		return "unlock"
	case TimerOpen:
		return "open"
	default:
		return fmt.Sprintf("timer(%d)", int(t))
	}
}

// Timer is a one-shot software timer polled once per loop iteration.
// Reference 0 means stopped; otherwise it holds the start time in ms.
// Timeout 0 disables the timer.
type Timer struct {
	Timeout   uint64
	Reference uint64

	handler func(now uint64)
}

// Running reports whether the timer has been started.
func (t Timer) Running() bool { return t.Reference != 0 }

// Expired reports whether the timer is running and now - Reference has
// reached the timeout.
func (t Timer) Expired(now uint64) bool {
	if t.Reference == 0 || t.Timeout == 0 || now < t.Reference {
		return false
	}
	return now-t.Reference >= t.Timeout
}

// Remaining returns the time left before expiry, 0 when stopped or expired.
func (t Timer) Remaining(now uint64) time.Duration {
	if t.Reference == 0 || t.Timeout == 0 {
		return 0
	}
	elapsed := uint64(0)
	if now > t.Reference {
		elapsed = now - t.Reference
	}
	if elapsed >= t.Timeout {
		return 0
	}
	return time.Duration(t.Timeout-elapsed) * time.Millisecond
}

// start arms the timer. A clock reading of 0 is bumped to 1 so the timer
// still counts as running.
func (t *Timer) start(now uint64) {
	if now == 0 {
		now = 1
	}
	t.Reference = now
}

func (t *Timer) stop() {
	t.Reference = 0
}

func millis(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d.Milliseconds())
}
