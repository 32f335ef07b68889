package hal

import "time"

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock starts a clock at the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// NowMillis returns elapsed milliseconds. It never returns 0 so that a
// reading can always arm a timer.
func (c *SystemClock) NowMillis() uint64 {
	return uint64(time.Since(c.start).Milliseconds()) + 1
}

// Sleep blocks for d.
func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
