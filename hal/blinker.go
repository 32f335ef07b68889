package hal

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBlinkInterval is the LED toggle period.
const DefaultBlinkInterval = 500 * time.Millisecond

// TickerBlinker toggles both status LEDs from a background goroutine. The
// goroutine only ever calls Outputs.SetLED.
type TickerBlinker struct {
	out Outputs
	log *zap.SugaredLogger

	mu       sync.Mutex
	interval time.Duration
	pattern  BlinkPattern
	stop     chan struct{}
	done     chan struct{}
}

// NewTickerBlinker returns a stopped blinker.
func NewTickerBlinker(out Outputs, interval time.Duration, log *zap.SugaredLogger) *TickerBlinker {
	if interval <= 0 {
		interval = DefaultBlinkInterval
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TickerBlinker{out: out, interval: interval, log: log}
}

// Start begins blinking p, replacing any pattern already running.
func (b *TickerBlinker) Start(p BlinkPattern) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	b.pattern = p
	b.startLocked()
}

// Stop halts blinking and waits for the goroutine to exit. The LEDs keep
// whatever level they had.
func (b *TickerBlinker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

// SetInterval changes the toggle period. A running pattern restarts with
// the new period.
func (b *TickerBlinker) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interval = d
	if b.stop != nil {
		b.stopLocked()
		b.startLocked()
	}
}

// Interval returns the toggle period.
func (b *TickerBlinker) Interval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interval
}

// Running reports whether a pattern is blinking.
func (b *TickerBlinker) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stop != nil
}

func (b *TickerBlinker) startLocked() {
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.run(b.pattern, b.interval, b.stop, b.done)
	b.log.Debugf("Blink started: %s/%s every %s", b.pattern.Door1, b.pattern.Door2, b.interval)
}

func (b *TickerBlinker) stopLocked() {
	if b.stop == nil {
		return
	}
	close(b.stop)
	<-b.done
	b.stop = nil
	b.done = nil
}

func (b *TickerBlinker) run(p BlinkPattern, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	on := false
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			on = !on
			b.out.SetLED(Door1, on, p.Door1)
			b.out.SetLED(Door2, on, p.Door2)
		}
	}
}
