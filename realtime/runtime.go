package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/metrics"
)

// ErrQueueFull is returned by SendEvent when the batch for the next tick is
// full.
var ErrQueueFull = errors.New("event queue full")

// ErrRunning is returned when Start or Run is called on a running runtime.
var ErrRunning = errors.New("runtime already running")

// Processor is one control loop iteration plus a way to inject events.
// door.Controller implements Processor[door.Event].
type Processor[E any] interface {
	Post(evt E) bool
	Process() hsm.Result
}

// Config configures the runtime.
type Config struct {
	TickRate         time.Duration // loop period (default 10ms)
	MaxEventsPerTick int           // batch capacity (default 1000)
}

// Option configures a Runtime.
type Option func(*options)

type options struct {
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

// WithLogger replaces the no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetrics records tick durations and overruns.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Stats summarizes a runtime's history.
type Stats struct {
	Ticks     uint64
	Overruns  uint64
	Unhandled uint64
	Dropped   uint64
	Panics    uint64
}

// Runtime runs a Processor at a fixed tick rate.
type Runtime[E any] struct {
	proc     Processor[E]
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
	tickRate time.Duration

	eventBatch  []EventWithMeta[E]
	batchMu     sync.Mutex
	sequenceNum uint64
	stats       Stats

	runMu      sync.Mutex
	running    bool
	tickCancel context.CancelFunc
	stopped    chan struct{}
	runErr     error
}

// NewRuntime creates a runtime around proc. The processor should already be
// set up; the runtime only calls Post and Process.
func NewRuntime[E any](proc Processor[E], cfg Config, opts ...Option) *Runtime[E] {
	if cfg.MaxEventsPerTick <= 0 {
		cfg.MaxEventsPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 10 * time.Millisecond
	}
	o := options{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Runtime[E]{
		proc:       proc,
		log:        o.log,
		metrics:    o.metrics,
		tickRate:   cfg.TickRate,
		eventBatch: make([]EventWithMeta[E], 0, cfg.MaxEventsPerTick),
	}
}

// TickRate returns the loop period.
func (rt *Runtime[E]) TickRate() time.Duration { return rt.tickRate }

// Start runs the tick loop in a new goroutine until ctx is cancelled or Stop
// is called.
func (rt *Runtime[E]) Start(ctx context.Context) error {
	ready := make(chan error, 1)
	go func() {
		_ = rt.run(ctx, ready)
	}()
	return <-ready
}

// Run runs the tick loop on the calling goroutine until ctx is cancelled.
// It returns nil on cancellation.
func (rt *Runtime[E]) Run(ctx context.Context) error {
	ready := make(chan error, 1)
	return rt.run(ctx, ready)
}

// Stop cancels a running loop and waits for it to exit.
func (rt *Runtime[E]) Stop() error {
	rt.runMu.Lock()
	if !rt.running {
		rt.runMu.Unlock()
		return nil
	}
	cancel, stopped := rt.tickCancel, rt.stopped
	rt.runMu.Unlock()

	cancel()
	<-stopped
	return nil
}

func (rt *Runtime[E]) run(ctx context.Context, ready chan<- error) error {
	rt.runMu.Lock()
	if rt.running {
		rt.runMu.Unlock()
		ready <- ErrRunning
		return ErrRunning
	}
	tickCtx, cancel := context.WithCancel(ctx)
	rt.running = true
	rt.tickCancel = cancel
	rt.stopped = make(chan struct{})
	stopped := rt.stopped
	rt.runMu.Unlock()

	defer func() {
		cancel()
		rt.runMu.Lock()
		rt.running = false
		rt.runMu.Unlock()
		close(stopped)
	}()

	ticker := time.NewTicker(rt.tickRate)
	defer ticker.Stop()

	rt.log.Infof("Control loop started, tick %s", rt.tickRate)
	ready <- nil
	for {
		select {
		case <-tickCtx.Done():
			rt.log.Infof("Control loop stopped after %d ticks", rt.GetTickNumber())
			return nil
		case <-ticker.C:
			rt.Step()
		}
	}
}

// SendEvent queues an event for the next tick. It is safe for concurrent
// use.
func (rt *Runtime[E]) SendEvent(event E) error {
	return rt.SendEventWithPriority(event, 0)
}

// SendEventWithPriority queues an event that is posted before events of
// lower priority in the same tick.
func (rt *Runtime[E]) SendEventWithPriority(event E, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.eventBatch) >= cap(rt.eventBatch) {
		rt.stats.Dropped++
		return ErrQueueFull
	}
	rt.eventBatch = append(rt.eventBatch, EventWithMeta[E]{
		Event:       event,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++
	return nil
}

// GetTickNumber returns the number of completed ticks.
func (rt *Runtime[E]) GetTickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.stats.Ticks
}

// Stats returns a copy of the counters.
func (rt *Runtime[E]) Stats() Stats {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.stats
}
