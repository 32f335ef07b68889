package realtime

import (
	"time"

	"github.com/comalice/hsm"
)

// Step runs one tick synchronously: the pending batch is sorted and posted,
// then the processor runs one iteration. A panic in the processor is logged
// and the tick counted as done.
func (rt *Runtime[E]) Step() hsm.Result {
	start := time.Now()
	result := rt.processTick()
	elapsed := time.Since(start)

	overrun := elapsed > rt.tickRate
	switch {
	case elapsed > 2*rt.tickRate:
		rt.log.Errorf("Tick took %s, more than twice the %s period", elapsed, rt.tickRate)
	case overrun:
		rt.log.Warnf("Tick took %s, period is %s", elapsed, rt.tickRate)
	}
	rt.metrics.ObserveTick(elapsed, overrun)

	rt.batchMu.Lock()
	rt.stats.Ticks++
	if overrun {
		rt.stats.Overruns++
	}
	if result != hsm.Handled {
		rt.stats.Unhandled++
	}
	rt.batchMu.Unlock()
	return result
}

func (rt *Runtime[E]) processTick() (result hsm.Result) {
	defer func() {
		if r := recover(); r != nil {
			rt.log.Errorf("Recovered from panic in tick: %v", r)
			rt.batchMu.Lock()
			rt.stats.Panics++
			rt.batchMu.Unlock()
			result = hsm.Unhandled
		}
	}()

	events := rt.collectEvents()
	sortEvents(events)
	for _, e := range events {
		if !rt.proc.Post(e.Event) {
			rt.log.Warnf("Processor dropped event %v", e.Event)
		}
	}
	return rt.proc.Process()
}

// collectEvents atomically retrieves and clears the event batch.
func (rt *Runtime[E]) collectEvents() []EventWithMeta[E] {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	events := rt.eventBatch
	rt.eventBatch = make([]EventWithMeta[E], 0, cap(rt.eventBatch))
	return events
}
