// Package realtime drives a Processor from a fixed-rate tick loop.
//
// Events sent from other goroutines are batched and handed to the
// processor at the next tick boundary, ordered by priority and then by
// submission order. After the batch is posted the processor runs one
// iteration. The processor itself is only ever touched from the tick
// goroutine, so a single-threaded control loop stays single-threaded.
//
// # Example Usage
//
//	ctl, _ := door.New(deps, door.DefaultConfig())
//	ctl.Setup()
//	rt := realtime.NewRuntime[door.Event](ctl, realtime.Config{
//		TickRate: 10 * time.Millisecond,
//	})
//	rt.Start(ctx)
//	rt.SendEvent(door.EventDoor1Unlock)
//
// # Event Ordering Guarantees
//
//  1. Higher priority events are posted first
//  2. Events of equal priority are posted in submission order
//  3. The sort is stable, so the order is reproducible
//
// # Tick Budget
//
// An iteration that takes longer than the tick period is logged as an
// overrun; one that takes more than twice the period is logged as an error.
// time.Ticker drops ticks that the loop could not keep up with.
package realtime
