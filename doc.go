// Package hsm provides a small hierarchical state machine dispatch engine.
//
// A Machine holds a current State and a FIFO queue of pending events.
// Handlers, entry and exit functions all share the Handler signature and
// report one of three results:
//
//   - Handled: the event is consumed and removed from the queue
//   - Unhandled: the event is offered to the nearest ancestor with a handler
//   - TriggeredToSelf: the event stays queued and dispatch restarts
//
// # Dispatch
//
// Dispatch drains the queues of one or more machines. Every time an event is
// handled, or a handler reports TriggeredToSelf, the scan restarts from the
// first machine. This gives weak round-robin fairness without a scheduler at
// the cost of O(n²) worst case per batch, which is fine for a handful of
// machines.
//
// An event that no state in the parent chain handles stops the whole call and
// Dispatch returns Unhandled. WithSkipUnhandled leaves such events queued in
// place and keeps scanning instead.
//
// # Transitions
//
// Switch performs a flat transition: exit the source, enter the target.
// Traverse walks up from the source to the lowest common ancestor of the
// target, calling exit handlers deepest first, then down to the target
// calling entry handlers shallowest first. Traverse relies on every State
// carrying a correct Level; tables built with Builder always do.
//
// # Example Usage
//
//	b := hsm.NewBuilder()
//	b.State("off", hsm.WithHandler(offHandler))
//	b.State("on", hsm.WithHandler(onHandler), hsm.WithEntry(lightOn))
//	table, _ := b.Build()
//
//	m := hsm.NewMachine(table.MustLookup("off"))
//	m.Post(evToggle)
//	if hsm.Dispatch(m) == hsm.Unhandled {
//		log.Print("event not handled")
//	}
//
// The engine is single threaded: a Machine, its queue and its handlers must
// only be touched by the goroutine running Dispatch.
package hsm
