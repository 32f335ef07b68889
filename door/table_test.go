package door_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/hal"
)

var _ = Describe("Transition table", func() {
	It("covers every state", func() {
		from := map[door.StateID]bool{}
		for _, t := range door.Transitions() {
			from[t.From] = true
		}
		for _, s := range door.States() {
			Expect(from).To(HaveKey(s), "no transition leaves %s", s)
		}
	})

	Describe("event transitions", func() {
		for _, tr := range door.Transitions() {
			tr := tr // per-iteration copy: closures run after the loop (pre-Go 1.22 semantics)
			if tr.Timer {
				continue
			}
			It(fmt.Sprintf("%s --%s--> %s", tr.From, tr.Event, tr.To), func() {
				r := newRig(door.DefaultConfig())
				r.driveTo(tr.From)
				r.changes = nil

				r.inject(tr.Event)

				Expect(r.ctl.State()).To(Equal(tr.To))
				Expect(r.changes).NotTo(BeEmpty())
				Expect(r.changes[0]).To(HaveField("From", tr.From))
				Expect(r.changes[0]).To(HaveField("To", tr.To))
				Expect(r.changes[0]).To(HaveField("Event", tr.Event))
			})
		}
	})

	Describe("timer transitions", func() {
		for _, tr := range door.Transitions() {
			tr := tr // per-iteration copy: closures run after the loop (pre-Go 1.22 semantics)
			if !tr.Timer {
				continue
			}
			It(fmt.Sprintf("%s --open timeout--> %s", tr.From, tr.To), func() {
				r := newRig(door.DefaultConfig())
				r.driveTo(tr.From)
				if tr.From == door.StateDoor1Open {
					r.setDoorOpen(hal.Door1, true)
				} else {
					r.setDoorOpen(hal.Door2, true)
				}

				r.clock.Advance(door.DefaultOpenTimeout)
				r.ctl.Process()

				Expect(r.ctl.State()).To(Equal(tr.To))
			})
		}
	})

	Describe("events outside the table", func() {
		for _, s := range door.States() {
			s := s // per-iteration copy: closures run after the loop (pre-Go 1.22 semantics)
			for _, evt := range door.Events() {
				evt := evt
				if _, ok := door.Next(s, evt); ok {
					continue
				}
				It(fmt.Sprintf("%s ignores %s", s, evt), func() {
					r := newRig(door.DefaultConfig())
					r.driveTo(s)
					r.changes = nil

					r.inject(evt)

					Expect(r.ctl.State()).To(Equal(s))
					Expect(r.changes).To(BeEmpty())
					Expect(r.ctl.Machine().Pending()).To(BeZero())
				})
			}
		}
	})

	It("parses state and event names", func() {
		for _, s := range door.States() {
			got, ok := door.ParseState(s.String())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(s))
		}
		for _, e := range door.Events() {
			got, ok := door.ParseEvent(e.String())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(e))
		}
		_, ok := door.ParseEvent("none")
		Expect(ok).To(BeFalse())
		Expect(door.StateNone.String()).To(Equal("none"))
	})
})
