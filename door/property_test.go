package door_test

import (
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/hal"
	"github.com/comalice/hsm/testutil"
)

var _ = Describe("Random input sequences", func() {
	statuses := []hal.InputStatus{testutil.Closed, testutil.Open, testutil.Bouncing}

	owner := func(s door.StateID) (hal.Door, bool) {
		switch s {
		case door.StateDoor1Unlocked, door.StateDoor1Open:
			return hal.Door1, true
		case door.StateDoor2Unlocked, door.StateDoor2Open:
			return hal.Door2, true
		}
		return 0, false
	}

	DescribeTable("keep at most one door released and fault on two open doors",
		func(seed int64) {
			rng := rand.New(rand.NewSource(seed))
			cfg := door.DefaultConfig()
			cfg.OpenTimeout = 3 * time.Second
			r := newRig(cfg)
			r.ctl.Setup()

			bothOpenBefore := false
			for step := 0; step < 2000; step++ {
				r.in.Set(hal.Switch1, statuses[rng.Intn(len(statuses))])
				r.in.Set(hal.Switch2, statuses[rng.Intn(len(statuses))])
				r.in.Set(hal.Button1, statuses[rng.Intn(2)])
				r.in.Set(hal.Button2, statuses[rng.Intn(2)])
				r.clock.Advance(time.Duration(rng.Intn(2000)) * time.Millisecond)

				Expect(r.ctl.Process()).To(Equal(hsm.Handled))

				state := r.ctl.State()
				Expect(state).To(BeElementOf(door.States()))
				Expect(r.ctl.Machine().Pending()).To(BeZero())

				unlocked := 0
				for d := hal.Door1; d < hal.NumDoors; d++ {
					if r.out.Lock(d) == hal.Unlocked {
						unlocked++
						got, ok := owner(state)
						Expect(ok).To(BeTrue(), "%s unlocked in %s", d, state)
						Expect(got).To(Equal(d))
					}
				}
				Expect(unlocked).To(BeNumerically("<=", 1))

				bothOpen := !r.in.Status(hal.Switch1).Active() && !r.in.Status(hal.Switch2).Active()
				if bothOpen && bothOpenBefore {
					Expect(state).To(Equal(door.StateFault), "step %d", step)
				}
				bothOpenBefore = bothOpen
			}
		},
		Entry("seed 1", int64(1)),
		Entry("seed 7", int64(7)),
		Entry("seed 42", int64(42)),
		Entry("seed 1234", int64(1234)),
	)
})
