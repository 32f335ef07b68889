package door_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/comalice/hsm/door"
)

var _ = Describe("Timer", func() {
	DescribeTable("Expired fires iff now - reference >= timeout",
		func(ref, timeout, now uint64, want bool) {
			t := door.Timer{Timeout: timeout, Reference: ref}
			Expect(t.Expired(now)).To(Equal(want))
		},
		Entry("stopped never fires", uint64(0), uint64(10), uint64(1_000_000), false),
		Entry("before timeout", uint64(100), uint64(50), uint64(149), false),
		Entry("at timeout", uint64(100), uint64(50), uint64(150), true),
		Entry("after timeout", uint64(100), uint64(50), uint64(4000), true),
		Entry("disabled", uint64(100), uint64(0), uint64(4000), false),
		Entry("clock behind reference", uint64(100), uint64(50), uint64(90), false),
	)

	It("reports remaining time", func() {
		t := door.Timer{Timeout: 5000, Reference: 1000}
		Expect(t.Running()).To(BeTrue())
		Expect(t.Remaining(1000)).To(Equal(5 * time.Second))
		Expect(t.Remaining(3500)).To(Equal(2500 * time.Millisecond))
		Expect(t.Remaining(7000)).To(BeZero())
		Expect(door.Timer{Timeout: 5000}.Remaining(7000)).To(BeZero())
	})

	It("arms even when the clock reads zero", func() {
		r := newRig(door.DefaultConfig())
		r.clock.Set(0)
		r.driveTo(door.StateDoor1Unlocked)
		Expect(r.ctl.Timer(door.TimerUnlock).Reference).To(BeEquivalentTo(1))
	})

	It("names the timers", func() {
		Expect(door.TimerUnlock.String()).To(Equal("unlock"))
		Expect(door.TimerOpen.String()).To(Equal("open"))
	})
})

var _ = Describe("Config", func() {
	It("has the factory defaults", func() {
		cfg := door.DefaultConfig()
		Expect(cfg.UnlockTimeout).To(Equal(5 * time.Second))
		Expect(cfg.OpenTimeout).To(Equal(10 * time.Minute))
		Expect(cfg.BlinkInterval).To(Equal(500 * time.Millisecond))
		Expect(cfg.DebounceStableTimeout).To(Equal(300 * time.Millisecond))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects negative values", func() {
		cfg := door.DefaultConfig()
		cfg.QueueLimit = -1
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("queue limit")))
	})
})
