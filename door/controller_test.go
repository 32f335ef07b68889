package door_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/hal"
	"github.com/comalice/hsm/internal/metrics"
	"github.com/comalice/hsm/testutil"
)

var (
	white   = testutil.LEDState{On: true, Color: hal.White}
	ledsOff = []string{"led door1 off", "led door2 off"}
)

var _ = Describe("Controller", func() {
	var r *rig

	BeforeEach(func() {
		r = newRig(door.DefaultConfig())
	})

	Describe("New", func() {
		It("rejects missing collaborators", func() {
			_, err := door.New(door.Deps{}, door.DefaultConfig())
			Expect(err).To(HaveOccurred())
		})

		It("rejects an invalid config", func() {
			cfg := door.DefaultConfig()
			cfg.UnlockTimeout = -time.Second
			_, err := door.New(door.Deps{
				Inputs:  r.in,
				Outputs: r.out,
				Blinker: r.blink,
				Clock:   r.clock,
			}, cfg)
			Expect(err).To(MatchError(ContainSubstring("unlock timeout")))
		})

		It("has no state before setup", func() {
			Expect(r.ctl.State()).To(Equal(door.StateNone))
		})

		It("processes nothing before setup", func() {
			Expect(r.ctl.Process()).To(Equal(hsm.Unhandled))
			Expect(r.ctl.State()).To(Equal(door.StateNone))
			Expect(r.ctl.Machine().Pending()).To(BeZero())
			Expect(r.changes).To(BeEmpty())

			Expect(r.ctl.Post(door.EventDoorsClosed)).To(BeTrue())
			Expect(r.ctl.Dispatch()).To(Equal(hsm.Unhandled))
			Expect(r.ctl.Machine().Pending()).To(Equal(1))
		})

		It("returns a zero timer for an unknown type", func() {
			Expect(r.ctl.Timer(door.NumTimers)).To(Equal(door.Timer{}))
			Expect(r.ctl.Timer(door.TimerType(-1))).To(Equal(door.Timer{}))
		})
	})

	Describe("Init", func() {
		It("goes idle with white LEDs when both doors are closed", func() {
			Expect(r.ctl.Setup()).To(Equal(hsm.Handled))
			Expect(r.ctl.State()).To(Equal(door.StateInit))
			Expect(r.ctl.Snapshot().Pending).To(Equal([]door.Event{door.EventDoorsClosed}))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Locked))
			Expect(r.out.Lock(hal.Door2)).To(Equal(hal.Locked))

			Expect(r.ctl.Dispatch()).To(Equal(hsm.Handled))
			Expect(r.ctl.State()).To(Equal(door.StateIdle))
			Expect(r.out.LED(hal.Door1)).To(Equal(white))
			Expect(r.out.LED(hal.Door2)).To(Equal(white))
			Expect(r.blink.Interval()).To(Equal(hal.DefaultBlinkInterval))
		})

		It("faults without queuing events when a switch never settles", func() {
			r.in.Set(hal.Switch1, testutil.Bouncing)

			r.ctl.Setup()

			Expect(r.ctl.State()).To(Equal(door.StateFault))
			Expect(r.ctl.Machine().Pending()).To(BeZero())
			Expect(r.clock.NowMillis() - startMillis).To(BeNumerically(">=", 300))
			Expect(r.blink.Running()).To(BeTrue())
			Expect(r.blink.Pattern()).To(Equal(door.FaultPattern))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Locked))
			Expect(r.out.Lock(hal.Door2)).To(Equal(hal.Locked))
		})

		It("waits for a switch that settles within the timeout", func() {
			r.in.Set(hal.Switch1, testutil.Bouncing)
			r.clock.OnSleep(func(now uint64) {
				if now >= startMillis+100 {
					r.in.Set(hal.Switch1, testutil.Closed)
				}
			})

			r.ctl.Setup()
			Expect(r.ctl.State()).To(Equal(door.StateInit))
			Expect(r.clock.NowMillis() - startMillis).To(BeNumerically("<", 300))

			r.ctl.Dispatch()
			Expect(r.ctl.State()).To(Equal(door.StateIdle))
		})

		It("reports an open door and faults on it", func() {
			r.setDoorOpen(hal.Door2, true)

			r.ctl.Setup()
			Expect(r.ctl.Snapshot().Pending).To(Equal([]door.Event{door.EventDoor2Open}))

			r.ctl.Dispatch()
			Expect(r.ctl.State()).To(Equal(door.StateFault))
		})

		It("reports both doors open separately", func() {
			r.setDoorOpen(hal.Door1, true)
			r.setDoorOpen(hal.Door2, true)

			r.ctl.Setup()
			Expect(r.ctl.Snapshot().Pending).To(Equal([]door.Event{door.EventDoor1Open, door.EventDoor2Open}))
		})
	})

	Describe("Idle", func() {
		BeforeEach(func() {
			r.driveTo(door.StateIdle)
		})

		It("unlocks the door whose button alone is pressed", func() {
			r.in.Set(hal.Button2, testutil.Pressed)

			Expect(r.ctl.Process()).To(Equal(hsm.Handled))

			Expect(r.ctl.State()).To(Equal(door.StateDoor2Unlocked))
			Expect(r.out.Lock(hal.Door2)).To(Equal(hal.Unlocked))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Locked))
			Expect(r.ctl.Machine().Pending()).To(BeZero())
		})

		It("keeps both doors locked when both buttons are pressed", func() {
			r.in.Set(hal.Button1, testutil.Pressed)
			r.in.Set(hal.Button2, testutil.Pressed)
			r.out.Reset()

			r.ctl.Process()

			Expect(r.ctl.State()).To(Equal(door.StateIdle))
			Expect(r.out.Calls()).To(ContainElements("lock door1 locked", "lock door2 locked"))
			Expect(r.out.Calls()).NotTo(ContainElement("lock door1 unlocked"))
		})

		It("turns the LEDs off on exit", func() {
			r.out.Reset()
			r.inject(door.EventDoor1Unlock)
			Expect(r.out.Calls()).To(HaveExactElements(append(ledsOff, "lock door1 unlocked")))
		})

		DescribeTable("faults on an open door",
			func(evt door.Event) {
				r.inject(evt)
				Expect(r.ctl.State()).To(Equal(door.StateFault))
			},
			Entry("door 1", door.EventDoor1Open),
			Entry("door 2", door.EventDoor2Open),
			Entry("both", door.EventDoorsOpen),
		)
	})

	Describe("unlock without opening", func() {
		BeforeEach(func() {
			r.driveTo(door.StateIdle)
			r.inject(door.EventDoor1Unlock)
		})

		It("unlocks door 1 and blinks", func() {
			Expect(r.ctl.State()).To(Equal(door.StateDoor1Unlocked))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Unlocked))
			Expect(r.blink.Running()).To(BeTrue())
			Expect(r.blink.Pattern()).To(Equal(door.Door1Pattern))
			Expect(r.ctl.Timer(door.TimerUnlock).Reference).To(Equal(r.clock.NowMillis()))
		})

		It("relocks with LEDs off on the unlock timeout event", func() {
			r.out.Reset()

			r.inject(door.EventDoor1UnlockTimeout)

			Expect(r.ctl.State()).To(Equal(door.StateIdle))
			Expect(r.out.Calls()).To(HaveExactElements(
				"lock door1 locked", "led door1 off", "led door2 off",
				"led door1 white", "led door2 white",
			))
			Expect(r.blink.Running()).To(BeFalse())
			Expect(r.ctl.Timer(door.TimerUnlock).Running()).To(BeFalse())
		})

		It("ignores the other door's unlock timeout", func() {
			r.inject(door.EventDoor2UnlockTimeout)
			Expect(r.ctl.State()).To(Equal(door.StateDoor1Unlocked))
		})

		It("times out through the timer pass", func() {
			r.clock.Advance(door.DefaultUnlockTimeout - time.Millisecond)
			r.ctl.Process()
			Expect(r.ctl.State()).To(Equal(door.StateDoor1Unlocked))

			r.clock.Advance(time.Millisecond)
			r.ctl.Process()
			Expect(r.ctl.State()).To(Equal(door.StateIdle))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Locked))
			Expect(r.ctl.Machine().Pending()).To(BeZero())
		})

		It("never times out when the unlock timeout is zero", func() {
			Expect(r.ctl.SetDoorTimer(door.TimerUnlock, 0)).To(Succeed())

			r.clock.Advance(time.Hour)
			r.ctl.Process()

			Expect(r.ctl.State()).To(Equal(door.StateDoor1Unlocked))
		})
	})

	Describe("door 1 scenario", func() {
		It("opens door 1 and faults when door 2 opens too", func() {
			r.driveTo(door.StateIdle)

			r.inject(door.EventDoor1Unlock)
			Expect(r.ctl.State()).To(Equal(door.StateDoor1Unlocked))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Unlocked))
			Expect(r.blink.Starts()).To(Equal(1))

			r.clock.Advance(1500 * time.Millisecond)
			r.inject(door.EventDoor1Open)
			Expect(r.ctl.State()).To(Equal(door.StateDoor1Open))
			Expect(r.ctl.Timer(door.TimerOpen).Reference).To(Equal(r.clock.NowMillis()))
			Expect(r.ctl.Timer(door.TimerUnlock).Running()).To(BeFalse())
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Unlocked))
			Expect(r.blink.Running()).To(BeTrue())

			r.inject(door.EventDoor2Open)
			Expect(r.ctl.State()).To(Equal(door.StateFault))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Locked))
			Expect(r.ctl.Timer(door.TimerOpen).Running()).To(BeFalse())
			Expect(r.blink.Pattern()).To(Equal(door.FaultPattern))
			Expect(r.lastChange()).To(Equal(door.Change{
				From:  door.StateDoor1Open,
				To:    door.StateFault,
				Event: door.EventDoor2Open,
				At:    r.clock.NowMillis(),
			}))
		})

		It("closes door 1 back to idle", func() {
			r.driveTo(door.StateDoor1Open)
			r.out.Reset()

			r.ctl.Process()

			Expect(r.ctl.State()).To(Equal(door.StateIdle))
			Expect(r.out.Lock(hal.Door1)).To(Equal(hal.Locked))
			Expect(r.blink.Running()).To(BeFalse())
		})

		It("faults when door 1 stays open past the open timeout", func() {
			cfg := door.DefaultConfig()
			cfg.OpenTimeout = 2 * time.Minute
			r = newRig(cfg)
			r.driveTo(door.StateDoor1Open)
			r.setDoorOpen(hal.Door1, true)

			r.clock.Advance(2*time.Minute - time.Millisecond)
			r.ctl.Process()
			Expect(r.ctl.State()).To(Equal(door.StateDoor1Open))

			r.clock.Advance(time.Millisecond)
			r.ctl.Process()
			Expect(r.ctl.State()).To(Equal(door.StateFault))
			ch := r.lastChange()
			Expect(ch.From).To(Equal(door.StateDoor1Open))
			Expect(ch.Event).To(Equal(door.EventNone))
		})
	})

	Describe("Fault", func() {
		BeforeEach(func() {
			r.driveTo(door.StateFault)
			r.changes = nil
			r.out.Reset()
		})

		It("recovers exactly once on repeated doors-closed", func() {
			r.inject(door.EventDoorsClosed, door.EventDoorsClosed, door.EventDoorsClosed)

			Expect(r.ctl.State()).To(Equal(door.StateIdle))
			Expect(r.changes).To(HaveLen(1))
			Expect(r.changes[0].From).To(Equal(door.StateFault))
			Expect(r.changes[0].To).To(Equal(door.StateIdle))

			entries := 0
			for _, call := range r.out.Calls() {
				if call == "led door1 white" {
					entries++
				}
			}
			Expect(entries).To(Equal(1))
			Expect(r.blink.Running()).To(BeFalse())

			r.inject(door.EventDoorsClosed)
			Expect(r.changes).To(HaveLen(1))
		})

		It("stays put while a door is open", func() {
			r.setDoorOpen(hal.Door2, true)
			for i := 0; i < 5; i++ {
				r.clock.Advance(time.Second)
				Expect(r.ctl.Process()).To(Equal(hsm.Handled))
			}
			Expect(r.ctl.State()).To(Equal(door.StateFault))
			Expect(r.changes).To(BeEmpty())
		})
	})

	Describe("SetDoorTimer", func() {
		It("converts seconds and minutes", func() {
			Expect(r.ctl.SetDoorTimer(door.TimerUnlock, 7)).To(Succeed())
			Expect(r.ctl.SetDoorTimer(door.TimerOpen, 3)).To(Succeed())

			Expect(r.ctl.Timer(door.TimerUnlock).Timeout).To(BeEquivalentTo(7000))
			Expect(r.ctl.Timer(door.TimerOpen).Timeout).To(BeEquivalentTo(180000))
			Expect(r.ctl.Config().OpenTimeout).To(Equal(3 * time.Minute))
		})

		It("keeps a running countdown's reference", func() {
			r.driveTo(door.StateDoor1Unlocked)
			ref := r.ctl.Timer(door.TimerUnlock).Reference

			r.clock.Advance(time.Second)
			Expect(r.ctl.SetDoorTimer(door.TimerUnlock, 2)).To(Succeed())
			Expect(r.ctl.Timer(door.TimerUnlock).Reference).To(Equal(ref))

			r.clock.Advance(time.Second)
			r.ctl.Process()
			Expect(r.ctl.State()).To(Equal(door.StateIdle))
		})

		It("rejects an unknown timer", func() {
			Expect(r.ctl.SetDoorTimer(door.NumTimers, 1)).To(HaveOccurred())
			Expect(r.ctl.SetTimeout(door.TimerOpen, -time.Second)).To(HaveOccurred())
		})
	})

	Describe("queue", func() {
		It("keeps posted events in order", func() {
			r.ctl.Setup()
			r.ctl.Machine().Queue().Reset()
			evts := []door.Event{door.EventDoor2Close, door.EventDoor1Unlock, door.EventDoorsOpen, door.EventDoor1Close}
			for _, e := range evts {
				r.ctl.Post(e)
			}
			Expect(r.ctl.Snapshot().Pending).To(Equal(evts))
		})

		It("drops the newest event once the limit is reached", func() {
			cfg := door.DefaultConfig()
			cfg.QueueLimit = 2
			r = newRig(cfg)

			Expect(r.ctl.Post(door.EventDoor1Open)).To(BeTrue())
			Expect(r.ctl.Post(door.EventDoor2Open)).To(BeTrue())
			Expect(r.ctl.Post(door.EventDoorsOpen)).To(BeFalse())

			snap := r.ctl.Snapshot()
			Expect(snap.Pending).To(Equal([]door.Event{door.EventDoor1Open, door.EventDoor2Open}))
			Expect(snap.Dropped).To(BeEquivalentTo(1))
		})
	})

	Describe("metrics", func() {
		It("counts dispatches, transitions and faults", func() {
			reg := prometheus.NewRegistry()
			r = newRig(door.DefaultConfig(), door.WithMetrics(metrics.New(reg)))
			r.driveTo(door.StateFault)

			samples, err := metrics.Collect(reg)
			Expect(err).NotTo(HaveOccurred())

			values := map[string]float64{}
			for _, s := range samples {
				if s.Name == "doorctl_hsm_faults_total" || s.Name == "doorctl_hsm_current_state" {
					values[s.Name] = s.Value
				}
				if s.Name == "doorctl_hsm_transitions_total" && s.Labels["to"] == "idle" {
					values["to_idle"] = s.Value
				}
			}
			Expect(values).To(HaveKeyWithValue("doorctl_hsm_faults_total", 1.0))
			Expect(values).To(HaveKeyWithValue("doorctl_hsm_current_state", float64(door.StateFault)))
			Expect(values).To(HaveKeyWithValue("to_idle", 1.0))
		})
	})

	It("sets the blink interval on the blinker", func() {
		r.ctl.SetBlinkInterval(250 * time.Millisecond)
		Expect(r.blink.Interval()).To(Equal(250 * time.Millisecond))
		Expect(r.ctl.Config().BlinkInterval).To(Equal(250 * time.Millisecond))
	})
})
