// Package metrics exposes Prometheus collectors for the door controller.
// Every method is safe on a nil *Metrics so instrumentation stays optional.
package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const (
	namespace = "doorctl"
	subsystem = "hsm"
)

// Metrics groups the controller collectors.
type Metrics struct {
	dispatches    *prometheus.CounterVec
	events        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	timerExpiries *prometheus.CounterVec
	faults        prometheus.Counter
	dropped       prometheus.Counter
	currentState  prometheus.Gauge
	tickDuration  prometheus.Summary
	tickOverruns  prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dispatch_total",
				Help:      "Dispatch calls by overall result",
			},
			[]string{"result"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_queued_total",
				Help:      "Events queued on the door control machine",
			},
			[]string{"event"},
		),
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_total",
				Help:      "State transitions by source and target state",
			},
			[]string{"from", "to"},
		),
		timerExpiries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "timer_expiries_total",
				Help:      "Door timer expirations",
			},
			[]string{"timer"},
		),
		faults: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "faults_total",
			Help:      "Entries into the fault state",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_dropped_total",
			Help:      "Events dropped by a full queue",
		}),
		currentState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_state",
			Help:      "Current state id (0=Init, 1=Idle, 2=Fault, 3=Door1Unlocked, 4=Door1Open, 5=Door2Unlocked, 6=Door2Open)",
		}),
		tickDuration: f.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "tick_duration_milliseconds",
			Help:      "Time taken by one control loop iteration (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.99: 0.01,
			},
		}),
		tickOverruns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "tick_overruns_total",
			Help:      "Iterations that took longer than the tick period",
		}),
	}
}

// ObserveDispatch counts one dispatch call.
func (m *Metrics) ObserveDispatch(result string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(result).Inc()
}

// ObserveEvent counts one queued event.
func (m *Metrics) ObserveEvent(event string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event).Inc()
}

// ObserveDropped counts events rejected by the queue.
func (m *Metrics) ObserveDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}

// ObserveTransition counts a state change and updates the state gauge.
func (m *Metrics) ObserveTransition(from, to string, toID int, fault bool) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
	m.currentState.Set(float64(toID))
	if fault {
		m.faults.Inc()
	}
}

// ObserveTimerExpiry counts a door timer firing.
func (m *Metrics) ObserveTimerExpiry(timer string) {
	if m == nil {
		return
	}
	m.timerExpiries.WithLabelValues(timer).Inc()
}

// ObserveTick records the duration of one loop iteration.
func (m *Metrics) ObserveTick(d time.Duration, overrun bool) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(float64(d.Microseconds()) / 1000.0)
	if overrun {
		m.tickOverruns.Inc()
	}
}

// Sample is one flattened metric value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Collect flattens counters and gauges from g, sorted by name. Summaries
// report their sample count.
func Collect(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: map[string]string{}}
			for _, lp := range metric.GetLabel() {
				s.Labels[lp.GetName()] = lp.GetValue()
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				s.Value = metric.GetGauge().GetValue()
			case dto.MetricType_SUMMARY:
				s.Value = float64(metric.GetSummary().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
