// Package metrics exposes scheduler activity as Prometheus metrics.
//
// A Collector is an engine.Observer: attach it with engine.WithObserver and
// every tick and field firing is counted.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/scenecore/internal/engine"
)

// Collector holds the scheduler metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks          prometheus.Counter
	CascadeRounds  prometheus.Counter
	RoundsPerTick  prometheus.Histogram
	FieldEvents    *prometheus.CounterVec
	SimulationTime prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector registers the scheduler metrics against reg, defaulting to
// the global Prometheus registry when nil. Registering twice on the same
// registry returns collectors sharing the first registration's metrics.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scenecore_ticks_total",
		Help: "Number of scheduler ticks that did work.",
	}), "scenecore_ticks_total")
	if err != nil {
		return nil, err
	}

	rounds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scenecore_cascade_rounds_total",
		Help: "Number of inner-loop rounds across all ticks.",
	}), "scenecore_cascade_rounds_total")
	if err != nil {
		return nil, err
	}

	perTick, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenecore_tick_rounds",
		Help:    "Inner-loop rounds needed for a tick to settle.",
		Buckets: []float64{1, 2, 3, 5, 10, 25, 100, 1000},
	}), "scenecore_tick_rounds")
	if err != nil {
		return nil, err
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scenecore_field_events_total",
		Help: "Field firings, labeled by node type and field name.",
	}, []string{"node_type", "field"}), "scenecore_field_events_total")
	if err != nil {
		return nil, err
	}

	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenecore_simulation_time_seconds",
		Help: "Current simulation time.",
	}), "scenecore_simulation_time_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Ticks:          ticks,
		CascadeRounds:  rounds,
		RoundsPerTick:  perTick,
		FieldEvents:    events,
		SimulationTime: simTime,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// FieldFired counts one field event.
func (c *Collector) FieldFired(t float64, f *engine.Field) {
	if c == nil {
		return
	}
	c.FieldEvents.WithLabelValues(f.Node().TypeName(), f.Name()).Inc()
	c.SimulationTime.Set(t)
}

// TickDone counts one tick and its rounds.
func (c *Collector) TickDone(stats engine.TickStats) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.CascadeRounds.Add(float64(stats.Rounds))
	c.RoundsPerTick.Observe(float64(stats.Rounds))
	c.SimulationTime.Set(stats.Time)
}

// WriteText writes every gathered metric family in the Prometheus text
// exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.Gatherer().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
