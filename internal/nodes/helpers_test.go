package nodes

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/value"
)

// firing is one observed field event.
type firing struct {
	time  float64
	field string
	value value.Value
}

type traceObserver struct {
	events []firing
}

func (o *traceObserver) FieldFired(t float64, f *engine.Field) {
	o.events = append(o.events, firing{time: t, field: f.String(), value: f.UnsafeGet()})
}

func (o *traceObserver) TickDone(engine.TickStats) {}

// at returns "node.field=value" for every event at time t, in order.
func (o *traceObserver) at(t float64) []string {
	var out []string
	for _, e := range o.events {
		if e.time == t {
			out = append(out, fmt.Sprintf("%s=%s", e.field, e.value))
		}
	}
	return out
}

func newScene(t *testing.T, opts ...engine.SchedulerOption) (*engine.Scene, *traceObserver) {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	obs := &traceObserver{}
	opts = append(opts, engine.WithObserver(obs))
	return engine.NewScene(reg, engine.NewScheduler(opts...)), obs
}

func create(t *testing.T, sc *engine.Scene, typeName, name string, fields map[string]value.Value) *engine.Node {
	t.Helper()
	n, err := sc.CreateNode(typeName, name)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, n.MustField(k).Set(v), "field %s", k)
	}
	return n
}

func simulate(t *testing.T, sc *engine.Scene) bool {
	t.Helper()
	more, err := sc.Scheduler().Simulate()
	require.NoError(t, err)
	return more
}
