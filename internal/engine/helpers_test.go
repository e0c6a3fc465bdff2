package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/value"
)

// probe records what its fields receive.
type probe struct {
	received []value.Value
	actions  int
}

func countAction(f *Field, _ value.Value) error {
	f.Node().Behavior().(*probe).actions++
	return nil
}

// ticker is a sensor and time-dependent behavior for scheduler tests.
type ticker struct {
	inits     int
	evals     []float64
	ticks     int
	changeFor int // rounds left in which Tick reports a change; <0 means always
}

func (tk *ticker) InitSensor(n *Node) error {
	tk.inits++
	return nil
}

func (tk *ticker) Evaluate(n *Node) error {
	tk.evals = append(tk.evals, n.Scheduler().Now())
	return nil
}

func (tk *ticker) Tick(n *Node) (bool, error) {
	tk.ticks++
	if tk.changeFor < 0 {
		return true, nil
	}
	if tk.changeFor > 0 {
		tk.changeFor--
		return true, nil
	}
	return false, nil
}

func addFields(t *testing.T, nt *NodeType, fields ...*FieldDescriptor) {
	t.Helper()
	for _, f := range fields {
		require.NoError(t, nt.AddField(f))
	}
}

// newTestRegistry registers an abstract Base, a Probe and a Ticker.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	base := NewAbstractNodeType("Base")
	addFields(t, base, &FieldDescriptor{Name: "label", Kind: value.KindSFString, Access: AccessInputOutput})
	require.NoError(t, base.Finish())

	p := NewNodeType("Probe", base)
	addFields(t, p,
		&FieldDescriptor{Name: "size", Kind: value.KindSFInt32, Access: AccessInitOnly, Default: value.SFInt32(1)},
		&FieldDescriptor{Name: "value", Kind: value.KindSFFloat, Access: AccessInputOutput, Action: countAction},
		&FieldDescriptor{Name: "out", Kind: value.KindSFFloat, Access: AccessOutputOnly, Action: countAction},
		&FieldDescriptor{Name: "in", Kind: value.KindSFFloat, Access: AccessInputOnly,
			Action: func(f *Field, v value.Value) error {
				pr := f.Node().Behavior().(*probe)
				pr.received = append(pr.received, v)
				pr.actions++
				return nil
			}},
		&FieldDescriptor{Name: "children", Kind: value.KindMFNode, Access: AccessInputOutput},
		&FieldDescriptor{Name: "flag", Kind: value.KindSFBool, Access: AccessInputOutput},
	)
	p.SetBehavior(func(n *Node) (any, error) { return &probe{}, nil })
	require.NoError(t, p.Finish())

	tk := NewNodeType("Ticker", base)
	tk.SetBehavior(func(n *Node) (any, error) { return &ticker{}, nil })
	require.NoError(t, tk.Finish())

	reg := NewRegistry()
	require.NoError(t, reg.Register(base))
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Register(tk))
	return reg
}

func newTestScene(t *testing.T, opts ...SchedulerOption) *Scene {
	t.Helper()
	return NewScene(newTestRegistry(t), NewScheduler(opts...))
}

func mustNode(t *testing.T, sc *Scene, typeName, name string) *Node {
	t.Helper()
	n, err := sc.CreateNode(typeName, name)
	require.NoError(t, err)
	return n
}

func probeOf(n *Node) *probe { return n.Behavior().(*probe) }

func tickerOf(n *Node) *ticker { return n.Behavior().(*ticker) }

// recordingObserver collects scheduler notifications.
type recordingObserver struct {
	fired []string
	ticks []TickStats
}

func (o *recordingObserver) FieldFired(_ float64, f *Field) {
	o.fired = append(o.fired, f.String())
}

func (o *recordingObserver) TickDone(stats TickStats) {
	o.ticks = append(o.ticks, stats)
}
