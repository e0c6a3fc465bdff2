package testutil

import (
	"fmt"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/nodes"
	"github.com/roach88/scenecore/internal/value"
)

// ProbeType is the type name of the probe node.
const ProbeType = "Probe"

// Probe is the behavior of a probe node. A probe is an X3DChildNode with
//   - value SFFloat inputOutput: free for routing and feedback loops
//   - in SFFloat inputOnly: records each event and forwards it to value
//   - count SFInt32 outputOnly: number of events received on in
type Probe struct {
	Received []float64
}

// ProbeOf returns n's probe behavior, or nil if n is not a probe.
func ProbeOf(n *engine.Node) *Probe {
	p, _ := n.Behavior().(*Probe)
	return p
}

func probeIn(f *engine.Field, v value.Value) error {
	n := f.Node()
	p := ProbeOf(n)
	p.Received = append(p.Received, float64(v.(value.SFFloat)))
	if err := n.MustField("value").Set(v); err != nil {
		return err
	}
	return n.MustField("count").Set(value.SFInt32(len(p.Received)))
}

// RegisterProbes adds the probe type to reg, which must already hold the
// built-in abstract types.
func RegisterProbes(reg *engine.Registry) error {
	child, err := reg.Lookup(nodes.X3DChildNode)
	if err != nil {
		return fmt.Errorf("register probes: %w", err)
	}
	nt := engine.NewNodeType(ProbeType, child)
	fields := []*engine.FieldDescriptor{
		{Name: "value", Kind: value.KindSFFloat, Access: engine.AccessInputOutput},
		{Name: "in", Kind: value.KindSFFloat, Access: engine.AccessInputOnly, Action: probeIn},
		{Name: "count", Kind: value.KindSFInt32, Access: engine.AccessOutputOnly},
	}
	for _, d := range fields {
		if err := nt.AddField(d); err != nil {
			return err
		}
	}
	nt.SetBehavior(func(*engine.Node) (any, error) { return &Probe{}, nil })
	if err := nt.Finish(); err != nil {
		return err
	}
	return reg.Register(nt)
}

// NewRegistry returns a registry with the built-in node types and probes.
func NewRegistry() (*engine.Registry, error) {
	reg, err := nodes.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := RegisterProbes(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
