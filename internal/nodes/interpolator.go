package nodes

import (
	"sort"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/value"
)

// interpolator is implemented by the behaviors of concrete interpolators.
type interpolator interface {
	interpolate(n *engine.Node, seg int, t float32) error
}

func defineScalarInterpolator(interp *engine.NodeType) (*engine.NodeType, error) {
	nt := engine.NewNodeType(ScalarInterpolator, interp)
	nt.SetBehavior(func(n *engine.Node) (any, error) { return scalarInterpolator{}, nil })
	return define(nt,
		field("keyValue", value.KindMFFloat, engine.AccessInputOutput, nil),
		field("value_changed", value.KindSFFloat, engine.AccessOutputOnly, nil),
	)
}

func definePositionInterpolator(interp *engine.NodeType) (*engine.NodeType, error) {
	nt := engine.NewNodeType(PositionInterpolator, interp)
	nt.SetBehavior(func(n *engine.Node) (any, error) { return positionInterpolator{}, nil })
	return define(nt,
		field("keyValue", value.KindMFVec3f, engine.AccessInputOutput, nil),
		field("value_changed", value.KindSFVec3f, engine.AccessOutputOnly, nil),
	)
}

// setFraction locates the key segment holding the fraction and hands it to
// the concrete interpolator.
func setFraction(f *engine.Field, v value.Value) error {
	n := f.Node()
	in, ok := n.Behavior().(interpolator)
	if !ok {
		return nil
	}
	keys, err := value.As[value.MFFloat](n.MustField("key").UnsafeGet())
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	seg, t := segment(keys, float32(v.(value.SFFloat)))
	return in.interpolate(n, seg, t)
}

// segment returns the index i of the key interval [keys[i], keys[i+1]]
// containing fraction and the position t in [0,1] within it. Fractions
// outside the keys clamp to the first or last key.
func segment(keys value.MFFloat, fraction float32) (int, float32) {
	last := len(keys) - 1
	if fraction <= float32(keys[0]) {
		return 0, 0
	}
	if fraction >= float32(keys[last]) {
		return last, 0
	}
	i := sort.Search(len(keys), func(i int) bool { return float32(keys[i]) > fraction }) - 1
	lo, hi := float32(keys[i]), float32(keys[i+1])
	if hi == lo {
		return i, 0
	}
	return i, (fraction - lo) / (hi - lo)
}

type scalarInterpolator struct{}

func (scalarInterpolator) interpolate(n *engine.Node, seg int, t float32) error {
	vals, err := value.As[value.MFFloat](n.MustField("keyValue").UnsafeGet())
	if err != nil || len(vals) == 0 {
		return err
	}
	seg = min(seg, len(vals)-1)
	out := vals[seg]
	if t > 0 && seg+1 < len(vals) {
		out = vals[seg] + value.SFFloat(t)*(vals[seg+1]-vals[seg])
	}
	return n.MustField("value_changed").Set(out)
}

type positionInterpolator struct{}

func (positionInterpolator) interpolate(n *engine.Node, seg int, t float32) error {
	vals, err := value.As[value.MFVec3f](n.MustField("keyValue").UnsafeGet())
	if err != nil || len(vals) == 0 {
		return err
	}
	seg = min(seg, len(vals)-1)
	out := vals[seg]
	if t > 0 && seg+1 < len(vals) {
		a, b := vals[seg], vals[seg+1]
		for i := range out {
			out[i] = a[i] + t*(b[i]-a[i])
		}
	}
	return n.MustField("value_changed").Set(out)
}
