package nodes

import (
	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/value"
)

func defineBooleanFilter(child *engine.NodeType) (*engine.NodeType, error) {
	return define(engine.NewNodeType(BooleanFilter, child),
		withAction(field("set_boolean", value.KindSFBool, engine.AccessInputOnly, nil), filterBoolean),
		field("inputFalse", value.KindSFBool, engine.AccessOutputOnly, nil),
		field("inputNegate", value.KindSFBool, engine.AccessOutputOnly, nil),
		field("inputTrue", value.KindSFBool, engine.AccessOutputOnly, nil),
	)
}

// filterBoolean routes TRUE to inputTrue, FALSE to inputFalse, and the
// negation of either to inputNegate.
func filterBoolean(f *engine.Field, v value.Value) error {
	n := f.Node()
	b := v.(value.SFBool)
	if b {
		if err := n.MustField("inputTrue").Set(value.SFBool(true)); err != nil {
			return err
		}
	} else {
		if err := n.MustField("inputFalse").Set(value.SFBool(false)); err != nil {
			return err
		}
	}
	return n.MustField("inputNegate").Set(!b)
}
