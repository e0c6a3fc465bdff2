package nodes

import (
	"fmt"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/value"
)

// Type names.
const (
	X3DNode              = "X3DNode"
	X3DChildNode         = "X3DChildNode"
	X3DSensorNode        = "X3DSensorNode"
	X3DTimeDependentNode = "X3DTimeDependentNode"
	X3DInterpolatorNode  = "X3DInterpolatorNode"
	Group                = "Group"
	TimeSensor           = "TimeSensor"
	ScalarInterpolator   = "ScalarInterpolator"
	PositionInterpolator = "PositionInterpolator"
	BooleanFilter        = "BooleanFilter"
)

func field(name string, k value.Kind, a engine.AccessKind, def value.Value) *engine.FieldDescriptor {
	return &engine.FieldDescriptor{Name: name, Kind: k, Access: a, Default: def}
}

func withAction(d *engine.FieldDescriptor, fn func(f *engine.Field, v value.Value) error) *engine.FieldDescriptor {
	d.Action = fn
	return d
}

// define declares a node type's fields and finishes it.
func define(nt *engine.NodeType, fields ...*engine.FieldDescriptor) (*engine.NodeType, error) {
	for _, f := range fields {
		if err := nt.AddField(f); err != nil {
			return nil, err
		}
	}
	if err := nt.Finish(); err != nil {
		return nil, err
	}
	return nt, nil
}

// Build creates fresh, finished descriptors for every built-in type, bases
// first.
func Build() ([]*engine.NodeType, error) {
	base, err := define(engine.NewAbstractNodeType(X3DNode),
		field("metadata", value.KindSFNode, engine.AccessInputOutput, nil),
	)
	if err != nil {
		return nil, err
	}
	child, err := define(engine.NewAbstractNodeType(X3DChildNode, base))
	if err != nil {
		return nil, err
	}
	sensor, err := define(engine.NewAbstractNodeType(X3DSensorNode, child),
		withAction(field("enabled", value.KindSFBool, engine.AccessInputOutput, value.SFBool(true)), enabledChanged),
		field("isActive", value.KindSFBool, engine.AccessOutputOnly, nil),
	)
	if err != nil {
		return nil, err
	}
	timeDep, err := defineTimeDependent(child)
	if err != nil {
		return nil, err
	}
	interp, err := define(engine.NewAbstractNodeType(X3DInterpolatorNode, child),
		withAction(field("set_fraction", value.KindSFFloat, engine.AccessInputOnly, nil), setFraction),
		field("key", value.KindMFFloat, engine.AccessInputOutput, nil),
	)
	if err != nil {
		return nil, err
	}

	out := []*engine.NodeType{base, child, sensor, timeDep, interp}
	concrete := []func() (*engine.NodeType, error){
		func() (*engine.NodeType, error) { return defineGroup(child) },
		func() (*engine.NodeType, error) { return defineTimeSensor(timeDep, sensor) },
		func() (*engine.NodeType, error) { return defineScalarInterpolator(interp) },
		func() (*engine.NodeType, error) { return definePositionInterpolator(interp) },
		func() (*engine.NodeType, error) { return defineBooleanFilter(child) },
	}
	for _, def := range concrete {
		nt, err := def()
		if err != nil {
			return nil, err
		}
		out = append(out, nt)
	}
	return out, nil
}

// RegisterAll registers every built-in type with reg.
func RegisterAll(reg *engine.Registry) error {
	types, err := Build()
	if err != nil {
		return fmt.Errorf("build node types: %w", err)
	}
	for _, nt := range types {
		if err := reg.Register(nt); err != nil {
			return fmt.Errorf("register %s: %w", nt.Name(), err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry() (*engine.Registry, error) {
	reg := engine.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// enableWatcher is implemented by sensor behaviors that must re-evaluate
// when enabled changes.
type enableWatcher interface {
	enabledChanged(n *engine.Node)
}

func enabledChanged(f *engine.Field, _ value.Value) error {
	if w, ok := f.Node().Behavior().(enableWatcher); ok {
		w.enabledChanged(f.Node())
	}
	return nil
}

// emit sends v on an output field and reports whether it changed. A field
// that already fired this tick counts as unchanged.
func emit(f *engine.Field, v value.Value) (bool, error) {
	ok, err := f.Send(v)
	if engine.IsAlreadyDirty(err) {
		return false, nil
	}
	return ok, err
}
