package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/scenecore/internal/value"
)

// Scene owns a node graph: named and anonymous nodes, the routes between
// them, and the root set handed to the scheduler.
type Scene struct {
	registry *Registry
	sched    *Scheduler
	nodes    []*Node
	byName   map[string]*Node
	routes   []*Route
}

// NewScene creates an empty scene that instantiates types from reg and runs
// on sched.
func NewScene(reg *Registry, sched *Scheduler) *Scene {
	return &Scene{
		registry: reg,
		sched:    sched,
		byName:   make(map[string]*Node),
	}
}

func (sc *Scene) Registry() *Registry   { return sc.registry }
func (sc *Scene) Scheduler() *Scheduler { return sc.sched }

// Nodes returns the scene's live nodes in creation order.
func (sc *Scene) Nodes() []*Node { return sc.nodes }

// Routes returns the scene's routes in insertion order.
func (sc *Scene) Routes() []*Route { return sc.routes }

// CreateNode instantiates typeName. A non-empty name must be unique within
// the scene.
func (sc *Scene) CreateNode(typeName, name string) (*Node, error) {
	if name != "" {
		if _, dup := sc.byName[name]; dup {
			err := NewInvalidConfigurationError("node name %q already defined", name)
			err.Node = name
			return nil, err
		}
	}
	n, err := sc.registry.Create(typeName, sc.sched, name)
	if err != nil {
		return nil, err
	}
	sc.adopt(n)
	return n, nil
}

func (sc *Scene) adopt(n *Node) {
	sc.nodes = append(sc.nodes, n)
	if n.name != "" {
		sc.byName[n.name] = n
	}
}

// Node returns the live node with the given name.
func (sc *Scene) Node(name string) (*Node, error) {
	n, ok := sc.byName[name]
	if !ok {
		return nil, NewUnknownNodeError(name)
	}
	return n, nil
}

// AddRoot marks n as a scene root.
func (sc *Scene) AddRoot(n *Node) error {
	return sc.sched.AddRoot(n)
}

// Route connects two fields and records the route. Inserting an existing
// (source, destination) pair returns the route already in place.
func (sc *Scene) Route(from, to *Field) (*Route, error) {
	r, err := NewRoute(from, to)
	if err != nil {
		return nil, err
	}
	got, err := r.Insert()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(sc.routes, got) {
		sc.routes = append(sc.routes, got)
	}
	return got, nil
}

// AddRoute connects fields by node and field name. A set_<name> alias may
// not be a source and a <name>_changed alias may not be a destination.
func (sc *Scene) AddRoute(fromNode, fromField, toNode, toField string) (*Route, error) {
	src, err := sc.Node(fromNode)
	if err != nil {
		return nil, err
	}
	dst, err := sc.Node(toNode)
	if err != nil {
		return nil, err
	}
	from, role, err := src.lookup(fromField)
	if err != nil {
		return nil, err
	}
	if role == RoleInput {
		return nil, NewInvalidConfigurationError("%s.%s names an input and cannot be a route source", fromNode, fromField)
	}
	to, role, err := dst.lookup(toField)
	if err != nil {
		return nil, err
	}
	if role == RoleOutput {
		return nil, NewInvalidConfigurationError("%s.%s names an output and cannot be a route destination", toNode, toField)
	}
	return sc.Route(from, to)
}

// DeleteRoute unregisters r and forgets it.
func (sc *Scene) DeleteRoute(r *Route) {
	r.Remove()
	sc.routes = slices.DeleteFunc(sc.routes, func(x *Route) bool { return x == r })
}

// CloneNode creates a node of src's type named name and copies every stored
// field value with the unsafe accessors: no filters, events or actions run.
// Node references are copied as-is, so the clone shares referenced children.
// The clone starts in StateSettingUp with no routes.
func (sc *Scene) CloneNode(src *Node, name string) (*Node, error) {
	if src.state == StateDisposed {
		return nil, &Error{Code: ErrCodeStage, Message: "cannot clone a disposed node", Node: src.label()}
	}
	n, err := sc.CreateNode(src.typ.name, name)
	if err != nil {
		return nil, err
	}
	for i, f := range src.fields {
		if f.Access() == AccessInputOnly {
			continue
		}
		n.fields[i].UnsafeSet(cloneValue(f.UnsafeGet()))
	}
	return n, nil
}

// cloneValue copies list storage so the clone and the source never alias.
func cloneValue(v value.Value) value.Value {
	switch val := v.(type) {
	case value.SFImage:
		val.Pixels = slices.Clone(val.Pixels)
		return val
	case value.MFBool:
		return slices.Clone(val)
	case value.MFColor:
		return slices.Clone(val)
	case value.MFDouble:
		return slices.Clone(val)
	case value.MFFloat:
		return slices.Clone(val)
	case value.MFInt32:
		return slices.Clone(val)
	case value.MFNode:
		return slices.Clone(val)
	case value.MFRotation:
		return slices.Clone(val)
	case value.MFString:
		return slices.Clone(val)
	case value.MFTime:
		return slices.Clone(val)
	case value.MFVec2f:
		return slices.Clone(val)
	case value.MFVec3d:
		return slices.Clone(val)
	case value.MFVec3f:
		return slices.Clone(val)
	}
	return v
}

// DisposeNode disposes n and removes it and its routes from the scene.
// Later lookups of its name fail with UNKNOWN_NODE.
func (sc *Scene) DisposeNode(n *Node) {
	n.Dispose()
	sc.routes = slices.DeleteFunc(sc.routes, func(r *Route) bool {
		return r.from.node == n || r.to.node == n
	})
	sc.nodes = slices.DeleteFunc(sc.nodes, func(x *Node) bool { return x == n })
	if n.name != "" && sc.byName[n.name] == n {
		delete(sc.byName, n.name)
	}
}

// Reset disposes every node, drops every route and clears the scheduler's
// queues, ready for a new scene on the same scheduler.
func (sc *Scene) Reset() {
	count := len(sc.nodes)
	for i := len(sc.nodes) - 1; i >= 0; i-- {
		sc.nodes[i].Dispose()
	}
	sc.nodes = nil
	sc.routes = nil
	sc.byName = make(map[string]*Node)
	sc.sched.Reset()
	slog.Info("scene reset", "nodes_disposed", count, "time", sc.sched.Now())
}
