package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/scenecore/internal/value"
)

// Sensor is implemented by behaviors the scheduler can evaluate on events.
type Sensor interface {
	// InitSensor runs once, on the first tick after the node is realized.
	InitSensor(n *Node) error
	// Evaluate runs when an event scheduled for this node comes due.
	Evaluate(n *Node) error
}

// TimeDependent is implemented by behaviors that produce output as
// simulation time passes, independently of queued events.
type TimeDependent interface {
	// Tick runs every round of every tick and reports whether it changed
	// any output.
	Tick(n *Node) (bool, error)
}

// Disposer is implemented by behaviors that hold resources beyond their fields.
type Disposer interface {
	Dispose(n *Node)
}

// Node is an instance of a finished NodeType. It owns one field handle per
// descriptor in the type's ancestor chain.
type Node struct {
	name     string
	typ      *NodeType
	sched    *Scheduler
	state    State
	fields   []*Field
	byDesc   map[*FieldDescriptor]*Field
	behavior any
}

// NewNode instantiates t on scheduler s. Initialization runs ancestor first:
// each level binds its fields and then runs its initializer. The behavior
// is constructed last and the node is returned in StateSettingUp.
func NewNode(t *NodeType, s *Scheduler, name string) (*Node, error) {
	if !t.finished {
		return nil, NewInvalidConfigurationError("cannot instantiate unfinished node type %s", t.name)
	}
	if t.abstract {
		return nil, NewInvalidConfigurationError("cannot instantiate abstract node type %s", t.name)
	}
	if s == nil {
		return nil, NewInvalidConfigurationError("node %s: nil scheduler", name)
	}

	n := &Node{
		name:   name,
		typ:    t,
		sched:  s,
		state:  StateCreated,
		byDesc: make(map[*FieldDescriptor]*Field),
	}
	for _, level := range t.chain {
		for _, d := range level.fields {
			f := &Field{node: n, desc: d, val: d.initial()}
			n.fields = append(n.fields, f)
			n.byDesc[d] = f
		}
		if level.init != nil {
			if err := level.init(n); err != nil {
				return nil, fmt.Errorf("initialize %s level of %s: %w", level.name, n.label(), err)
			}
		}
	}
	for i := len(t.chain) - 1; i >= 0; i-- {
		if ctor := t.chain[i].behavior; ctor != nil {
			b, err := ctor(n)
			if err != nil {
				return nil, fmt.Errorf("construct %s behavior: %w", t.name, err)
			}
			n.behavior = b
			break
		}
	}
	n.state = StateSettingUp
	return n, nil
}

// Name returns the node's DEF name, or "" for anonymous nodes.
func (n *Node) Name() string { return n.name }

// TypeName returns the name of the node's type.
func (n *Node) TypeName() string { return n.typ.name }

func (n *Node) Type() *NodeType       { return n.typ }
func (n *Node) State() State          { return n.state }
func (n *Node) Scheduler() *Scheduler { return n.sched }
func (n *Node) Behavior() any         { return n.behavior }
func (n *Node) Fields() []*Field      { return n.fields }
func (n *Node) IsRealized() bool      { return n.state == StateRealized }

// FieldFor returns the node's handle for descriptor d, or nil.
func (n *Node) FieldFor(d *FieldDescriptor) *Field { return n.byDesc[d] }

// label identifies the node in errors and logs.
func (n *Node) label() string {
	if n.name != "" {
		return n.name
	}
	return n.typ.name
}

// Field resolves a field by name, accepting set_/_changed aliases.
func (n *Node) Field(name string) (*Field, error) {
	f, _, err := n.lookup(name)
	return f, err
}

func (n *Node) lookup(name string) (*Field, Role, error) {
	d, role, ok := n.typ.Lookup(name)
	if !ok {
		err := NewUnknownFieldError(n.typ.name, name)
		err.Node = n.label()
		return nil, role, err
	}
	return n.byDesc[d], role, nil
}

// MustField is Field for names known to exist on the node's type; it panics
// otherwise. Node behaviors use it for their own fields.
func (n *Node) MustField(name string) *Field {
	f, err := n.Field(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Realize moves the node to StateRealized, along with every node referenced
// from its SFNode and MFNode fields. Realizing twice is a no-op.
func (n *Node) Realize() error {
	switch n.state {
	case StateRealized:
		return nil
	case StateDisposed:
		return &Error{Code: ErrCodeStage, Message: "cannot realize a disposed node", Node: n.label()}
	}
	n.state = StateRealized
	for _, f := range n.fields {
		if !f.Kind().IsNodeRef() || f.val == nil {
			continue
		}
		for _, ref := range value.Nodes(f.val) {
			child, ok := ref.(*Node)
			if !ok {
				continue
			}
			if err := child.Realize(); err != nil {
				return err
			}
		}
	}
	n.sched.register(n)
	slog.Debug("node realized", "node", n.label(), "type", n.typ.name)
	return nil
}

// Dispose tears the node down: routes are detached, the scheduler forgets
// the node, and every later field operation fails. Disposing twice is a no-op.
func (n *Node) Dispose() {
	if n.state == StateDisposed {
		return
	}
	for _, f := range n.fields {
		for _, r := range slices.Clone(f.out) {
			r.Remove()
		}
		for _, r := range slices.Clone(f.in) {
			r.Remove()
		}
	}
	if d, ok := n.behavior.(Disposer); ok {
		d.Dispose(n)
	}
	n.sched.forget(n)
	n.state = StateDisposed
	slog.Debug("node disposed", "node", n.label(), "type", n.typ.name)
}

func (n *Node) String() string {
	if n.name != "" {
		return fmt.Sprintf("%s(%s)", n.typ.name, n.name)
	}
	return n.typ.name
}
