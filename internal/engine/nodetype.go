package engine

import (
	"github.com/roach88/scenecore/internal/value"
)

// FieldDescriptor is the static description of one field of a node type.
// It is owned by its NodeType and immutable once that type is finished.
type FieldDescriptor struct {
	Name   string
	Kind   value.Kind
	Access AccessKind

	// Default is the initial value. Nil means value.Zero(Kind).
	Default value.Value

	// Action runs after an accepted write while the node is realized.
	// Input-only fields receive the written value and keep nothing; other
	// kinds receive the newly stored value.
	Action func(f *Field, v value.Value) error

	// Filter replaces the default input-output filter ("value differs").
	Filter func(f *Field, v value.Value) bool

	owner *NodeType
}

// Owner returns the node type that declared the field.
func (d *FieldDescriptor) Owner() *NodeType { return d.owner }

func (d *FieldDescriptor) initial() value.Value {
	if d.Default != nil {
		return d.Default
	}
	return value.Zero(d.Kind)
}

type fieldEntry struct {
	desc *FieldDescriptor
	role Role
}

// NodeType describes a node's fields and ancestors. Types form a DAG through
// their parents; Finish collapses it into a linear, duplicate-free ancestor
// chain, root first and ending with the type itself.
type NodeType struct {
	name     string
	abstract bool
	parents  []*NodeType
	fields   []*FieldDescriptor
	own      map[string]fieldEntry

	finished bool
	chain    []*NodeType
	index    map[string]fieldEntry

	init     func(n *Node) error
	behavior func(n *Node) (any, error)
}

// NewNodeType creates an unfinished, instantiable node type.
func NewNodeType(name string, parents ...*NodeType) *NodeType {
	return &NodeType{
		name:    name,
		parents: append([]*NodeType(nil), parents...),
		own:     make(map[string]fieldEntry),
	}
}

// NewAbstractNodeType creates an unfinished node type that can be inherited
// from but never instantiated.
func NewAbstractNodeType(name string, parents ...*NodeType) *NodeType {
	t := NewNodeType(name, parents...)
	t.abstract = true
	return t
}

func (t *NodeType) Name() string         { return t.name }
func (t *NodeType) IsAbstract() bool     { return t.abstract }
func (t *NodeType) IsFinished() bool     { return t.finished }
func (t *NodeType) Parents() []*NodeType { return t.parents }

// OwnFields returns the fields declared directly on t, in declaration order.
func (t *NodeType) OwnFields() []*FieldDescriptor { return t.fields }

// AddParent adds another direct ancestor.
func (t *NodeType) AddParent(p *NodeType) error {
	if t.finished {
		return NewInvalidConfigurationError("node type %s is finished; cannot add parent %s", t.name, p.name)
	}
	t.parents = append(t.parents, p)
	return nil
}

// AddField declares a field on t. An input-output field also registers the
// set_<name> and <name>_changed aliases.
func (t *NodeType) AddField(d *FieldDescriptor) error {
	if t.finished {
		return NewInvalidConfigurationError("node type %s is finished; cannot add field %s", t.name, d.Name)
	}
	if d.Name == "" {
		return NewInvalidConfigurationError("node type %s: field name is empty", t.name)
	}
	if _, ok := accessNames[d.Access]; !ok {
		return NewInvalidConfigurationError("node type %s: field %s has no access kind", t.name, d.Name)
	}
	if d.Default != nil && d.Default.Kind() != d.Kind {
		return NewInvalidConfigurationError("node type %s: default for %s is %s, want %s",
			t.name, d.Name, d.Default.Kind(), d.Kind)
	}
	for name := range entryNames(d) {
		if _, dup := t.own[name]; dup {
			return NewInvalidConfigurationError("node type %s: duplicate field name %s", t.name, name)
		}
	}
	d.owner = t
	for name, role := range entryNames(d) {
		t.own[name] = fieldEntry{desc: d, role: role}
	}
	t.fields = append(t.fields, d)
	return nil
}

// entryNames lists the lookup keys a descriptor answers to.
func entryNames(d *FieldDescriptor) map[string]Role {
	names := map[string]Role{d.Name: RoleAny}
	if d.Access == AccessInputOutput {
		names["set_"+d.Name] = RoleInput
		names[d.Name+"_changed"] = RoleOutput
	}
	return names
}

// SetInitializer installs the per-level initializer. It runs once per node,
// after this level's fields are bound and after every ancestor's initializer.
func (t *NodeType) SetInitializer(fn func(n *Node) error) { t.init = fn }

// SetBehavior installs the constructor for the node's runtime behavior. The
// most derived type with a constructor wins. A behavior may implement
// Sensor, TimeDependent and Disposer.
func (t *NodeType) SetBehavior(fn func(n *Node) (any, error)) { t.behavior = fn }

// Finish seals t: every parent must already be finished and the ancestor
// chain and name index are computed. Finishing twice is a no-op.
func (t *NodeType) Finish() error {
	if t.finished {
		return nil
	}
	var chain []*NodeType
	seen := make(map[*NodeType]bool)
	for _, p := range t.parents {
		if !p.finished {
			return NewInvalidConfigurationError("node type %s: parent %s is not finished", t.name, p.name)
		}
		for _, a := range p.chain {
			if !seen[a] {
				seen[a] = true
				chain = append(chain, a)
			}
		}
	}
	chain = append(chain, t)

	// Lookup order: t itself, then each ancestor root first. The first
	// level declaring a name wins, so a subtype shadows its ancestors.
	index := make(map[string]fieldEntry)
	for _, level := range append([]*NodeType{t}, chain[:len(chain)-1]...) {
		for name, e := range level.own {
			if _, taken := index[name]; !taken {
				index[name] = e
			}
		}
	}

	t.chain = chain
	t.index = index
	t.finished = true
	return nil
}

// Chain returns the ancestor chain, root first, ending with t.
// It is nil until Finish succeeds.
func (t *NodeType) Chain() []*NodeType { return t.chain }

// Derives reports whether t is other or inherits from it.
func (t *NodeType) Derives(other *NodeType) bool {
	for _, a := range t.chain {
		if a == other {
			return true
		}
	}
	return t == other
}

// Lookup resolves a field name, including set_/_changed aliases, searching
// t first and then each ancestor.
func (t *NodeType) Lookup(name string) (*FieldDescriptor, Role, bool) {
	if t.finished {
		e, ok := t.index[name]
		return e.desc, e.role, ok
	}
	if e, ok := t.own[name]; ok {
		return e.desc, e.role, true
	}
	for _, p := range t.parents {
		if d, role, ok := p.Lookup(name); ok {
			return d, role, true
		}
	}
	return nil, RoleAny, false
}

// Fields returns every field descriptor in initialization order.
func (t *NodeType) Fields() []*FieldDescriptor {
	var out []*FieldDescriptor
	for _, level := range t.chain {
		out = append(out, level.fields...)
	}
	return out
}
