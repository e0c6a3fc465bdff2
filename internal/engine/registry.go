package engine

import (
	"sort"
)

// Registry maps node type names to finished node types. Plugins and the
// built-in node set register through the same API.
type Registry struct {
	types map[string]*NodeType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*NodeType)}
}

// Register adds a finished node type. Abstract types may be registered so
// their fields can be inspected; they still cannot be instantiated.
func (r *Registry) Register(t *NodeType) error {
	if !t.finished {
		return NewInvalidConfigurationError("node type %s must be finished before registration", t.name)
	}
	if prev, ok := r.types[t.name]; ok && prev != t {
		return NewInvalidConfigurationError("node type %s already registered", t.name)
	}
	r.types[t.name] = t
	return nil
}

// Lookup returns the node type registered under name.
func (r *Registry) Lookup(name string) (*NodeType, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, NewUnknownNodeTypeError(name)
	}
	return t, nil
}

// Types returns every registered type sorted by name.
func (r *Registry) Types() []*NodeType {
	out := make([]*NodeType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Create instantiates the named type on scheduler s.
func (r *Registry) Create(typeName string, s *Scheduler, nodeName string) (*Node, error) {
	t, err := r.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	return NewNode(t, s, nodeName)
}
