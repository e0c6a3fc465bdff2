package engine

import (
	"slices"

	"github.com/roach88/scenecore/internal/value"
)

// Route is a directed, type-checked connection between two fields. The
// engine only indexes routes on their endpoints; the scene owns them.
type Route struct {
	from *Field
	to   *Field
}

// NewRoute validates a connection from an output-capable field to an
// input-capable one of the same kind. It registers nothing; see Insert.
func NewRoute(from, to *Field) (*Route, error) {
	if from == nil || to == nil {
		return nil, NewInvalidConfigurationError("route endpoint is nil")
	}
	if from.Kind() != to.Kind() {
		err := NewInvalidConfigurationError("route %s -> %s connects %s to %s", from, to, from.Kind(), to.Kind())
		err.Err = &value.TypeMismatchError{Want: from.Kind(), Got: to.Kind()}
		return nil, err
	}
	if !from.Access().IsOutput() {
		return nil, NewInvalidConfigurationError("route source %s is %s", from, from.Access())
	}
	if !to.Access().IsInput() {
		return nil, NewInvalidConfigurationError("route destination %s is %s", to, to.Access())
	}
	if from.node.sched != to.node.sched {
		return nil, NewInvalidConfigurationError("route %s -> %s crosses schedulers", from, to)
	}
	return &Route{from: from, to: to}, nil
}

func (r *Route) From() *Field { return r.from }
func (r *Route) To() *Field   { return r.to }

// Insert registers the route on both endpoints and realizes both nodes.
// If the source already routes to the same destination, that existing route
// is returned and r is left unregistered.
func (r *Route) Insert() (*Route, error) {
	for _, existing := range r.from.out {
		if existing.to == r.to {
			return existing, nil
		}
	}
	if err := r.from.node.Realize(); err != nil {
		return nil, err
	}
	if err := r.to.node.Realize(); err != nil {
		return nil, err
	}
	r.from.out = append(r.from.out, r)
	r.to.in = append(r.to.in, r)
	return r, nil
}

// Remove unregisters the route from both endpoints. The route itself stays
// valid and can be inserted again.
func (r *Route) Remove() {
	r.from.out = slices.DeleteFunc(slices.Clone(r.from.out), func(x *Route) bool { return x == r })
	r.to.in = slices.DeleteFunc(slices.Clone(r.to.in), func(x *Route) bool { return x == r })
}

// IsInserted reports whether the route is registered on its source.
func (r *Route) IsInserted() bool {
	return slices.Contains(r.from.out, r)
}

// Activate copies the source value to the destination through the
// destination's high-level Set, if the source is dirty.
func (r *Route) Activate() error {
	if !r.from.dirty {
		return nil
	}
	return r.to.Set(r.from.val)
}

func (r *Route) String() string {
	return r.from.String() + " -> " + r.to.String()
}
