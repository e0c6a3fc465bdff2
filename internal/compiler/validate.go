package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/ir"
	"github.com/roach88/scenecore/internal/value"
)

// Validation error codes (E200-E299)
const (
	ErrSceneNameEmpty    = "E200" // scene name is required
	ErrNodeNameInvalid   = "E201" // empty or reserved node name
	ErrDuplicateNode     = "E202" // node declared twice
	ErrUnknownNodeType   = "E203" // type not in the registry
	ErrAbstractNodeType  = "E204" // type cannot be instantiated
	ErrUnknownField      = "E205" // field not on the node type
	ErrFieldNotSettable  = "E206" // inputOnly/outputOnly field assigned
	ErrInvalidFieldValue = "E207" // literal does not parse as the field kind
	ErrDuplicateField    = "E208" // field assigned twice
	ErrUnknownNode       = "E210" // route, root or node value names no node
	ErrRouteDirection    = "E211" // route source not output or destination not input
	ErrRouteKindMismatch = "E212" // route endpoints of different kinds
)

// ValidationError represents a scene validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a scene declaration against the node types in reg.
// Returns all errors found (does not fail-fast).
func Validate(spec *ir.SceneSpec, reg *engine.Registry) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if strings.TrimSpace(spec.Name) == "" {
		add(ErrSceneNameEmpty, "name", "scene name is required and must be non-empty")
	}

	types := make(map[string]*engine.NodeType, len(spec.Nodes))
	for i, n := range spec.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		if n.Name == "" || n.Name == NullNode || strings.Contains(n.Name, ".") {
			add(ErrNodeNameInvalid, path+".name", "invalid node name %q", n.Name)
		}
		if _, dup := types[n.Name]; dup {
			add(ErrDuplicateNode, path+".name", "duplicate node name: %q", n.Name)
			continue
		}
		nt, err := reg.Lookup(n.Type)
		if err != nil {
			add(ErrUnknownNodeType, path+".type", "unknown node type %q", n.Type)
			types[n.Name] = nil
			continue
		}
		if nt.IsAbstract() {
			add(ErrAbstractNodeType, path+".type", "node type %q is abstract", n.Type)
		}
		types[n.Name] = nt
	}

	for i, n := range spec.Nodes {
		nt := types[n.Name]
		if nt == nil {
			continue
		}
		seen := make(map[string]bool)
		for j, f := range n.Fields {
			path := fmt.Sprintf("nodes[%d].fields.%s", i, f.Name)
			d, role, ok := nt.Lookup(f.Name)
			if !ok {
				add(ErrUnknownField, path, "%s has no field %q", n.Type, f.Name)
				continue
			}
			if role != engine.RoleAny || d.Access == engine.AccessInputOnly || d.Access == engine.AccessOutputOnly {
				add(ErrFieldNotSettable, path, "field %q (%s) cannot be initialized", f.Name, d.Access)
				continue
			}
			if seen[d.Name] {
				add(ErrDuplicateField, path, "field %q assigned twice", f.Name)
			}
			seen[d.Name] = true
			if err := checkLiteral(d.Kind, f.Value, types); err != nil {
				add(ErrInvalidFieldValue, fmt.Sprintf("nodes[%d].fields[%d]", i, j), "%s: %v", f.Name, err)
			}
		}
	}

	for i, r := range spec.Routes {
		path := fmt.Sprintf("routes[%d]", i)
		from, okFrom := routeEndpoint(types, r.FromNode, r.FromField, path+".from", engine.RoleInput, add)
		to, okTo := routeEndpoint(types, r.ToNode, r.ToField, path+".to", engine.RoleOutput, add)
		if !okFrom || !okTo {
			continue
		}
		if !from.Access.IsOutput() {
			add(ErrRouteDirection, path+".from", "%s.%s is %s and cannot be a route source", r.FromNode, r.FromField, from.Access)
		}
		if !to.Access.IsInput() {
			add(ErrRouteDirection, path+".to", "%s.%s is %s and cannot be a route destination", r.ToNode, r.ToField, to.Access)
		}
		if from.Kind != to.Kind {
			add(ErrRouteKindMismatch, path, "%s connects %s to %s", r, from.Kind, to.Kind)
		}
	}

	for i, root := range spec.Roots {
		if _, ok := types[root]; !ok {
			add(ErrUnknownNode, fmt.Sprintf("roots[%d]", i), "unknown node %q", root)
		}
	}
	return errs
}

// routeEndpoint resolves one end of a route. A name resolving with the
// forbidden role (set_x as a source, x_changed as a destination) is an error.
func routeEndpoint(types map[string]*engine.NodeType, node, field, path string, forbidden engine.Role,
	add func(code, field, format string, args ...any)) (*engine.FieldDescriptor, bool) {
	nt, declared := types[node]
	if !declared {
		add(ErrUnknownNode, path, "unknown node %q", node)
		return nil, false
	}
	if nt == nil {
		return nil, false
	}
	d, role, ok := nt.Lookup(field)
	if !ok {
		add(ErrUnknownField, path, "%s has no field %q", nt.Name(), field)
		return nil, false
	}
	if role == forbidden {
		add(ErrRouteDirection, path, "alias %q cannot be used at this end of a route", field)
		return nil, false
	}
	return d, true
}

// checkLiteral converts lit without a scene. Node names are checked
// against the declared nodes.
func checkLiteral(k value.Kind, lit ir.IRValue, types map[string]*engine.NodeType) error {
	_, err := FieldValue(k, lit, func(name string) (value.NodeRef, error) {
		if _, ok := types[name]; !ok {
			return nil, fmt.Errorf("unknown node %q", name)
		}
		return placeholder(name), nil
	})
	return err
}

type placeholder string

func (p placeholder) Name() string     { return string(p) }
func (p placeholder) TypeName() string { return "" }

// ValidationErrors joins a validation result into one error, or nil.
func ValidationErrors(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("scene has %d validation error(s):\n  %s", len(errs), strings.Join(msgs, "\n  "))
}
