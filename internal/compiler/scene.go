package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scenecore/internal/ir"
)

// CompileScene parses a CUE value into a SceneSpec.
//
// The CUE value should be the scene struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`scene: { name: "demo", nodes: { ... } }`)
//	spec, err := CompileScene(v.LookupPath(cue.ParsePath("scene")))
//
// Nodes, fields, routes and roots keep their declaration order.
func CompileScene(v cue.Value) (*ir.SceneSpec, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "scene", Message: "scene is required"}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.SceneSpec{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Field: "name", Message: "name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Name = name

	if spec.Nodes, err = parseNodes(v); err != nil {
		return nil, err
	}
	if spec.Routes, err = parseRoutes(v); err != nil {
		return nil, err
	}
	if spec.Roots, err = parseStrings(v, "roots"); err != nil {
		return nil, err
	}
	return spec, nil
}

// CompileSceneSource compiles CUE source and extracts its top-level scene.
// filename is used for error positions only.
func CompileSceneSource(filename string, src []byte) (*ir.SceneSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileScene(v.LookupPath(cue.ParsePath("scene")))
}

// LoadSceneFile reads and compiles a single CUE scene file.
func LoadSceneFile(path string) (*ir.SceneSpec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return CompileSceneSource(path, src)
}

func parseNodes(v cue.Value) ([]ir.NodeDecl, error) {
	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, nil
	}
	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var nodes []ir.NodeDecl
	for iter.Next() {
		decl := ir.NodeDecl{Name: iter.Selector().Unquoted()}
		nodeVal := iter.Value()

		typeVal := nodeVal.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   "nodes." + decl.Name + ".type",
				Message: "type is required",
				Pos:     nodeVal.Pos(),
			}
		}
		if decl.Type, err = typeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}

		fieldsVal := nodeVal.LookupPath(cue.ParsePath("fields"))
		if fieldsVal.Exists() {
			fieldIter, err := fieldsVal.Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for fieldIter.Next() {
				fieldName := fieldIter.Selector().Unquoted()
				lit, err := literal(fieldIter.Value(), "nodes."+decl.Name+".fields."+fieldName)
				if err != nil {
					return nil, err
				}
				decl.Fields = append(decl.Fields, ir.FieldAssign{Name: fieldName, Value: lit})
			}
		}
		nodes = append(nodes, decl)
	}
	return nodes, nil
}

func parseRoutes(v cue.Value) ([]ir.RouteDecl, error) {
	routesVal := v.LookupPath(cue.ParsePath("routes"))
	if !routesVal.Exists() {
		return nil, nil
	}
	iter, err := routesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var routes []ir.RouteDecl
	for i := 0; iter.Next(); i++ {
		routeVal := iter.Value()
		field := fmt.Sprintf("routes[%d]", i)
		from, err := requiredString(routeVal, "from", field)
		if err != nil {
			return nil, err
		}
		to, err := requiredString(routeVal, "to", field)
		if err != nil {
			return nil, err
		}
		decl, err := ir.ParseRouteDecl(from, to)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: routeVal.Pos()}
		}
		routes = append(routes, decl)
	}
	return routes, nil
}

func requiredString(v cue.Value, name, parent string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", &CompileError{Field: parent + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func parseStrings(v cue.Value, name string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(name))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// literal converts a concrete CUE value to an IR literal. Structs and null
// have no field-text form and are rejected.
func literal(v cue.Value, field string) (ir.IRValue, error) {
	if !v.IsConcrete() {
		return nil, &CompileError{Field: field, Message: "value must be concrete", Pos: v.Pos()}
	}
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRFloat(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := literal(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.NullKind:
		return nil, &CompileError{Field: field, Message: `null is not a field value, use "NULL"`, Pos: v.Pos()}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
