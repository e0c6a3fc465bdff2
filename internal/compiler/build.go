package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/ir"
	"github.com/roach88/scenecore/internal/value"
)

// Build validates spec against the scene's registry and instantiates it:
// nodes are created in declaration order and left in SettingUp, fields are
// assigned through the high-level set, roots are marked and routes are
// inserted. Routes realize both endpoints.
func Build(spec *ir.SceneSpec, sc *engine.Scene) error {
	if err := ValidationErrors(Validate(spec, sc.Registry())); err != nil {
		return err
	}

	for _, decl := range spec.Nodes {
		if _, err := sc.CreateNode(decl.Type, decl.Name); err != nil {
			return fmt.Errorf("create %s: %w", decl.Name, err)
		}
	}

	resolve := func(name string) (value.NodeRef, error) {
		n, err := sc.Node(name)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	for _, decl := range spec.Nodes {
		n, err := sc.Node(decl.Name)
		if err != nil {
			return err
		}
		for _, assign := range decl.Fields {
			f, err := n.Field(assign.Name)
			if err != nil {
				return err
			}
			v, err := FieldValue(f.Kind(), assign.Value, resolve)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", decl.Name, assign.Name, err)
			}
			if err := f.Set(v); err != nil {
				return fmt.Errorf("%s.%s: %w", decl.Name, assign.Name, err)
			}
		}
	}

	for _, name := range spec.Roots {
		n, err := sc.Node(name)
		if err != nil {
			return err
		}
		if err := sc.AddRoot(n); err != nil {
			return fmt.Errorf("root %s: %w", name, err)
		}
	}

	for _, r := range spec.Routes {
		if _, err := sc.AddRoute(r.FromNode, r.FromField, r.ToNode, r.ToField); err != nil {
			return fmt.Errorf("route %s: %w", r, err)
		}
	}

	slog.Info("scene built",
		"scene", spec.Name,
		"nodes", len(spec.Nodes),
		"routes", len(spec.Routes),
		"roots", len(spec.Roots),
	)
	return nil
}
