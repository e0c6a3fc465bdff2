package ir

import (
	"fmt"
	"strings"
)

// SceneSpec is a declared scene: nodes in declaration order, routes and
// root node names.
type SceneSpec struct {
	Name   string      `json:"name"`
	Nodes  []NodeDecl  `json:"nodes"`
	Routes []RouteDecl `json:"routes"`
	Roots  []string    `json:"roots"`
}

// NodeDecl declares one named node and its initial field values.
type NodeDecl struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Fields []FieldAssign `json:"fields"`
}

// FieldAssign is a field initializer. Value is the literal as written;
// it is converted to a typed value once the field's kind is known.
type FieldAssign struct {
	Name  string  `json:"name"`
	Value IRValue `json:"value"`
}

// RouteDecl declares a route between two named fields.
type RouteDecl struct {
	FromNode  string `json:"from_node"`
	FromField string `json:"from_field"`
	ToNode    string `json:"to_node"`
	ToField   string `json:"to_field"`
}

// ParseRouteDecl builds a RouteDecl from "Node.field" endpoints.
func ParseRouteDecl(from, to string) (RouteDecl, error) {
	fromNode, fromField, err := splitEndpoint(from)
	if err != nil {
		return RouteDecl{}, fmt.Errorf("route source: %w", err)
	}
	toNode, toField, err := splitEndpoint(to)
	if err != nil {
		return RouteDecl{}, fmt.Errorf("route destination: %w", err)
	}
	return RouteDecl{FromNode: fromNode, FromField: fromField, ToNode: toNode, ToField: toField}, nil
}

func splitEndpoint(s string) (string, string, error) {
	node, field, ok := strings.Cut(s, ".")
	if !ok || node == "" || field == "" || strings.Contains(field, ".") {
		return "", "", fmt.Errorf("endpoint %q must have the form Node.field", s)
	}
	return node, field, nil
}

func (r RouteDecl) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", r.FromNode, r.FromField, r.ToNode, r.ToField)
}

// Node returns the declaration with the given name.
func (s *SceneSpec) Node(name string) (NodeDecl, bool) {
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeDecl{}, false
}

// Object returns the canonical form of the scene declaration.
func (s *SceneSpec) Object() IRObject {
	nodes := make(IRArray, len(s.Nodes))
	for i, n := range s.Nodes {
		fields := make(IRArray, len(n.Fields))
		for j, f := range n.Fields {
			fields[j] = IRObject{"name": IRString(f.Name), "value": f.Value}
		}
		nodes[i] = IRObject{
			"name":   IRString(n.Name),
			"type":   IRString(n.Type),
			"fields": fields,
		}
	}
	routes := make(IRArray, len(s.Routes))
	for i, r := range s.Routes {
		routes[i] = IRObject{
			"from_node":  IRString(r.FromNode),
			"from_field": IRString(r.FromField),
			"to_node":    IRString(r.ToNode),
			"to_field":   IRString(r.ToField),
		}
	}
	roots := make(IRArray, len(s.Roots))
	for i, r := range s.Roots {
		roots[i] = IRString(r)
	}
	return IRObject{
		"name":   IRString(s.Name),
		"nodes":  nodes,
		"routes": routes,
		"roots":  roots,
	}
}

// TraceEvent records one field firing: the field's value at the moment its
// routes were activated. Seq orders events across the whole run.
type TraceEvent struct {
	Seq      int64   `json:"seq"`
	Time     float64 `json:"time"`
	Node     string  `json:"node"`
	NodeType string  `json:"node_type"`
	Field    string  `json:"field"`
	Kind     string  `json:"kind"`
	Value    string  `json:"value"`
}

// Object returns the canonical form of the event.
func (e TraceEvent) Object() IRObject {
	return IRObject{
		"seq":       IRInt(e.Seq),
		"time":      IRFloat(e.Time),
		"node":      IRString(e.Node),
		"node_type": IRString(e.NodeType),
		"field":     IRString(e.Field),
		"kind":      IRString(e.Kind),
		"value":     IRString(e.Value),
	}
}

func (e TraceEvent) String() string {
	return fmt.Sprintf("t=%g %s.%s=%s", e.Time, e.Node, e.Field, e.Value)
}

// MarshalTrace writes events as canonical JSON, one object per line.
func MarshalTrace(events []TraceEvent) ([]byte, error) {
	var b strings.Builder
	for i, e := range events {
		line, err := MarshalCanonical(e.Object())
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// Run describes one recorded simulation run.
type Run struct {
	ID            string `json:"id"`
	SceneName     string `json:"scene_name"`
	SceneHash     string `json:"scene_hash"`
	EngineVersion string `json:"engine_version"`
	CreatedSeq    int64  `json:"created_seq"`
	Events        int64  `json:"events"`
}
