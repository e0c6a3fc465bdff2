package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/scenecore/internal/ir"
	"github.com/roach88/scenecore/internal/value"
)

// NullNode is the literal naming no node in SFNode and MFNode values.
const NullNode = "NULL"

// ResolveFunc returns the node named name.
type ResolveFunc func(name string) (value.NodeRef, error)

// FieldValue converts a declared literal into a value of kind k.
//
// SFNode takes a node name or "NULL"; MFNode takes a list of names (or a
// single name). Every other kind is rendered to scene-description text
// and parsed, so "0 1 0", [0, 1, 0] and a bare 1 are all accepted where
// they make sense.
func FieldValue(k value.Kind, lit ir.IRValue, resolve ResolveFunc) (value.Value, error) {
	switch k {
	case value.KindSFNode:
		name, ok := lit.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("SFNode expects a node name, got %T", lit)
		}
		return resolveNode(string(name), resolve)
	case value.KindMFNode:
		names, err := nodeNames(lit)
		if err != nil {
			return nil, err
		}
		out := make(value.MFNode, 0, len(names))
		for _, name := range names {
			ref, err := resolveNode(name, resolve)
			if err != nil {
				return nil, err
			}
			out = append(out, ref)
		}
		return out, nil
	}
	text, err := FieldText(k, lit)
	if err != nil {
		return nil, err
	}
	return value.Parse(k, text)
}

func resolveNode(name string, resolve ResolveFunc) (value.SFNode, error) {
	if name == NullNode {
		return value.SFNode{}, nil
	}
	if resolve == nil {
		return value.SFNode{}, fmt.Errorf("node reference %q cannot be resolved here", name)
	}
	ref, err := resolve(name)
	if err != nil {
		return value.SFNode{}, err
	}
	return value.SFNode{Node: ref}, nil
}

func nodeNames(lit ir.IRValue) ([]string, error) {
	switch v := lit.(type) {
	case ir.IRString:
		return []string{string(v)}, nil
	case ir.IRArray:
		names := make([]string, len(v))
		for i, elem := range v {
			s, ok := elem.(ir.IRString)
			if !ok {
				return nil, fmt.Errorf("MFNode element %d: expected a node name, got %T", i, elem)
			}
			names[i] = string(s)
		}
		return names, nil
	}
	return nil, fmt.Errorf("MFNode expects a list of node names, got %T", lit)
}

// FieldText renders a literal as scene-description text for kind k.
// A string is taken as field text verbatim, except for SFString and
// MFString where it is the string content and gets quoted.
func FieldText(k value.Kind, lit ir.IRValue) (string, error) {
	switch v := lit.(type) {
	case ir.IRString:
		if k == value.KindSFString || k == value.KindMFString {
			return quote(string(v)), nil
		}
		return string(v), nil
	case ir.IRInt:
		return strconv.FormatInt(int64(v), 10), nil
	case ir.IRFloat:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), nil
	case ir.IRBool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case ir.IRArray:
		if k.IsMulti() {
			parts := make([]string, len(v))
			for i, elem := range v {
				text, err := FieldText(k.Element(), elem)
				if err != nil {
					return "", fmt.Errorf("element %d: %w", i, err)
				}
				parts[i] = text
			}
			return "[ " + strings.Join(parts, ", ") + " ]", nil
		}
		// Multi-component single values: [0, 1, 0] for SFVec3f.
		parts := make([]string, len(v))
		for i, elem := range v {
			text, err := FieldText(k, elem)
			if err != nil {
				return "", fmt.Errorf("component %d: %w", i, err)
			}
			parts[i] = text
		}
		return strings.Join(parts, " "), nil
	case nil:
		return "", fmt.Errorf("missing value")
	}
	return "", fmt.Errorf("unsupported literal %T for %s", lit, k)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
