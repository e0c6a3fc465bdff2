package nodes

import (
	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/value"
)

func defineGroup(child *engine.NodeType) (*engine.NodeType, error) {
	return define(engine.NewNodeType(Group, child),
		field("children", value.KindMFNode, engine.AccessInputOutput, nil),
		withAction(field("addChildren", value.KindMFNode, engine.AccessInputOnly, nil), addChildren),
		withAction(field("removeChildren", value.KindMFNode, engine.AccessInputOnly, nil), removeChildren),
	)
}

func childrenOf(n *engine.Node) (*engine.Field, value.MFNode, error) {
	f := n.MustField("children")
	kids, err := value.As[value.MFNode](f.UnsafeGet())
	return f, kids, err
}

// addChildren appends the nodes not already present and realizes them.
func addChildren(f *engine.Field, v value.Value) error {
	children, kids, err := childrenOf(f.Node())
	if err != nil {
		return err
	}
	next := append(value.MFNode(nil), kids...)
	for _, add := range v.(value.MFNode) {
		if add.Node == nil || containsNode(next, add.Node) {
			continue
		}
		if child, ok := add.Node.(*engine.Node); ok {
			if err := child.Realize(); err != nil {
				return err
			}
		}
		next = append(next, add)
	}
	if len(next) == len(kids) {
		return nil
	}
	return children.Set(next)
}

// removeChildren drops every listed node from children.
func removeChildren(f *engine.Field, v value.Value) error {
	children, kids, err := childrenOf(f.Node())
	if err != nil {
		return err
	}
	remove := v.(value.MFNode)
	next := make(value.MFNode, 0, len(kids))
	for _, k := range kids {
		if !containsNode(remove, k.Node) {
			next = append(next, k)
		}
	}
	if len(next) == len(kids) {
		return nil
	}
	return children.Set(next)
}

func containsNode(list value.MFNode, n value.NodeRef) bool {
	for _, item := range list {
		if item.Node == n {
			return true
		}
	}
	return false
}
