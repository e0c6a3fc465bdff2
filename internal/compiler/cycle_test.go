package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/ir"
)

func routes(pairs ...[2]string) *ir.SceneSpec {
	s := &ir.SceneSpec{}
	for _, p := range pairs {
		s.Routes = append(s.Routes, ir.RouteDecl{FromNode: p[0], FromField: "out", ToNode: p[1], ToField: "in"})
	}
	return s
}

func TestAnalyzeRouteCycles_NoRoutes(t *testing.T) {
	assert.Empty(t, AnalyzeRouteCycles(&ir.SceneSpec{}))
}

func TestAnalyzeRouteCycles_DAG(t *testing.T) {
	s := routes([2]string{"A", "B"}, [2]string{"A", "C"}, [2]string{"B", "C"})
	assert.Empty(t, AnalyzeRouteCycles(s))
}

func TestAnalyzeRouteCycles_SelfLoop(t *testing.T) {
	warnings := AnalyzeRouteCycles(routes([2]string{"A", "A"}))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"A", "A"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "routes to itself")
}

func TestAnalyzeRouteCycles_TwoNodeCycle(t *testing.T) {
	warnings := AnalyzeRouteCycles(routes([2]string{"A", "B"}, [2]string{"B", "A"}))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"A", "B", "A"}, warnings[0].Path)
	assert.Equal(t, "route cycle: A -> B -> A", warnings[0].Message)
}

func TestAnalyzeRouteCycles_ThreeNodeCycle(t *testing.T) {
	s := routes([2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"}, [2]string{"C", "D"})
	warnings := AnalyzeRouteCycles(s)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"A", "B", "C", "A"}, warnings[0].Path)
}

func TestAnalyzeRouteCycles_DeclarationOrder(t *testing.T) {
	s := routes([2]string{"X", "X"}, [2]string{"A", "B"}, [2]string{"B", "A"})
	s.Nodes = []ir.NodeDecl{{Name: "A"}, {Name: "B"}, {Name: "X"}}

	warnings := AnalyzeRouteCycles(s)
	require.Len(t, warnings, 2)
	assert.Equal(t, "A", warnings[0].Path[0])
	assert.Equal(t, "X", warnings[1].Path[0])
}

func TestAnalyzeRouteCycles_ParallelRoutesCountOnce(t *testing.T) {
	s := routes([2]string{"A", "B"}, [2]string{"A", "B"}, [2]string{"B", "A"})
	assert.Len(t, AnalyzeRouteCycles(s), 1)
}
