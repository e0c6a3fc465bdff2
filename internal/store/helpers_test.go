package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createMemoryStore creates a store backed by a private in-memory database.
func createMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRun(t *testing.T, s *Store, id string) ir.Run {
	t.Helper()
	run, err := s.CreateRun(context.Background(), ir.Run{
		ID:            id,
		SceneName:     "fade",
		SceneHash:     "scene-hash",
		EngineVersion: ir.EngineVersion,
	})
	require.NoError(t, err)
	return run
}

func testEvent(seq int64, t float64, node, field, val string) ir.TraceEvent {
	return ir.TraceEvent{
		Seq:      seq,
		Time:     t,
		Node:     node,
		NodeType: "TimeSensor",
		Field:    field,
		Kind:     "SFTime",
		Value:    val,
	}
}
