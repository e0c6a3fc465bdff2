package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/scenecore/internal/ir"
)

// ErrRunNotFound is returned when a run ID has no row in the runs table.
var ErrRunNotFound = errors.New("run not found")

// CreateRun inserts a run record and returns it with CreatedSeq assigned.
// CreatedSeq is one more than the largest existing value, so runs list in
// creation order regardless of their IDs.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: creating an existing ID
// returns the stored record unchanged.
func (s *Store) CreateRun(ctx context.Context, run ir.Run) (ir.Run, error) {
	if run.ID == "" {
		return ir.Run{}, fmt.Errorf("create run: empty run id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scene_name, scene_hash, engine_version, created_seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(created_seq), 0) + 1 FROM runs))
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.SceneName,
		run.SceneHash,
		run.EngineVersion,
	)
	if err != nil {
		return ir.Run{}, fmt.Errorf("create run: %w", err)
	}
	return s.ReadRun(ctx, run.ID)
}

// WriteEvents appends events to a run in a single transaction. Either every
// event is stored or none is.
//
// Events already stored under the same (run_id, seq) are ignored, so
// flushing the same batch twice is harmless.
func (s *Store) WriteEvents(ctx context.Context, runID string, events []ir.TraceEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("write events: %w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("write events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO field_events
		(run_id, seq, time, node, node_type, field, kind, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			runID,
			e.Seq,
			e.Time,
			e.Node,
			e.NodeType,
			e.Field,
			e.Kind,
			e.Value,
		); err != nil {
			return fmt.Errorf("write events: seq %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}

	slog.Debug("events written", "run_id", runID, "count", len(events))
	return nil
}
