package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/scenecore/internal/ir"
)

// EventFilter narrows ReadEvents. Empty fields match everything.
type EventFilter struct {
	Node  string
	Field string
}

// ReadEvents returns the events of a run in seq order.
//
// Returns an empty slice (not nil) if the run has no matching events, and
// ErrRunNotFound if the run does not exist.
func (s *Store) ReadEvents(ctx context.Context, runID string, filter EventFilter) ([]ir.TraceEvent, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	where := []string{"run_id = ?"}
	args := []any{runID}
	if filter.Node != "" {
		where = append(where, "node = ?")
		args = append(args, filter.Node)
	}
	if filter.Field != "" {
		where = append(where, "field = ?")
		args = append(args, filter.Field)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time, node, node_type, field, kind, value
		FROM field_events
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY seq ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.TraceEvent{}
	for rows.Next() {
		var e ir.TraceEvent
		if err := rows.Scan(&e.Seq, &e.Time, &e.Node, &e.NodeType, &e.Field, &e.Kind, &e.Value); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

const runColumns = `
	r.id, r.scene_name, r.scene_hash, r.engine_version, r.created_seq,
	(SELECT COUNT(*) FROM field_events e WHERE e.run_id = r.id)
`

// ReadRun returns one run with its event count.
func (s *Store) ReadRun(ctx context.Context, runID string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run in creation order.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.created_seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (ir.Run, error) {
	var r ir.Run
	err := sc.Scan(&r.ID, &r.SceneName, &r.SceneHash, &r.EngineVersion, &r.CreatedSeq, &r.Events)
	return r, err
}
