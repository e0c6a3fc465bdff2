package store

import (
	"context"
	"fmt"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/ir"
)

// Recorder is an engine.Observer that turns field firings into trace
// events. Every event gets the next seq of the run, starting at 1.
//
// Events are kept in memory for Events and buffered for the store until
// Flush. A Recorder created without a store only keeps them in memory.
//
// Like the scheduler it observes, a Recorder is not safe for concurrent use.
type Recorder struct {
	store   *Store
	runID   string
	seq     int64
	events  []ir.TraceEvent
	flushed int
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder for runID. s may be nil.
func NewRecorder(s *Store, runID string) *Recorder {
	return &Recorder{store: s, runID: runID}
}

// RunID returns the run the recorder writes to.
func (r *Recorder) RunID() string { return r.runID }

// FieldFired records the field's current value.
func (r *Recorder) FieldFired(t float64, f *engine.Field) {
	r.seq++
	r.events = append(r.events, NewTraceEvent(r.seq, t, f))
}

// TickDone implements engine.Observer.
func (r *Recorder) TickDone(engine.TickStats) {}

// Events returns every event recorded so far, in seq order.
func (r *Recorder) Events() []ir.TraceEvent {
	return r.events
}

// Pending returns the number of events not yet flushed.
func (r *Recorder) Pending() int {
	return len(r.events) - r.flushed
}

// Flush writes the buffered events in one transaction. Without a store it
// is a no-op.
func (r *Recorder) Flush(ctx context.Context) error {
	if r.store == nil || r.Pending() == 0 {
		return nil
	}
	if err := r.store.WriteEvents(ctx, r.runID, r.events[r.flushed:]); err != nil {
		return fmt.Errorf("flush run %s: %w", r.runID, err)
	}
	r.flushed = len(r.events)
	return nil
}

// NewTraceEvent snapshots f as a trace event.
func NewTraceEvent(seq int64, t float64, f *engine.Field) ir.TraceEvent {
	n := f.Node()
	val := ""
	if v := f.UnsafeGet(); v != nil {
		val = v.String()
	}
	return ir.TraceEvent{
		Seq:      seq,
		Time:     t,
		Node:     n.Name(),
		NodeType: n.TypeName(),
		Field:    f.Name(),
		Kind:     f.Kind().String(),
		Value:    val,
	}
}
