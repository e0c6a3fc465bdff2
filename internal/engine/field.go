package engine

import (
	"log/slog"

	"github.com/roach88/scenecore/internal/value"
)

// Field is the runtime handle of one field on one node. Its read/write
// contract depends on the descriptor's AccessKind and the node's State:
//
//   - init-only: Get and Send succeed only before the node is realized.
//   - input-only: Send succeeds only while realized and hands the value to
//     the descriptor's Action; nothing is stored and Get always fails.
//   - output-only: Send succeeds only while realized; Get fails before then.
//   - input-output: before realization Send just stores the value. After
//     it, Send passes through the filter, marks the field dirty, queues it
//     for routing and runs the Action.
//
// A dirty field rejects further writes with ALREADY_DIRTY until the
// scheduler clears it at the end of the tick.
type Field struct {
	node  *Node
	desc  *FieldDescriptor
	val   value.Value
	dirty bool
	out   []*Route
	in    []*Route
}

func (f *Field) Node() *Node                  { return f.node }
func (f *Field) Descriptor() *FieldDescriptor { return f.desc }
func (f *Field) Name() string                 { return f.desc.Name }
func (f *Field) Kind() value.Kind             { return f.desc.Kind }
func (f *Field) Access() AccessKind           { return f.desc.Access }

// IsDirty reports whether the field changed during the current tick.
// Init-only and input-only fields are never dirty.
func (f *Field) IsDirty() bool { return f.dirty }

// Outgoing returns the routes whose source is f.
func (f *Field) Outgoing() []*Route { return f.out }

// Incoming returns the routes whose destination is f.
func (f *Field) Incoming() []*Route { return f.in }

// Get returns the field's current value.
func (f *Field) Get() (value.Value, error) {
	st := f.node.state
	if st == StateDisposed {
		return nil, NewStageError(f, "read")
	}
	switch f.desc.Access {
	case AccessInitOnly:
		if st >= StateRealized {
			return nil, NewStageError(f, "read")
		}
	case AccessInputOnly:
		err := NewInvalidConfigurationError("input-only field %s holds no value", f.Name())
		err.Node = f.node.label()
		err.Field = f.Name()
		return nil, err
	case AccessOutputOnly:
		if st < StateRealized {
			return nil, NewStageError(f, "read")
		}
	}
	return f.val, nil
}

// Send is the low-level write. It reports whether the value was accepted;
// an input-output write the filter rejects returns (false, nil).
func (f *Field) Send(v value.Value) (bool, error) {
	if v == nil || v.Kind() != f.desc.Kind {
		return false, NewTypeMismatchError(f, v)
	}
	st := f.node.state
	if st == StateDisposed {
		return false, NewStageError(f, "write")
	}

	switch f.desc.Access {
	case AccessInitOnly:
		if st >= StateRealized {
			return false, NewStageError(f, "write")
		}
		f.val = v
		return true, nil

	case AccessInputOnly:
		if st != StateRealized {
			return false, NewStageError(f, "write")
		}
		return true, f.act(v)

	case AccessOutputOnly:
		if st != StateRealized {
			return false, NewStageError(f, "write")
		}
		if f.dirty {
			return false, NewAlreadyDirtyError(f)
		}
		f.commit(v)
		return true, f.act(v)

	default: // AccessInputOutput
		if st != StateRealized {
			f.val = v
			return true, nil
		}
		if f.dirty {
			return false, NewAlreadyDirtyError(f)
		}
		if !f.accepts(v) {
			return false, nil
		}
		f.commit(v)
		return true, f.act(v)
	}
}

// Set is the high-level write used by route activation and scene
// assignment. It behaves like Send except that a second write within one
// tick is logged and dropped instead of failing.
func (f *Field) Set(v value.Value) error {
	_, err := f.Send(v)
	if err != nil && IsAlreadyDirty(err) {
		slog.Debug("dropped write to dirty field",
			"node", f.node.label(),
			"field", f.Name(),
			"time", f.node.sched.Now(),
		)
		return nil
	}
	return err
}

// UnsafeGet returns the stored value, ignoring every access rule.
func (f *Field) UnsafeGet() value.Value { return f.val }

// UnsafeSet stores v without checks, dirtying or actions. It exists for
// structural operations such as cloning, never for simulation.
func (f *Field) UnsafeSet(v value.Value) { f.val = v }

func (f *Field) accepts(v value.Value) bool {
	if f.desc.Filter != nil {
		return f.desc.Filter(f, v)
	}
	return f.val == nil || !f.val.Equal(v)
}

func (f *Field) commit(v value.Value) {
	f.val = v
	f.dirty = true
	f.node.sched.markDirty(f)
}

func (f *Field) act(v value.Value) error {
	if f.desc.Action == nil {
		return nil
	}
	return f.desc.Action(f, v)
}

func (f *Field) String() string {
	return f.node.label() + "." + f.Name()
}
