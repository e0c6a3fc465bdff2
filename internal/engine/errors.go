package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/scenecore/internal/value"
)

// Error represents an error detected by the field/event engine.
//
// Engine errors include:
//   - Stage errors: a field operation illegal for the node's lifecycle state
//   - Already dirty: a field written twice within one tick (feedback loop)
//   - Type mismatch: a value of the wrong kind assigned to a field
//   - Name resolution: unknown field, node type or node
//   - Invalid configuration: bad routes, bad node types, timer misuse
//
// Error carries the node and field names where they are known, so callers
// can report the failure against the scene without further bookkeeping.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the name (or type name, for anonymous nodes) of the affected node.
	Node string

	// Field is the affected field name.
	Field string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeStage indicates an operation illegal for the node's lifecycle state.
	ErrCodeStage ErrorCode = "STAGE_ERROR"

	// ErrCodeAlreadyDirty indicates a second write to a field within one tick.
	ErrCodeAlreadyDirty ErrorCode = "ALREADY_DIRTY"

	// ErrCodeTypeMismatch indicates a value whose kind differs from the field's.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnknownField indicates a field name that resolves to nothing.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeUnknownNodeType indicates an unregistered node type name.
	ErrCodeUnknownNodeType ErrorCode = "UNKNOWN_NODE_TYPE"

	// ErrCodeUnknownNode indicates a node name not present in the scene.
	ErrCodeUnknownNode ErrorCode = "UNKNOWN_NODE"

	// ErrCodeInvalidConfiguration indicates a structurally invalid request.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"

	// ErrCodeRoundQuotaExceeded indicates a tick that never reached a fixpoint.
	ErrCodeRoundQuotaExceeded ErrorCode = "ROUND_QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Node != "" && e.Field != "":
		msg += fmt.Sprintf(" (node=%s, field=%s)", e.Node, e.Field)
	case e.Node != "":
		msg += fmt.Sprintf(" (node=%s)", e.Node)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsStageError reports whether err is a lifecycle stage violation.
func IsStageError(err error) bool { return hasCode(err, ErrCodeStage) }

// IsAlreadyDirty reports whether err is the loop-detection error raised by a
// second write to the same field within one tick.
func IsAlreadyDirty(err error) bool { return hasCode(err, ErrCodeAlreadyDirty) }

// IsTypeMismatch reports whether err is a type mismatch. It matches both
// engine errors and a bare *value.TypeMismatchError.
func IsTypeMismatch(err error) bool {
	if hasCode(err, ErrCodeTypeMismatch) {
		return true
	}
	var tm *value.TypeMismatchError
	return errors.As(err, &tm)
}

// IsUnknownField reports whether err is a failed field lookup.
func IsUnknownField(err error) bool { return hasCode(err, ErrCodeUnknownField) }

// IsUnknownNodeType reports whether err is a failed node type lookup.
func IsUnknownNodeType(err error) bool { return hasCode(err, ErrCodeUnknownNodeType) }

// IsUnknownNode reports whether err is a failed node lookup.
func IsUnknownNode(err error) bool { return hasCode(err, ErrCodeUnknownNode) }

// IsInvalidConfiguration reports whether err is an invalid configuration error.
func IsInvalidConfiguration(err error) bool { return hasCode(err, ErrCodeInvalidConfiguration) }

// IsRoundQuotaError reports whether err is a round quota violation.
// Matches both Error with ErrCodeRoundQuotaExceeded and RoundsExceededError.
func IsRoundQuotaError(err error) bool {
	if hasCode(err, ErrCodeRoundQuotaExceeded) {
		return true
	}
	var re *RoundsExceededError
	return errors.As(err, &re)
}

// NewStageError creates an Error for an operation attempted in the wrong
// lifecycle state.
func NewStageError(f *Field, op string) *Error {
	return &Error{
		Code:    ErrCodeStage,
		Message: fmt.Sprintf("cannot %s %s field while node is %s", op, f.Access(), f.node.state),
		Node:    f.node.label(),
		Field:   f.Name(),
	}
}

// NewAlreadyDirtyError creates an Error for a second write within one tick.
func NewAlreadyDirtyError(f *Field) *Error {
	return &Error{
		Code:    ErrCodeAlreadyDirty,
		Message: "field already changed this tick (event loop)",
		Node:    f.node.label(),
		Field:   f.Name(),
	}
}

// NewTypeMismatchError creates an Error for a value of the wrong kind.
func NewTypeMismatchError(f *Field, v value.Value) *Error {
	got := value.KindInvalid
	if v != nil {
		got = v.Kind()
	}
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Message: "value kind does not match field",
		Node:    f.node.label(),
		Field:   f.Name(),
		Err:     &value.TypeMismatchError{Want: f.Kind(), Got: got},
	}
}

// NewUnknownFieldError creates an Error for a field name missing on a node type.
func NewUnknownFieldError(typeName, field string) *Error {
	return &Error{
		Code:    ErrCodeUnknownField,
		Message: fmt.Sprintf("node type %s has no field %q", typeName, field),
		Field:   field,
	}
}

// NewUnknownNodeTypeError creates an Error for an unregistered type name.
func NewUnknownNodeTypeError(typeName string) *Error {
	return &Error{
		Code:    ErrCodeUnknownNodeType,
		Message: fmt.Sprintf("unknown node type %q", typeName),
	}
}

// NewUnknownNodeError creates an Error for a node name missing from a scene.
func NewUnknownNodeError(name string) *Error {
	return &Error{
		Code:    ErrCodeUnknownNode,
		Message: fmt.Sprintf("no node named %q", name),
		Node:    name,
	}
}

// NewInvalidConfigurationError creates an Error for a structurally invalid request.
func NewInvalidConfigurationError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}
