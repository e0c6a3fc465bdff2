package harness

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/ir"
)

func event(seq int64, t float64, node, field, kind, val string) ir.TraceEvent {
	return ir.TraceEvent{Seq: seq, Time: t, Node: node, NodeType: "T", Field: field, Kind: kind, Value: val}
}

func sampleTrace() []ir.TraceEvent {
	return []ir.TraceEvent{
		event(1, 0, "Clock", "isActive", "SFBool", "TRUE"),
		event(2, 0, "Clock", "fraction_changed", "SFFloat", "0"),
		event(3, 1, "Clock", "fraction_changed", "SFFloat", "0.5"),
		event(4, 1, "Fade", "value_changed", "SFVec3f", "1 2 3"),
		event(5, 2, "Clock", "isActive", "SFBool", "FALSE"),
	}
}

func f64(v float64) *float64 { return &v }

func TestEvaluateAssertions_Trace(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"contains any value", Assertion{Type: AssertTraceContains, Node: "Fade", Field: "value_changed"}, true},
		{"contains numeric value", Assertion{Type: AssertTraceContains, Node: "Clock", Field: "fraction_changed", Value: 0.5}, true},
		{"contains text value", Assertion{Type: AssertTraceContains, Node: "Clock", Field: "fraction_changed", Value: ".5"}, true},
		{"contains vector list", Assertion{Type: AssertTraceContains, Node: "Fade", Field: "value_changed", Value: []any{1, 2, 3}}, true},
		{"contains vector text", Assertion{Type: AssertTraceContains, Node: "Fade", Field: "value_changed", Value: "1 2 3"}, true},
		{"contains bool", Assertion{Type: AssertTraceContains, Node: "Clock", Field: "isActive", Value: false}, true},
		{"contains at time", Assertion{Type: AssertTraceContains, Node: "Clock", Field: "fraction_changed", Value: 0, Time: f64(0)}, true},
		{"contains wrong time", Assertion{Type: AssertTraceContains, Node: "Clock", Field: "fraction_changed", Value: 0, Time: f64(1)}, false},
		{"contains wrong value", Assertion{Type: AssertTraceContains, Node: "Clock", Field: "fraction_changed", Value: 0.75}, false},
		{"contains unparsable value", Assertion{Type: AssertTraceContains, Node: "Clock", Field: "isActive", Value: "maybe"}, false},
		{"contains missing", Assertion{Type: AssertTraceContains, Node: "Nobody", Field: "x"}, false},
		{"count all", Assertion{Type: AssertTraceCount, Node: "Clock", Field: "isActive", Count: 2}, true},
		{"count by value", Assertion{Type: AssertTraceCount, Node: "Clock", Field: "isActive", Value: true, Count: 1}, true},
		{"count zero", Assertion{Type: AssertTraceCount, Node: "Nobody", Field: "x", Count: 0}, true},
		{"count mismatch", Assertion{Type: AssertTraceCount, Node: "Clock", Field: "fraction_changed", Count: 1}, false},
		{"order", Assertion{Type: AssertTraceOrder, Events: []string{"Clock.isActive=TRUE", "Fade.value_changed", "Clock.isActive=FALSE"}}, true},
		{"order repeated field", Assertion{Type: AssertTraceOrder, Events: []string{"Clock.fraction_changed=0", "Clock.fraction_changed=0.5"}}, true},
		{"order reversed", Assertion{Type: AssertTraceOrder, Events: []string{"Clock.isActive=FALSE", "Clock.isActive=TRUE"}}, false},
		{"order missing", Assertion{Type: AssertTraceOrder, Events: []string{"Clock.isPaused"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &Result{Trace: sampleTrace()}
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, nil)
			if tt.pass {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestEvaluateAssertions_ExpectError(t *testing.T) {
	engErr := fmt.Errorf("steps[1] (until 2): %w", engine.NewInvalidConfigurationError("TimeSensor stopped while paused"))

	tests := []struct {
		name      string
		err       error
		assertion Assertion
		pass      bool
	}{
		{"any error", errors.New("boom"), Assertion{Type: AssertExpectError}, true},
		{"no error", nil, Assertion{Type: AssertExpectError}, false},
		{"code through wrapping", engErr, Assertion{Type: AssertExpectError, Code: "INVALID_CONFIGURATION"}, true},
		{"wrong code", engErr, Assertion{Type: AssertExpectError, Code: "ALREADY_DIRTY"}, false},
		{"code on plain error", errors.New("boom"), Assertion{Type: AssertExpectError, Code: "INVALID_CONFIGURATION"}, false},
		{"contains", engErr, Assertion{Type: AssertExpectError, Contains: "stopped while paused"}, true},
		{"does not contain", engErr, Assertion{Type: AssertExpectError, Contains: "resumed"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(&Result{}, []Assertion{tt.assertion}, &AssertionContext{Err: tt.err})
			if tt.pass {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestEvaluateAssertions_FinalValueNeedsScene(t *testing.T) {
	errs := EvaluateAssertions(&Result{}, []Assertion{{Type: AssertFinalValue, Node: "A", Field: "b", Value: 1}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a scene")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "2 occurrences of Clock.isActive",
		Actual:   "1 occurrences",
		Trace:    sampleTrace()[:1],
	}
	msg := err.Error()

	assert.True(t, strings.HasPrefix(msg, "Assertion failed: trace_count\n"))
	assert.Contains(t, msg, "  Expected: 2 occurrences of Clock.isActive\n")
	assert.Contains(t, msg, "  Actual: 1 occurrences\n")
	assert.Contains(t, msg, "  [1] t=0 Clock.isActive=TRUE\n")
}

func TestParseEventPattern(t *testing.T) {
	p, err := parseEventPattern("Fade.value_changed=1 2 3")
	require.NoError(t, err)
	assert.Equal(t, "Fade", p.node)
	assert.Equal(t, "value_changed", p.field)
	assert.Equal(t, "1 2 3", p.value)

	_, err = parseEventPattern(".field")
	assert.Error(t, err)
}
