package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/scenecore/internal/compiler"
	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/ir"
	"github.com/roach88/scenecore/internal/value"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []ir.TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event)
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions inspect besides the trace.
type AssertionContext struct {
	Scene *engine.Scene
	Err   error
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalValue:
			if actx == nil || actx.Scene == nil {
				err = fmt.Errorf("assertion[%d]: final_value requires a scene", i)
			} else {
				err = assertFinalValue(actx.Scene, assertion)
			}
		case AssertExpectError:
			var runErr error
			if actx != nil {
				runErr = actx.Err
			}
			err = assertExpectError(runErr, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// eventPattern matches trace events by node, field and optionally value.
type eventPattern struct {
	node  string
	field string
	value any
	time  *float64
}

func (p eventPattern) String() string {
	s := p.node + "." + p.field
	if p.value != nil {
		s += fmt.Sprintf("=%v", p.value)
	}
	if p.time != nil {
		s += fmt.Sprintf(" at t=%g", *p.time)
	}
	return s
}

// parseEventPattern parses "Node.field" or "Node.field=value".
func parseEventPattern(s string) (eventPattern, error) {
	ref, val, hasValue := strings.Cut(s, "=")
	node, field, ok := strings.Cut(ref, ".")
	if !ok || node == "" || field == "" {
		return eventPattern{}, fmt.Errorf("event %q must have the form Node.field or Node.field=value", s)
	}
	p := eventPattern{node: node, field: field}
	if hasValue {
		p.value = val
	}
	return p, nil
}

func patternOf(a Assertion) eventPattern {
	return eventPattern{node: a.Node, field: a.Field, value: a.Value, time: a.Time}
}

func (p eventPattern) matches(e ir.TraceEvent) bool {
	if e.Node != p.node || e.Field != p.field {
		return false
	}
	if p.time != nil && e.Time != *p.time {
		return false
	}
	if p.value == nil {
		return true
	}
	ok, err := valueMatches(e.Kind, e.Value, p.value)
	return err == nil && ok
}

// valueMatches parses both sides as kind and compares them. Node
// references compare by printed name.
func valueMatches(kind, got string, want any) (bool, error) {
	k, err := value.ParseKind(kind)
	if err != nil {
		return false, err
	}
	if k.IsNodeRef() {
		return got == fmt.Sprint(want), nil
	}
	lit, err := toIRValue(want)
	if err != nil {
		return false, err
	}
	wantV, err := compiler.FieldValue(k, lit, nil)
	if err != nil {
		return false, fmt.Errorf("expected value %v: %w", want, err)
	}
	gotV, err := value.Parse(k, got)
	if err != nil {
		return false, err
	}
	return gotV.Equal(wantV), nil
}

// assertTraceContains checks that some event matches the assertion.
func assertTraceContains(trace []ir.TraceEvent, assertion Assertion) error {
	p := patternOf(assertion)
	for _, event := range trace {
		if p.matches(event) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %s", p),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the patterns match events in order.
// Events don't need to be consecutive (intervening events are allowed).
func assertTraceOrder(trace []ir.TraceEvent, assertion Assertion) error {
	pos := 0
	for i, s := range assertion.Events {
		p, err := parseEventPattern(s)
		if err != nil {
			return err
		}
		found := false
		for pos < len(trace) {
			e := trace[pos]
			pos++
			if p.matches(e) {
				found = true
				break
			}
		}
		if !found {
			actual := fmt.Sprintf("%s not found", s)
			if i > 0 {
				actual = fmt.Sprintf("%s not found after %s", s, assertion.Events[i-1])
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual:   actual,
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []ir.TraceEvent, assertion Assertion) error {
	p := patternOf(assertion)
	count := 0
	for _, event := range trace {
		if p.matches(event) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, p),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalValue compares the stored value of node.field. The value is
// read without access checks so output-only and init-only fields can be
// inspected at any stage.
func assertFinalValue(sc *engine.Scene, assertion Assertion) error {
	n, err := sc.Node(assertion.Node)
	if err != nil {
		return fmt.Errorf("final_value: %w", err)
	}
	f, err := n.Field(assertion.Field)
	if err != nil {
		return fmt.Errorf("final_value: %w", err)
	}
	got := f.UnsafeGet()
	ok, err := valueMatches(f.Kind().String(), got.String(), assertion.Value)
	if err != nil {
		return fmt.Errorf("final_value %s.%s: %w", assertion.Node, assertion.Field, err)
	}
	if !ok {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s.%s = %v", assertion.Node, assertion.Field, assertion.Value),
			Actual:   fmt.Sprintf("%s.%s = %s", assertion.Node, assertion.Field, got),
		}
	}
	return nil
}

// assertExpectError checks that the steps failed, with the given engine
// error code and message text when those are set.
func assertExpectError(runErr error, assertion Assertion) error {
	expected := "an error"
	if assertion.Code != "" {
		expected = fmt.Sprintf("error with code %s", assertion.Code)
	}
	if assertion.Contains != "" {
		expected += fmt.Sprintf(" containing %q", assertion.Contains)
	}

	if runErr == nil {
		return &AssertionError{Type: AssertExpectError, Expected: expected, Actual: "no error"}
	}
	if assertion.Code != "" {
		var engErr *engine.Error
		if !errors.As(runErr, &engErr) || string(engErr.Code) != assertion.Code {
			return &AssertionError{Type: AssertExpectError, Expected: expected, Actual: runErr.Error()}
		}
	}
	if assertion.Contains != "" && !strings.Contains(runErr.Error(), assertion.Contains) {
		return &AssertionError{Type: AssertExpectError, Expected: expected, Actual: runErr.Error()}
	}
	return nil
}
