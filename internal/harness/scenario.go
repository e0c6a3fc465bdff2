package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the path of the CUE scene file, resolved relative to the
	// scenario file by LoadScenario.
	Scene string `yaml:"scene"`

	// StartTime is the scheduler's initial simulation time.
	StartTime float64 `yaml:"start_time,omitempty"`

	// RunID fixes the run ID recorded in the store.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Steps drive the scheduler, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace, final values and errors.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one field must be set.
type Step struct {
	// Wake queues a pure wake-up at the given time.
	Wake *float64 `yaml:"wake,omitempty"`

	// Set writes a field through the high-level set.
	Set *SetStep `yaml:"set,omitempty"`

	// Simulate runs up to N ticks, stopping early when no work remains.
	Simulate *int `yaml:"simulate,omitempty"`

	// Until runs every tick due at or before the given time.
	Until *float64 `yaml:"until,omitempty"`
}

// SetStep writes value to node.field.
type SetStep struct {
	Node  string `yaml:"node"`
	Field string `yaml:"field"`
	Value any    `yaml:"value"`
}

func (s Step) String() string {
	switch {
	case s.Wake != nil:
		return fmt.Sprintf("wake %g", *s.Wake)
	case s.Set != nil:
		return fmt.Sprintf("set %s.%s=%v", s.Set.Node, s.Set.Field, s.Set.Value)
	case s.Simulate != nil:
		return fmt.Sprintf("simulate %d", *s.Simulate)
	case s.Until != nil:
		return fmt.Sprintf("until %g", *s.Until)
	}
	return "empty step"
}

// Assertion validates the trace, a final value or the run error.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": node.field fired (with value/time, if given)
	// - "trace_count": node.field fired exactly Count times
	// - "trace_order": Events occur in order
	// - "final_value": node.field holds Value after the last step
	// - "expect_error": a step failed
	Type string `yaml:"type"`

	// Node and Field name the field (trace_contains, trace_count, final_value).
	Node  string `yaml:"node,omitempty"`
	Field string `yaml:"field,omitempty"`

	// Value is the expected value, as a scene literal.
	Value any `yaml:"value,omitempty"`

	// Time restricts trace matches to one simulation time.
	Time *float64 `yaml:"time,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Events lists "Node.field" or "Node.field=value" patterns (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Code is the expected engine error code (expect_error).
	Code string `yaml:"code,omitempty"`

	// Contains is text the error message must include (expect_error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalValue    = "final_value"
	AssertExpectError   = "expect_error"
)

// LoadScenario reads and parses a scenario YAML file and resolves its
// scene path relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(scenario.Scene) {
		scenario.Scene = filepath.Join(filepath.Dir(path), scenario.Scene)
	}
	if _, err := os.Stat(scenario.Scene); err != nil {
		return nil, fmt.Errorf("invalid scenario: scene file not found: %s", scenario.Scene)
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. The scene path is
// left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	set := 0
	for _, present := range []bool{s.Wake != nil, s.Set != nil, s.Simulate != nil, s.Until != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of wake, set, simulate, until is required", index)
	}
	switch {
	case s.Set != nil:
		if s.Set.Node == "" || s.Set.Field == "" {
			return fmt.Errorf("steps[%d]: set requires node and field", index)
		}
		if s.Set.Value == nil {
			return fmt.Errorf("steps[%d]: set requires a value", index)
		}
	case s.Simulate != nil:
		if *s.Simulate < 1 {
			return fmt.Errorf("steps[%d]: simulate must be at least 1", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceCount:
		if a.Node == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: node and field are required for %s", index, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
		for _, e := range a.Events {
			if _, err := parseEventPattern(e); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertFinalValue:
		if a.Node == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: node and field are required for final_value", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for final_value", index)
		}
	case AssertExpectError:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
