package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/testutil"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return s
}

func TestRun_FadeOnce(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "fade_once.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err)
	assert.Equal(t, "test-run-default", result.RunID)
	require.Len(t, result.Trace, 10)
	for i, e := range result.Trace {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadScenario(t, "fade_once.yaml")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalSnapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_StopWhilePaused(t *testing.T) {
	result, err := Run(loadScenario(t, "stop_while_paused.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Error(t, result.Err)
	assert.True(t, engine.IsInvalidConfiguration(result.Err))
	assert.Contains(t, result.Err.Error(), "steps[2] (until 1)")
}

func TestRun_FeedbackWithProbes(t *testing.T) {
	reg, err := testutil.NewRegistry()
	require.NoError(t, err)

	result, err := Run(loadScenario(t, "feedback.yaml"), WithRegistry(reg))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 3)
}

func TestRun_UnknownTypeWithoutRegistry(t *testing.T) {
	// The built-in registry has no Probe type, so the build fails.
	result, err := Run(loadScenario(t, "feedback.yaml"))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "E203")
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "unexpected error")
}

// writeScenario writes a scenario next to a copy of the fade scene.
func writeScenario(t *testing.T, body string) *Scenario {
	t.Helper()
	dir := t.TempDir()
	scene, err := os.ReadFile(filepath.Join("testdata", "scenes", "fade.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fade.cue"), scene, 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	s, err := LoadScenario(path)
	require.NoError(t, err)
	return s
}

func TestRun_FailingAssertion(t *testing.T) {
	s := writeScenario(t, `
name: wrong_value
description: "expects the wrong interpolated value"
scene: fade.cue
steps:
  - until: 1
assertions:
  - type: final_value
    node: Fade
    field: value_changed
    value: 40
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Fade.value_changed = 40")
	assert.Contains(t, result.Errors[0], "Fade.value_changed = 50")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := writeScenario(t, `
name: no_error
description: "expects an error that never happens"
scene: fade.cue
steps:
  - simulate: 1
assertions:
  - type: expect_error
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no error")
}

func TestRun_SetStep(t *testing.T) {
	s := writeScenario(t, `
name: disable
description: "disabling a running TimeSensor deactivates it"
scene: fade.cue
steps:
  - simulate: 1
  - wake: 0.5
  - simulate: 1
  - set: { node: Clock, field: enabled, value: false }
  - simulate: 1
assertions:
  - type: trace_order
    events:
      - Clock.isActive=TRUE
      - Clock.enabled=FALSE
      - Clock.isActive=FALSE
  - type: final_value
    node: Clock
    field: isActive
    value: FALSE
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SetUnknownField(t *testing.T) {
	s := writeScenario(t, `
name: bad_set
description: "a set step naming a missing field fails"
scene: fade.cue
steps:
  - set: { node: Clock, field: speed, value: 2 }
assertions:
  - type: expect_error
    code: UNKNOWN_FIELD
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.True(t, engine.IsUnknownField(result.Err))
}

func TestRun_MissingScene(t *testing.T) {
	s := &Scenario{Name: "x", Scene: filepath.Join(t.TempDir(), "missing.cue")}
	_, err := Run(s)
	assert.Error(t, err)
}
