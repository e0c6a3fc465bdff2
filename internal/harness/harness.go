package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/scenecore/internal/compiler"
	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/ir"
	"github.com/roach88/scenecore/internal/nodes"
	"github.com/roach88/scenecore/internal/store"
	"github.com/roach88/scenecore/internal/testutil"
	"github.com/roach88/scenecore/internal/value"
)

// maxUntilTicks bounds a single until step.
const maxUntilTicks = 100000

// Harness is the test execution engine for one scenario.
type Harness struct {
	scene  *engine.Scene
	rec    *store.Recorder
	logger *slog.Logger
}

type config struct {
	registry  *engine.Registry
	logger    *slog.Logger
	maxRounds int
}

// Option configures Run.
type Option func(*config)

// WithRegistry runs scenes against reg instead of the built-in node types.
func WithRegistry(reg *engine.Registry) Option {
	return func(c *config) {
		c.registry = reg
	}
}

// WithLogger sets the harness logger.
//
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMaxRounds sets the scheduler's per-tick round quota.
func WithMaxRounds(n int) Option {
	return func(c *config) {
		c.maxRounds = n
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the scene and create a run record
// 2. Build the scene on a scheduler observed by a store.Recorder
// 3. Execute the steps, flushing the recorder after each
// 4. Read the trace back from the store
// 5. Evaluate assertions
//
// Errors from building the scene or from a step end the steps and are
// reported in Result.Err; only infrastructure failures are returned.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		reg, err := nodes.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("create registry: %w", err)
		}
		cfg.registry = reg
	}

	spec, err := compiler.LoadSceneFile(scenario.Scene)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	sceneHash, err := ir.SceneHash(spec)
	if err != nil {
		return nil, fmt.Errorf("hash scene: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	runID := testutil.NewFixedRunIDGenerator(scenario.RunID).Generate()
	if _, err := st.CreateRun(ctx, ir.Run{
		ID:            runID,
		SceneName:     spec.Name,
		SceneHash:     sceneHash,
		EngineVersion: ir.EngineVersion,
	}); err != nil {
		return nil, err
	}

	rec := store.NewRecorder(st, runID)
	schedOpts := []engine.SchedulerOption{
		engine.WithStartTime(scenario.StartTime),
		engine.WithObserver(rec),
	}
	if cfg.maxRounds > 0 {
		schedOpts = append(schedOpts, engine.WithMaxRounds(cfg.maxRounds))
	}
	h := &Harness{
		scene:  engine.NewScene(cfg.registry, engine.NewScheduler(schedOpts...)),
		rec:    rec,
		logger: cfg.logger,
	}

	runErr := compiler.Build(spec, h.scene)
	if runErr == nil {
		runErr = h.executeSteps(ctx, scenario.Steps)
	}
	if err := rec.Flush(ctx); err != nil {
		return nil, err
	}

	result := NewResult(runID)
	result.Err = runErr
	result.Trace, err = st.ReadEvents(ctx, runID, store.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	actx := &AssertionContext{Scene: h.scene, Err: runErr}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	if runErr != nil && !expectsError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("unexpected error: %v", runErr))
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"events", len(result.Trace),
		"time", h.scene.Scheduler().Now(),
	)
	return result, nil
}

// executeSteps runs every step in order and stops at the first error.
func (h *Harness) executeSteps(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := h.executeStep(step); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step, err)
		}
		if err := h.rec.Flush(ctx); err != nil {
			return err
		}
		h.logger.Debug("step completed",
			"step", i,
			"action", step.String(),
			"time", h.scene.Scheduler().Now(),
		)
	}
	return nil
}

func (h *Harness) executeStep(step Step) error {
	sched := h.scene.Scheduler()
	switch {
	case step.Wake != nil:
		sched.Wake(*step.Wake)
	case step.Set != nil:
		return h.set(step.Set)
	case step.Simulate != nil:
		for i := 0; i < *step.Simulate; i++ {
			more, err := sched.Simulate()
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	case step.Until != nil:
		ticks, err := sched.RunUntil(*step.Until, maxUntilTicks)
		if err != nil {
			return err
		}
		if ticks == maxUntilTicks {
			return fmt.Errorf("time %g not reached after %d ticks", *step.Until, ticks)
		}
	}
	return nil
}

func (h *Harness) set(s *SetStep) error {
	n, err := h.scene.Node(s.Node)
	if err != nil {
		return err
	}
	f, err := n.Field(s.Field)
	if err != nil {
		return err
	}
	lit, err := toIRValue(s.Value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", s.Node, s.Field, err)
	}
	v, err := compiler.FieldValue(f.Kind(), lit, h.resolve)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", s.Node, s.Field, err)
	}
	return f.Set(v)
}

func (h *Harness) resolve(name string) (value.NodeRef, error) {
	n, err := h.scene.Node(name)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertExpectError {
			return true
		}
	}
	return false
}

// toIRValue converts a YAML-parsed value to an IRValue.
// Null and mappings are not scene literals.
func toIRValue(val any) (ir.IRValue, error) {
	switch v := val.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a field value, use \"NULL\"")
	case string:
		return ir.IRString(v), nil
	case int:
		return ir.IRInt(int64(v)), nil
	case int64:
		return ir.IRInt(v), nil
	case float64:
		return ir.IRFloat(v), nil
	case bool:
		return ir.IRBool(v), nil
	case []any:
		arr := make(ir.IRArray, len(v))
		for i, elem := range v {
			irElem, err := toIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", val)
	}
}
