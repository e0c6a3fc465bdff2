package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/scenecore/internal/compiler"
	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/ir"
	"github.com/roach88/scenecore/internal/metrics"
	"github.com/roach88/scenecore/internal/nodes"
	"github.com/roach88/scenecore/internal/store"
)

// DefaultMaxTicks bounds a run that has no --until.
const DefaultMaxTicks = 1000

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Until    float64
	MaxTicks int
	Database string
	Metrics  bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// RunResult is the output of one run.
type RunResult struct {
	Scene   string          `json:"scene"`
	RunID   string          `json:"run_id,omitempty"`
	Time    float64         `json:"time"`
	Ticks   int64           `json:"ticks"`
	Events  []ir.TraceEvent `json:"events"`
	Error   string          `json:"error,omitempty"`
	Metrics string          `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scene>",
		Short: "Simulate a scene and print its trace",
		Long: `Build a CUE scene and simulate it.

With --until the scene runs every tick due up to that time and ends there.
Without it the scene runs until no work is left. Either way at most
--max-ticks ticks run.

Every field that fires is printed in cascade order. With --db the trace is
also stored as a new run that "scenecore trace" can read back.

Example:
  scenecore run ./scenes/fade.cue --until 2
  scenecore run ./scenes/fade.cue --until 10 --db ./runs.db --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScene(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Until, "until", 0, "simulate up to this time")
	cmd.Flags().IntVar(&opts.MaxTicks, "max-ticks", DefaultMaxTicks, "maximum number of ticks (0 = no limit)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to record the run in")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after the trace")

	return cmd
}

func runScene(opts *RunOptions, path string, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := LoadScene(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}
	spec := loaded.Scene
	slog.Info("scene loaded", "scene", spec.Name, "nodes", len(spec.Nodes), "routes", len(spec.Routes))

	sceneHash, err := ir.SceneHash(spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash scene", err)
	}
	reg, err := nodes.NewRegistry()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create node registry", err)
	}

	var st *store.Store
	runID := ""
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		ids := opts.RunIDs
		if ids == nil {
			ids = store.UUIDv7Generator{}
		}
		run, err := st.CreateRun(ctx, ir.Run{
			ID:            ids.Generate(),
			SceneName:     spec.Name,
			SceneHash:     sceneHash,
			EngineVersion: ir.EngineVersion,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create run", err)
		}
		runID = run.ID
		slog.Info("run created", "run_id", runID, "db", opts.Database)
	}

	rec := store.NewRecorder(st, runID)
	schedOpts := []engine.SchedulerOption{engine.WithObserver(rec)}
	var collector *metrics.Collector
	if opts.Metrics {
		collector, err = metrics.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		schedOpts = append(schedOpts, engine.WithObserver(collector))
	}
	sched := engine.NewScheduler(schedOpts...)
	scene := engine.NewScene(reg, sched)

	var simErr error
	if err := compiler.Build(spec, scene); err != nil {
		simErr = err
	} else if cmd.Flags().Changed("until") {
		_, simErr = sched.RunUntil(opts.Until, opts.MaxTicks)
	} else {
		simErr = simulate(ctx, sched, opts.MaxTicks)
	}

	if err := rec.Flush(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to record trace", err)
	}
	slog.Info("simulation finished",
		"scene", spec.Name,
		"time", sched.Now(),
		"ticks", sched.Ticks(),
		"events", len(rec.Events()),
	)

	result := RunResult{
		Scene:  spec.Name,
		RunID:  runID,
		Time:   sched.Now(),
		Ticks:  sched.Ticks(),
		Events: rec.Events(),
	}
	if result.Events == nil {
		result.Events = []ir.TraceEvent{}
	}
	if simErr != nil {
		result.Error = simErr.Error()
	}
	if collector != nil {
		var buf bytes.Buffer
		if err := collector.WriteText(&buf); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		result.Metrics = buf.String()
	}

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result, RunID: runID}
		if simErr != nil {
			response.Status = "error"
			response.Error = &CLIError{Code: errorCode(simErr), Message: simErr.Error()}
		}
		if err := encodeJSON(cmd.OutOrStdout(), response); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), result)
	}

	if simErr != nil {
		return WrapExitError(ExitFailure, "simulation failed", simErr)
	}
	return nil
}

// simulate runs ticks until no work is left, maxTicks ticks have run or
// ctx is cancelled between ticks.
func simulate(ctx context.Context, sched *engine.Scheduler, maxTicks int) error {
	start := sched.Ticks()
	for maxTicks <= 0 || sched.Ticks()-start < int64(maxTicks) {
		if err := ctx.Err(); err != nil {
			slog.Info("simulation interrupted", "time", sched.Now())
			return nil
		}
		more, err := sched.Simulate()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	slog.Warn("tick limit reached", "max_ticks", maxTicks, "time", sched.Now())
	return nil
}

// errorCode returns the engine or validation code carried by err.
func errorCode(err error) string {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return string(engErr.Code)
	}
	return ErrCodeGeneric
}

func writeRunText(w io.Writer, result RunResult) {
	for _, e := range result.Events {
		fmt.Fprintf(w, "[%d] %s\n", e.Seq, e)
	}
	fmt.Fprintf(w, "%d events in %d ticks, time %g\n", len(result.Events), result.Ticks, result.Time)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	if result.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}
	if result.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Metrics)
	}
}
