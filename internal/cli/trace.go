package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/scenecore/internal/ir"
	"github.com/roach88/scenecore/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - list runs when empty
	Node     string // optional - filter to one node
	Field    string // optional - filter to one field name
}

// TraceResult holds the events of one run.
type TraceResult struct {
	Run    ir.Run          `json:"run"`
	Events []ir.TraceEvent `json:"events"`
	Stats  TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the selected events.
type TraceStats struct {
	TotalEvents int      `json:"total_events"`
	Nodes       []string `json:"nodes"`
	FirstTime   float64  `json:"first_time"`
	LastTime    float64  `json:"last_time"`
}

// RunList holds every run in a database.
type RunList struct {
	Runs []ir.Run `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read a recorded run back",
		Long: `Read the field events of a run recorded by "scenecore run --db".

Without --run, lists the runs in the database in creation order.
--node and --field narrow the events; seq numbers are kept so gaps show
where other events fired.

Examples:
  scenecore trace --db ./runs.db
  scenecore trace --db ./runs.db --run 0192f4c4-...
  scenecore trace --db ./runs.db --run 0192f4c4-... --node Fade --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace")
	cmd.Flags().StringVar(&opts.Node, "node", "", "filter to a node name")
	cmd.Flags().StringVar(&opts.Field, "field", "", "filter to a field name")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Open would create an empty database; a missing file is a usage error.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: RunList{Runs: runs}})
		}
		writeRunList(cmd.OutOrStdout(), runs)
		return nil
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("run %s not found", opts.RunID), err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	events, err := st.ReadEvents(ctx, opts.RunID, store.EventFilter{Node: opts.Node, Field: opts.Field})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Run:    run,
		Events: events,
		Stats:  traceStats(events),
	}
	if opts.Format == "json" {
		return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	writeTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

func traceStats(events []ir.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(events), Nodes: []string{}}
	if len(events) == 0 {
		return stats
	}
	seen := make(map[string]bool)
	for _, e := range events {
		if !seen[e.Node] {
			seen[e.Node] = true
			stats.Nodes = append(stats.Nodes, e.Node)
		}
	}
	sort.Strings(stats.Nodes)
	stats.FirstTime = events[0].Time
	stats.LastTime = events[len(events)-1].Time
	return stats
}

func writeRunList(w io.Writer, runs []ir.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-20s %6d events  scene %s\n", r.ID, r.SceneName, r.Events, truncateID(r.SceneHash))
	}
}

func writeTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.Run.ID)
	fmt.Fprintf(w, "Scene: %s (%s)\n", result.Run.SceneName, truncateID(result.Run.SceneHash))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Events ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Events {
		fmt.Fprintf(w, "  [%d] %s\n", e.Seq, e)
		if verbose {
			fmt.Fprintf(w, "       %s %s\n", e.NodeType, e.Kind)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Nodes:        %d\n", len(result.Stats.Nodes))
	if result.Stats.TotalEvents > 0 {
		fmt.Fprintf(w, "  Time:         %g - %g\n", result.Stats.FirstTime, result.Stats.LastTime)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
