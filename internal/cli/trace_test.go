package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/store"
)

// recordFade records the fade scene up to t=3 as run-1 and, if extra ids
// are given, once more per id.
func recordFade(t *testing.T, ids ...string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	for _, id := range append([]string{"run-1"}, ids...) {
		opts := &RunOptions{RunIDs: store.NewFixedGenerator(id)}
		_, err := executeRun(t, opts, "testdata/scenes/fade.cue", "--until", "3", "--db", dbPath)
		require.NoError(t, err)
	}
	return dbPath
}

func executeTrace(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--run", "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTraceListRuns(t *testing.T) {
	dbPath := recordFade(t, "run-2")

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Regexp(t, `(?s)run-1\s+fade\s+6 events.*run-2\s+fade\s+6 events`, out)
}

func TestTraceListRunsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestTraceRun(t *testing.T) {
	dbPath := recordFade(t)

	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for Run: run-1")
	assert.Contains(t, out, "Scene: fade")
	assert.Contains(t, out, "  [1] t=0 Clock.isActive=TRUE\n")
	assert.Contains(t, out, "  [6] t=2 Clock.isActive=FALSE\n")
	assert.Contains(t, out, "Total Events: 6")
	assert.Contains(t, out, "Time:         0 - 2")
}

func TestTraceFilter(t *testing.T) {
	dbPath := recordFade(t)

	tests := []struct {
		name  string
		args  []string
		seqs  []int64
		nodes []string
	}{
		{"node", []string{"--node", "Fade"}, []int64{5}, []string{"Fade"}},
		{"field", []string{"--field", "isActive"}, []int64{1, 6}, []string{"Clock"}},
		{"node and field", []string{"--node", "Clock", "--field", "time"}, []int64{2}, []string{"Clock"}},
		{"no match", []string{"--node", "Nobody"}, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath, "--run", "run-1"}, tt.args...)
			out, err := executeTrace(t, &RootOptions{Format: "json"}, args...)
			require.NoError(t, err)

			var resp struct {
				Status string      `json:"status"`
				RunID  string      `json:"run_id"`
				Data   TraceResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "run-1", resp.RunID)

			var seqs []int64
			for _, e := range resp.Data.Events {
				seqs = append(seqs, e.Seq)
			}
			assert.Equal(t, tt.seqs, seqs)
			assert.Equal(t, tt.nodes, resp.Data.Stats.Nodes)
			assert.Equal(t, int64(6), resp.Data.Run.Events)
		})
	}
}

func TestTraceUnknownRun(t *testing.T) {
	dbPath := recordFade(t)

	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", "run-9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "0192f4c4...89abcdef", truncateID("0192f4c4-0000-7000-8000-0123456789abcdef"))
}
