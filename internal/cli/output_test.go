package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"events": 10}))
	require.NoError(t, formatter.Error("E203", "unknown node type", map[string]string{"node": "Clock"}))

	dec := json.NewDecoder(buf)
	var ok, failed CLIResponse
	require.NoError(t, dec.Decode(&ok))
	require.NoError(t, dec.Decode(&failed))

	assert.Equal(t, "ok", ok.Status)
	assert.NotNil(t, ok.Data)
	assert.Nil(t, ok.Error)

	assert.Equal(t, "error", failed.Status)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "E203", failed.Error.Code)
	assert.Equal(t, "unknown node type", failed.Error.Message)
	assert.NotNil(t, failed.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		details bool
	}{
		{"quiet", false, false},
		{"verbose_with_details", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("INVALID_CONFIGURATION", "cycleInterval must be positive", "Clock.cycleInterval"))
			assert.Contains(t, buf.String(), "Error [INVALID_CONFIGURATION]: cycleInterval must be positive")
			if tt.details {
				assert.Contains(t, buf.String(), "Details: Clock.cycleInterval")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Loaded %d node(s)", 3)

	assert.Empty(t, out.String())
	assert.Equal(t, "Loaded 3 node(s)\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("dropped")
	assert.NotContains(t, errOut.String(), "dropped")
}

func TestExitError(t *testing.T) {
	base := errors.New("disk full")
	wrapped := WrapExitError(ExitCommandError, "failed to open database", base)

	assert.Equal(t, "failed to open database: disk full", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("run: %w", wrapped)))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "1 scenario(s) failed")))
	assert.Equal(t, ExitFailure, GetExitCode(base))
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	newLogger(buf, false).Debug("tick complete")
	assert.Empty(t, buf.String())

	newLogger(buf, true).Debug("tick complete", "time", 1.5)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "time=1.5")

	buf.Reset()
	newLogger(buf, false).Info("scene loaded")
	assert.Contains(t, buf.String(), "msg=\"scene loaded\"")
}
