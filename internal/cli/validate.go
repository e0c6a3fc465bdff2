package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/scenecore/internal/compiler"
	"github.com/roach88/scenecore/internal/nodes"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Scene    string                     `json:"scene"`
	Nodes    int                        `json:"nodes"`
	Routes   int                        `json:"routes"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scene>",
		Short: "Validate a scene without running it",
		Long: `Compile a CUE scene and check it against the built-in node types.

Reports unknown types and fields, fields that cannot be assigned, literals
that do not parse as the field's kind and routes that break the access or
kind rules. Route loops are legal and reported as warnings.

Exit codes:
  0 - Scene valid (warnings allowed)
  1 - Scene has validation errors
  2 - Scene could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadScene(path)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}
	formatter.VerboseLog("Loaded %d CUE file(s) from %s", loaded.FileCount, path)

	reg, err := nodes.NewRegistry()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create node registry", err)
	}

	spec := loaded.Scene
	result := ValidationResult{
		Scene:    spec.Name,
		Nodes:    len(spec.Nodes),
		Routes:   len(spec.Routes),
		Errors:   compiler.Validate(spec, reg),
		Warnings: compiler.AnalyzeRouteCycles(spec),
	}
	result.Valid = len(result.Errors) == 0
	slog.Debug("scene validated",
		"scene", spec.Name,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
	)

	if opts.Format == "json" {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    result.Errors[0].Code,
			Message: result.Errors[0].Message,
		}
	}
	if err := encodeJSON(formatter.Writer, response); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning.Message)
	}

	if !result.Valid {
		fmt.Fprintf(w, "✗ Scene %q invalid\n\n", result.Scene)
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", err.Code, err.Field, err.Message)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintf(w, "✓ Scene %q valid (%d nodes, %d routes)\n", result.Scene, result.Nodes, result.Routes)
	return nil
}
