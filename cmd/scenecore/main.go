package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/scenecore/internal/cli"
)

// main is the entrypoint for the scenecore CLI.
func main() {
	// Use a minimal logger until the root command configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
