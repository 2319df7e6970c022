// Package cli is the go_kb command line: an MCP server plus one-shot
// commands over the same knowledge engine.
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/spf13/cobra"
)

var version = "dev"

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "go_kb",
	Short: "Personal interview knowledge base",
	Long: `go_kb ingests a résumé, job descriptions and company notes into a local
knowledge base and assembles grounded context for interview questions.
Run "go_kb serve" to expose it as MCP tools.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging(env.Str("LOG_LEVEL", "info"))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results as JSON")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
