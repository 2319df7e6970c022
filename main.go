// go_kb is a personal interview knowledge base.
//
// Ingests a résumé, job descriptions and company notes, then assembles
// grounded context for interview questions. Runs as an HTTP MCP server
// ("go_kb serve") or as one-shot CLI commands.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/anatolykoptev/go_kb/internal/cli"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
