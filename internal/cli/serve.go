package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine"
	"github.com/anatolykoptev/go_kb/internal/kbserver"
)

var (
	servePort          string
	serveKnowledgeMode bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long:  `Serves the knowledge tools over MCP on the given port.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", env.Str("MCP_PORT", "8892"), "HTTP port")
	serveCmd.Flags().BoolVar(&serveKnowledgeMode, "knowledge-mode", true, "start with knowledge mode on when a résumé is loaded")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(_ context.Context, rt *runtime) error {
		if serveKnowledgeMode {
			rt.kb.SetKnowledgeMode(true)
		}
		st := rt.kb.Status()
		slog.Info("starting go_kb",
			slog.String("port", servePort),
			slog.Bool("resume", st.HasResume),
			slog.Bool("knowledge_mode", st.ActiveMode),
			slog.Int("nodes", st.NodeCount))

		server := mcp.NewServer(&mcp.Implementation{
			Name:    "go_kb",
			Version: version,
		}, nil)
		kbserver.RegisterTools(server, kbserver.Deps{KB: rt.kb, Researcher: rt.researcher})
		slog.Info("tools registered", slog.Int("count", kbserver.ToolCount))

		return mcpserver.Run(server, mcpserver.Config{
			Name:         "go_kb",
			Version:      version,
			Port:         servePort,
			WriteTimeout: 300 * time.Second,
			Metrics:      engine.FormatMetrics,
		})
	})
}
