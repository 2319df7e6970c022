package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the knowledge base holds",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(_ context.Context, rt *runtime) error {
		st := rt.kb.Status()
		if jsonOutput {
			return printJSON(cmd, st)
		}
		cmd.Printf("%s %s\n", labelText("Résumé:"), presence(st.HasResume, st.ResumeSummary))
		cmd.Printf("%s %s\n", labelText("Job description:"), presence(st.HasActiveJD, st.JDSummary))
		cmd.Printf("%s %d (%d embedded)\n", labelText("Nodes:"), st.NodeCount, st.EmbeddedCount)
		return nil
	})
}

func presence(ok bool, summary string) string {
	if !ok {
		return failText("none")
	}
	if summary == "" {
		return okText("loaded")
	}
	return okText(summary)
}
