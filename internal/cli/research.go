package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
	"github.com/anatolykoptev/go_kb/internal/engine/research"
)

var researchRefresh bool

var researchCmd = &cobra.Command{
	Use:   "research [company]",
	Short: "Show the cached company dossier, researching it if missing",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearch,
}

func init() {
	researchCmd.Flags().BoolVar(&researchRefresh, "refresh", false, "ignore the cache and research now")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		var (
			d   *knowledge.Dossier
			err error
		)
		if researchRefresh {
			d, err = rt.researcher.Refresh(ctx, args[0])
		} else {
			d, err = rt.researcher.Dossier(ctx, args[0])
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, d)
		}
		cmd.Println(research.Summary(d))
		return nil
	})
}
