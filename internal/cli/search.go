package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

var (
	searchLimit     int
	searchThreshold float64
	searchSources   []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search knowledge nodes",
	Long: `Runs the hybrid search used for interview questions: semantic similarity plus
keyword overlap, boosted by experience duration, recency and job-description
skill matches.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of nodes (default from scoring config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", -1, "minimum score, exclusive (default from scoring config)")
	searchCmd.Flags().StringSliceVar(&searchSources, "source", nil, "restrict to document types")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	opts := knowledge.SearchOptions{MaxNodes: searchLimit}
	if cmd.Flags().Changed("threshold") {
		th := searchThreshold
		opts.Threshold = &th
	}
	for _, s := range searchSources {
		t, err := knowledge.ParseDocType(s)
		if err != nil {
			return err
		}
		opts.SourceTypes = append(opts.SourceTypes, t)
	}
	return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		nodes := rt.kb.Search(ctx, args[0], opts)
		if jsonOutput {
			return printJSON(cmd, nodes)
		}
		printNodes(cmd, nodes)
		return nil
	})
}
