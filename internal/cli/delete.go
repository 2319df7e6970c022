package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [type]",
	Short: "Delete every document of one type",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	docType, err := knowledge.ParseDocType(args[0])
	if err != nil {
		return err
	}
	return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		n, err := rt.kb.DeleteDocumentsByType(ctx, docType)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, map[string]any{"type": docType, "deleted": n})
		}
		cmd.Printf("%s deleted %d %s document(s)\n", okText("✓"), n, docType)
		return nil
	})
}
