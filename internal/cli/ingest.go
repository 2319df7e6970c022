package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine"
	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

var ingestType string

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document into the knowledge base",
	Long: `Extracts text from a .pdf, .docx, .txt or .md file, structures it, splits it
into knowledge nodes and embeds them. The new document replaces every stored
document of the same type.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "resume", "document type: resume, job_description, company_wiki, generic")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	docType, err := knowledge.ParseDocType(ingestType)
	if err != nil {
		return err
	}
	return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		var res knowledge.IngestResult
		_ = engine.TrackOperation(ctx, "ingest:"+string(docType), 30*time.Second, func(ctx context.Context) error {
			res = rt.kb.IngestDocument(ctx, args[0], docType)
			return nil
		})
		if jsonOutput {
			if err := printJSON(cmd, res); err != nil {
				return err
			}
		} else if res.Success {
			cmd.Printf("%s %s ingested: %d nodes, %d embedded\n", okText("✓"), res.Type, res.NodeCount, res.Embedded)
			cmd.Printf("  document %s\n", dimText(res.DocumentID))
		} else {
			cmd.Printf("%s ingest failed: %s\n", failText("✗"), res.Error)
		}
		if !res.Success {
			return fmt.Errorf("ingest %s failed", args[0])
		}
		return nil
	})
}
