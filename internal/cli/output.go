package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

var (
	okText    = color.New(color.FgGreen, color.Bold).SprintFunc()
	failText  = color.New(color.FgRed, color.Bold).SprintFunc()
	labelText = color.New(color.FgCyan, color.Bold).SprintFunc()
	dimText   = color.New(color.Faint).SprintFunc()
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printNodes(cmd *cobra.Command, nodes []knowledge.ScoredNode) {
	if len(nodes) == 0 {
		cmd.Println("No matching nodes.")
		return
	}
	for i, n := range nodes {
		label := n.Category
		if n.Title != "" {
			label += ": " + n.Title
		}
		if n.Organization != "" {
			label += " @ " + n.Organization
		}
		cmd.Printf("  [%d] %s %s\n", i+1, labelText(label), dimText(fmt.Sprintf("(%.2f)", n.Score)))
		cmd.Printf("      %s\n", n.TextContent)
	}
}
