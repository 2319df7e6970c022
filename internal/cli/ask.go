package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

var askShowPrompt bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Assemble interview context for a question",
	Long: `Classifies the question, retrieves the most relevant knowledge nodes and
prints the context block an assistant would receive. Introduction questions
print a ready self-introduction instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowPrompt, "show-prompt", false, "also print the system prompt injection")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		if !rt.kb.SetKnowledgeMode(true) {
			return knowledge.ErrNoResume
		}
		res := rt.kb.ProcessQuestion(ctx, args[0])
		if res == nil {
			cmd.Println("Nothing to answer.")
			return nil
		}
		if jsonOutput {
			return printJSON(cmd, res)
		}

		cmd.Printf("%s %s\n", labelText("Intent:"), res.Intent)
		if askShowPrompt {
			cmd.Printf("\n%s\n%s\n", labelText("System prompt:"), res.SystemPromptInjection)
		}
		if res.IsIntroQuestion {
			cmd.Printf("\n%s\n%s\n", labelText("Introduction:"), res.IntroResponse)
			return nil
		}
		cmd.Println()
		printNodes(cmd, res.Nodes)
		if res.ContextBlock != "" {
			cmd.Printf("\n%s\n%s\n", labelText("Context:"), res.ContextBlock)
		}
		return nil
	})
}
