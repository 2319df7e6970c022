package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_kb/internal/engine/knowledge"
)

var modeCmd = &cobra.Command{
	Use:   "mode [on|off]",
	Short: "Check whether knowledge mode can be switched on or off",
	Long: `Knowledge mode lives in the serving process. This command applies the
requested state to a fresh engine and reports the effective result, so
"mode on" fails until a résumé has been ingested.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runMode,
}

func init() {
	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	var want bool
	switch args[0] {
	case "on", "true", "1":
		want = true
	case "off", "false", "0":
	default:
		return fmt.Errorf("mode must be on or off, got %q", args[0])
	}
	return withRuntime(cmd, func(_ context.Context, rt *runtime) error {
		got := rt.kb.SetKnowledgeMode(want)
		if jsonOutput {
			return printJSON(cmd, map[string]bool{"enabled": got})
		}
		if want && !got {
			cmd.Printf("%s knowledge mode unavailable: %v\n", failText("✗"), knowledge.ErrNoResume)
			return knowledge.ErrNoResume
		}
		state := "off"
		if got {
			state = "on"
		}
		cmd.Printf("%s knowledge mode %s\n", okText("✓"), state)
		return nil
	})
}
