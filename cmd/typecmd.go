package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
	"github.com/mj1618/chrome-cli/internal/model"
)

var typeCmd = &cobra.Command{
	Use:   "type [text to type]",
	Short: "Type text into an element",
	Long: `Focus an element and type text into it. Plain input fields receive the
text in one protocol call; rich editors receive per-character key events.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	addTabFlag(typeCmd)
	typeCmd.Flags().String("target", "", "Element to focus first: free text, resolved like action targets")
	typeCmd.Flags().String("css", "", "Element to focus first, by CSS selector")
	typeCmd.Flags().Bool("native", false, "Force OS-level input instead of protocol input")
	typeCmd.Flags().Bool("submit", false, "Press Enter after typing")
}

func runType(cmd *cobra.Command, args []string) error {
	text := args[0]
	target, _ := cmd.Flags().GetString("target")
	css, _ := cmd.Flags().GetString("css")
	nativeInput, _ := cmd.Flags().GetBool("native")
	submit, _ := cmd.Flags().GetBool("submit")

	var desc model.TargetDescription
	switch {
	case css != "":
		desc = model.CSS(css)
	case target != "":
		desc = model.FreeText(target)
	default:
		return fmt.Errorf("specify where to type with --target or --css")
	}

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}
	report, err := eng.Do(ctx, tab.ID, desc, engine.Action{Kind: engine.ActionType, Text: text, Native: nativeInput})
	if err != nil {
		return err
	}
	if submit {
		if err := eng.PressKey(ctx, tab.ID, "Enter"); err != nil {
			return err
		}
	}
	return printStep(report)
}
