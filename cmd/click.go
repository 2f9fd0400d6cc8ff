package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
)

var clickCmd = &cobra.Command{
	Use:   "click [text]",
	Short: "Click on an element or at coordinates",
	Long: `Click on a page element by CSS selector, visible text, role and label, or
free text, or at raw coordinates with --x/--y. Coordinate clicks and
--native go through OS-level input; everything else uses protocol input
with a one-time native fallback if the page swallows synthetic events.`,
	RunE: runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	addTabFlag(clickCmd)
	addTargetFlags(clickCmd)
	clickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	clickCmd.Flags().Bool("double", false, "Double-click")
}

func runClick(cmd *cobra.Command, args []string) error {
	desc, err := targetFromFlags(cmd, args)
	if err != nil {
		return err
	}
	button, _ := cmd.Flags().GetString("button")
	double, _ := cmd.Flags().GetBool("double")
	nativeInput, _ := cmd.Flags().GetBool("native")

	action := engine.Action{Kind: engine.ActionClick, Button: button, Native: nativeInput}
	if double {
		action.ClickCount = 2
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
	report, err := eng.Do(ctx, tab.ID, desc, action)
	if err != nil {
		return err
	}
	return printStep(report)
}
