package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
)

var hoverCmd = &cobra.Command{
	Use:   "hover [text]",
	Short: "Move the pointer over an element",
	Long:  "Hover over a page element to trigger tooltips, menus, or hover styles.",
	RunE:  runHover,
}

func init() {
	rootCmd.AddCommand(hoverCmd)
	addTabFlag(hoverCmd)
	addTargetFlags(hoverCmd)
}

func runHover(cmd *cobra.Command, args []string) error {
	desc, err := targetFromFlags(cmd, args)
	if err != nil {
		return err
	}
	nativeInput, _ := cmd.Flags().GetBool("native")

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}
	report, err := eng.Do(ctx, tab.ID, desc, engine.Action{Kind: engine.ActionHover, Native: nativeInput})
	if err != nil {
		return err
	}
	return printStep(report)
}
