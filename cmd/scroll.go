package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
	"github.com/mj1618/chrome-cli/internal/model"
)

// scrollStep is the wheel delta for one scroll click, matching Chrome's
// default line height scaling.
const scrollStep = 120

var scrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Scroll the page or an element",
	Long: `Scroll within the page, or within a scrollable element targeted by CSS
selector or text. Direction and amount are given in scroll clicks.`,
	RunE: runScroll,
}

func init() {
	rootCmd.AddCommand(scrollCmd)
	addTabFlag(scrollCmd)
	addTargetFlags(scrollCmd)
	scrollCmd.Flags().String("direction", "down", "Scroll direction: up, down, left, right")
	scrollCmd.Flags().Int("amount", 3, "Scroll clicks")
}

func runScroll(cmd *cobra.Command, args []string) error {
	direction, _ := cmd.Flags().GetString("direction")
	amount, _ := cmd.Flags().GetInt("amount")
	nativeInput, _ := cmd.Flags().GetBool("native")

	action := engine.Action{Kind: engine.ActionScroll, Native: nativeInput}
	delta := float64(amount * scrollStep)
	switch direction {
	case "down":
		action.DeltaY = delta
	case "up":
		action.DeltaY = -delta
	case "right":
		action.DeltaX = delta
	case "left":
		action.DeltaX = -delta
	default:
		return fmt.Errorf("unknown direction %q (use up, down, left, or right)", direction)
	}

	// Without an explicit target, scroll the document itself.
	desc, err := targetFromFlags(cmd, args)
	if err != nil {
		desc = model.CSS("body")
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
