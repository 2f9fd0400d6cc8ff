package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
)

var selectCmd = &cobra.Command{
	Use:   "select [text]",
	Short: "Pick an option on a select element",
	Long: `Set the value of a <select> element and fire the input/change events
frameworks listen for. The target is the select element; --value is the
option's value attribute.`,
	RunE: runSelect,
}

func init() {
	rootCmd.AddCommand(selectCmd)
	addTabFlag(selectCmd)
	addTargetFlags(selectCmd)
	selectCmd.Flags().String("value", "", "Option value to select")
	selectCmd.MarkFlagRequired("value")
}

func runSelect(cmd *cobra.Command, args []string) error {
	desc, err := targetFromFlags(cmd, args)
	if err != nil {
		return err
	}
	value, _ := cmd.Flags().GetString("value")

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}
	report, err := eng.Do(ctx, tab.ID, desc, engine.Action{Kind: engine.ActionSelect, Value: value})
	if err != nil {
		return err
	}
	return printStep(report)
}
