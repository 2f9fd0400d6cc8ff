package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/output"
)

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List, open, close, or activate browser tabs",
	Long: `List the browser's open tabs, or manage them with flags.

Examples:
  chrome-cli tabs
  chrome-cli tabs --new https://example.com
  chrome-cli tabs --close A1B2C3
  chrome-cli tabs --activate A1B2C3`,
	RunE: runTabs,
}

func init() {
	rootCmd.AddCommand(tabsCmd)
	tabsCmd.Flags().String("new", "", "Open a new tab at this URL")
	tabsCmd.Flags().String("close", "", "Close the tab with this target id")
	tabsCmd.Flags().String("activate", "", "Bring the tab with this target id to the foreground")
	tabsCmd.Flags().Bool("pretty", false, "Pretty-print JSON")
}

func runTabs(cmd *cobra.Command, args []string) error {
	newURL, _ := cmd.Flags().GetString("new")
	closeID, _ := cmd.Flags().GetString("close")
	activateID, _ := cmd.Flags().GetString("activate")

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	switch {
	case newURL != "":
		tab, err := eng.NewTab(ctx, newURL)
		if err != nil {
			return err
		}
		return output.Print(tab)
	case closeID != "":
		if err := eng.CloseTab(ctx, closeID); err != nil {
			return err
		}
		return output.Print(StepResult{OK: true, Action: "close-tab", Target: closeID})
	case activateID != "":
		if err := eng.ActivateTab(ctx, activateID); err != nil {
			return err
		}
		return output.Print(StepResult{OK: true, Action: "activate-tab", Target: activateID})
	}

	tabs, err := eng.ListTabs(ctx)
	if err != nil {
		return err
	}
	if len(tabs) == 0 {
		return fmt.Errorf("browser has no open tabs")
	}
	return output.Print(tabs)
}
