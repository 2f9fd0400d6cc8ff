package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/output"
)

// OpenResult is the YAML output of a successful open.
type OpenResult struct {
	OK     bool   `yaml:"ok"              json:"ok"`
	Action string `yaml:"action"          json:"action"`
	URL    string `yaml:"url"             json:"url"`
	Tab    string `yaml:"tab"             json:"tab"`
	Title  string `yaml:"title,omitempty" json:"title,omitempty"`
}

var openCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Navigate a tab to a URL",
	Long: `Navigate the selected tab to a URL and wait for the page to load,
or open the URL in a fresh tab with --new-tab.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
	addTabFlag(openCmd)
	openCmd.Flags().Bool("new-tab", false, "Open in a new tab instead of navigating the selected one")
	openCmd.Flags().Bool("no-wait", false, "Return immediately without waiting for the load event")
}

func runOpen(cmd *cobra.Command, args []string) error {
	url := args[0]
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	newTab, _ := cmd.Flags().GetBool("new-tab")
	noWait, _ := cmd.Flags().GetBool("no-wait")

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	if newTab {
		tab, err := eng.NewTab(ctx, url)
		if err != nil {
			return err
		}
		return output.Print(OpenResult{OK: true, Action: "open", URL: url, Tab: tab.ID, Title: tab.Title})
	}

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}
	if noWait {
		// Fire the navigation without blocking on the load event.
		if _, err := eng.Evaluate(ctx, tab.ID, fmt.Sprintf("void(window.location = %q)", url)); err != nil {
			return err
		}
		return output.Print(OpenResult{OK: true, Action: "open", URL: url, Tab: tab.ID})
	}
	if err := eng.Navigate(ctx, tab.ID, url); err != nil {
		return err
	}
	return output.Print(OpenResult{OK: true, Action: "open", URL: url, Tab: tab.ID})
}
