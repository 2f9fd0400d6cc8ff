package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
	"github.com/mj1618/chrome-cli/internal/output"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a page condition",
	Long: `Poll the page until a condition holds or the timeout expires.

Examples:
  chrome-cli wait --for-selector "#results"
  chrome-cli wait --for-text "Order complete" --wait-timeout 10s
  chrome-cli wait --gone ".spinner"
  chrome-cli wait --url-contains /dashboard
  chrome-cli wait --load`,
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	addTabFlag(waitCmd)
	waitCmd.Flags().String("for-selector", "", "Wait until a CSS selector matches")
	waitCmd.Flags().String("for-text", "", "Wait until the accessibility tree contains text")
	waitCmd.Flags().String("gone", "", "Wait until a CSS selector matches nothing")
	waitCmd.Flags().String("url-contains", "", "Wait until the location contains a substring")
	waitCmd.Flags().Bool("load", false, "Wait until the document finishes loading")
	waitCmd.Flags().Bool("idle", false, "Wait until the page has loaded and network activity settles")
	waitCmd.Flags().Duration("wait-timeout", 30*time.Second, "Max time to wait")
	waitCmd.Flags().Duration("interval", 250*time.Millisecond, "Polling interval")
}

func runWait(cmd *cobra.Command, args []string) error {
	cond, err := waitConditionFromFlags(cmd)
	if err != nil {
		return err
	}
	waitTimeout, _ := cmd.Flags().GetDuration("wait-timeout")
	interval, _ := cmd.Flags().GetDuration("interval")

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()
	start := time.Now()
	if err := eng.WaitFor(waitCtx, tab.ID, cond, interval); err != nil {
		return err
	}
	return output.Print(StepResult{
		OK:        true,
		Action:    "wait",
		Target:    fmt.Sprintf("%s(%s)", cond.Kind, cond.Value),
		ElapsedMs: time.Since(start).Milliseconds(),
	})
}

func waitConditionFromFlags(cmd *cobra.Command) (engine.WaitCondition, error) {
	selector, _ := cmd.Flags().GetString("for-selector")
	text, _ := cmd.Flags().GetString("for-text")
	gone, _ := cmd.Flags().GetString("gone")
	urlContains, _ := cmd.Flags().GetString("url-contains")
	load, _ := cmd.Flags().GetBool("load")
	idle, _ := cmd.Flags().GetBool("idle")

	switch {
	case selector != "":
		return engine.WaitCondition{Kind: engine.WaitSelector, Value: selector}, nil
	case text != "":
		return engine.WaitCondition{Kind: engine.WaitText, Value: text}, nil
	case gone != "":
		return engine.WaitCondition{Kind: engine.WaitGone, Value: gone}, nil
	case urlContains != "":
		return engine.WaitCondition{Kind: engine.WaitURLContains, Value: urlContains}, nil
	case load:
		return engine.WaitCondition{Kind: engine.WaitLoad}, nil
	case idle:
		return engine.WaitCondition{Kind: engine.WaitIdle}, nil
	default:
		return engine.WaitCondition{}, fmt.Errorf("specify a condition: --for-selector, --for-text, --gone, --url-contains, --load, or --idle")
	}
}
