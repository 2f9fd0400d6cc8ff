package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
	"github.com/mj1618/chrome-cli/internal/output"
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "List, set, or clear browser cookies",
	Long: `List the cookies visible to a tab, set one with --set name=value, or wipe
the jar with --clear.`,
	RunE: runCookies,
}

func init() {
	rootCmd.AddCommand(cookiesCmd)
	addTabFlag(cookiesCmd)
	cookiesCmd.Flags().String("set", "", "Set a cookie as name=value")
	cookiesCmd.Flags().String("domain", "", "Cookie domain (used with --set)")
	cookiesCmd.Flags().String("path", "/", "Cookie path (used with --set)")
	cookiesCmd.Flags().Bool("clear", false, "Remove every cookie in the browser")
	cookiesCmd.Flags().Bool("pretty", false, "Pretty-print JSON")
}

func runCookies(cmd *cobra.Command, args []string) error {
	setPair, _ := cmd.Flags().GetString("set")
	domain, _ := cmd.Flags().GetString("domain")
	path, _ := cmd.Flags().GetString("path")
	clear, _ := cmd.Flags().GetBool("clear")

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}

	switch {
	case setPair != "":
		name, value, ok := splitPair(setPair)
		if !ok {
			return fmt.Errorf("invalid --set %q: expected name=value", setPair)
		}
		c := engine.Cookie{Name: name, Value: value, Domain: domain, Path: path}
		if err := eng.SetCookie(ctx, tab.ID, c); err != nil {
			return err
		}
		return output.Print(StepResult{OK: true, Action: "set-cookie", Target: name})
	case clear:
		if err := eng.ClearCookies(ctx, tab.ID); err != nil {
			return err
		}
		return output.Print(StepResult{OK: true, Action: "clear-cookies"})
	}

	cookies, err := eng.Cookies(ctx, tab.ID)
	if err != nil {
		return err
	}
	return output.Print(cookies)
}

func splitPair(s string) (name, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], i > 0
		}
	}
	return "", "", false
}
