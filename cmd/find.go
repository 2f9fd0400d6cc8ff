package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/output"
)

// FindResult is the YAML output of a successful find.
type FindResult struct {
	OK     bool    `yaml:"ok"              json:"ok"`
	Target string  `yaml:"target"          json:"target"`
	Role   string  `yaml:"role,omitempty"  json:"role,omitempty"`
	Name   string  `yaml:"name,omitempty"  json:"name,omitempty"`
	X      float64 `yaml:"x"               json:"x"`
	Y      float64 `yaml:"y"               json:"y"`
}

var findCmd = &cobra.Command{
	Use:   "find [text]",
	Short: "Resolve a target without acting on it",
	Long: `Resolve an element by CSS selector, visible text, role and label, or free
text and report where it is, without clicking or typing. Useful to check
what an action command would hit.`,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	addTabFlag(findCmd)
	addTargetFlags(findCmd)
	findCmd.Flags().Bool("pretty", false, "Pretty-print JSON")
}

func runFind(cmd *cobra.Command, args []string) error {
	desc, err := targetFromFlags(cmd, args)
	if err != nil {
		return err
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
	rt, err := eng.Resolve(ctx, tab.ID, desc)
	if err != nil {
		return err
	}
	return output.Print(FindResult{
		OK:     true,
		Target: desc.String(),
		Role:   rt.Role,
		Name:   rt.Name,
		X:      rt.X,
		Y:      rt.Y,
	})
}
