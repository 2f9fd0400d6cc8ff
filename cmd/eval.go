package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/output"
)

// EvalResult is the YAML output of an eval.
type EvalResult struct {
	OK    bool        `yaml:"ok"              json:"ok"`
	Value interface{} `yaml:"value,omitempty" json:"value,omitempty"`
}

var evalCmd = &cobra.Command{
	Use:   "eval [expression]",
	Short: "Evaluate JavaScript in the page",
	Long: `Run a JavaScript expression in the selected tab and print its JSON-serializable
result. Promises are awaited; page exceptions are reported as errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	addTabFlag(evalCmd)
	evalCmd.Flags().Bool("pretty", false, "Pretty-print JSON")
}

func runEval(cmd *cobra.Command, args []string) error {
	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}
	raw, err := eng.Evaluate(ctx, tab.ID, args[0])
	if err != nil {
		return err
	}
	var value interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			value = string(raw)
		}
	}
	return output.Print(EvalResult{OK: true, Value: value})
}
