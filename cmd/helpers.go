package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
	"github.com/mj1618/chrome-cli/internal/model"
	"github.com/mj1618/chrome-cli/internal/native"
	"github.com/mj1618/chrome-cli/internal/output"
)

// StepResult is the YAML output of a single action command.
type StepResult struct {
	OK        bool    `yaml:"ok"                  json:"ok"`
	Action    string  `yaml:"action"              json:"action"`
	Target    string  `yaml:"target,omitempty"    json:"target,omitempty"`
	Path      string  `yaml:"path,omitempty"      json:"path,omitempty"`
	X         float64 `yaml:"x,omitempty"         json:"x,omitempty"`
	Y         float64 `yaml:"y,omitempty"         json:"y,omitempty"`
	ElapsedMs int64   `yaml:"elapsedMs,omitempty" json:"elapsedMs,omitempty"`
	Error     string  `yaml:"error,omitempty"     json:"error,omitempty"`
}

// connectEngine dials the browser using the root connection flags. The
// native input backend is attached when the platform provides one.
func connectEngine(cmd *cobra.Command) (*engine.Engine, context.Context, error) {
	host, _ := rootCmd.PersistentFlags().GetString("host")
	port, _ := rootCmd.PersistentFlags().GetInt("port")
	timeout, _ := rootCmd.PersistentFlags().GetDuration("timeout")

	opts := []engine.Option{engine.WithLogger(logger)}
	if provider, err := native.NewProvider(); err == nil {
		opts = append(opts, engine.WithNativeInput(provider))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	eng, err := engine.Connect(ctx, host, port, timeout, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to browser at %s:%d: %w", host, port, err)
	}
	return eng, ctx, nil
}

// addTabFlag adds the --tab selector shared by page-scoped commands.
func addTabFlag(cmd *cobra.Command) {
	cmd.Flags().String("tab", "", "Tab to operate on: target id, or URL/title substring (default: first tab)")
}

// resolveTab picks the tab a command operates on. An empty selector means
// the first open tab; otherwise the selector matches a target id exactly or
// a URL/title substring case-insensitively.
func resolveTab(ctx context.Context, eng *engine.Engine, cmd *cobra.Command) (model.Tab, error) {
	selector, _ := cmd.Flags().GetString("tab")
	if selector == "" {
		return eng.FirstTab(ctx)
	}

	tabs, err := eng.ListTabs(ctx)
	if err != nil {
		return model.Tab{}, err
	}
	for _, t := range tabs {
		if t.ID == selector {
			return t, nil
		}
	}
	sel := strings.ToLower(selector)
	for _, t := range tabs {
		if strings.Contains(strings.ToLower(t.URL), sel) || strings.Contains(strings.ToLower(t.Title), sel) {
			return t, nil
		}
	}
	return model.Tab{}, fmt.Errorf("no tab matches %q", selector)
}

// addTargetFlags adds the element-targeting flags shared by action commands.
// A positional argument is treated as free text and resolved by text, then
// label, then as a CSS selector.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("css", "", "Target by CSS selector")
	cmd.Flags().String("text", "", "Target by visible text (case-insensitive)")
	cmd.Flags().String("role", "", "Target by role (use with --label), e.g. btn, lnk, input")
	cmd.Flags().String("label", "", "Target by accessible name (use with --role, or alone)")
	cmd.Flags().Float64("x", 0, "Target X viewport/screen coordinate")
	cmd.Flags().Float64("y", 0, "Target Y viewport/screen coordinate")
	cmd.Flags().Bool("native", false, "Force OS-level input instead of protocol input")
}

// targetFromFlags builds a target description from a command's flags and
// positional args.
func targetFromFlags(cmd *cobra.Command, args []string) (model.TargetDescription, error) {
	css, _ := cmd.Flags().GetString("css")
	text, _ := cmd.Flags().GetString("text")
	role, _ := cmd.Flags().GetString("role")
	label, _ := cmd.Flags().GetString("label")

	switch {
	case css != "":
		return model.CSS(css), nil
	case text != "":
		return model.Text(text), nil
	case label != "":
		return model.RoleLabel(role, label), nil
	case cmd.Flags().Changed("x") || cmd.Flags().Changed("y"):
		x, _ := cmd.Flags().GetFloat64("x")
		y, _ := cmd.Flags().GetFloat64("y")
		return model.Coordinate(x, y), nil
	case len(args) > 0:
		return model.FreeText(strings.Join(args, " ")), nil
	default:
		return model.TargetDescription{}, fmt.Errorf("specify a target: --css, --text, --role/--label, --x/--y, or a free-text argument")
	}
}

// printStep renders an execution report as a StepResult.
func printStep(report *engine.ExecutionReport) error {
	return output.Print(StepResult{
		OK:        true,
		Action:    report.Action,
		Target:    report.Target,
		Path:      report.Path,
		X:         report.X,
		Y:         report.Y,
		ElapsedMs: report.Elapsed.Milliseconds(),
	})
}
