package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mj1618/chrome-cli/internal/output"
	"github.com/mj1618/chrome-cli/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "chrome-cli",
	Short: "Read and interact with web pages through a running Chrome",
	Long: `A CLI tool that lets AI agents read and interact with web pages via the
Chrome DevTools Protocol. Point it at a browser started with
--remote-debugging-port and drive pages by accessibility snapshot, text,
CSS selector, or raw coordinates.`,
}

// logger is built once by the persistent pre-run and shared by commands.
var logger = zap.NewNop()

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("host", "127.0.0.1", "DevTools host")
	rootCmd.PersistentFlags().Int("port", 9222, "DevTools port (browser started with --remote-debugging-port)")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Per-operation timeout")
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default: off)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		if format == "" {
			format = "yaml"
		}
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if prettyFlag := cmd.Flags().Lookup("pretty"); prettyFlag != nil {
			if pretty, err := cmd.Flags().GetBool("pretty"); err == nil && pretty {
				output.PrettyOutput = true
			}
		}

		level, _ := rootCmd.PersistentFlags().GetString("log-level")
		if level != "" {
			var lvl zapcore.Level
			if err := lvl.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("invalid log level %q", level)
			}
			cfg := zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(lvl)
			// Logs go to stderr so structured output on stdout stays parseable.
			cfg.OutputPaths = []string{"stderr"}
			log, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = log
		}
		return nil
	}
}
