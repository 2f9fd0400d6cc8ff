package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an MCP server exposing browser control as tools",
	Long: `Start a Model Context Protocol server so agents can read pages and drive
the browser with direct tool calls instead of shelling out per action.

Transports:
  stdio            speak MCP over stdin/stdout (default)
  streamable-http  listen on an HTTP port`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio or streamable-http")
	serveCmd.Flags().Int("http-port", 8080, "HTTP port (streamable-http transport)")
	serveCmd.Flags().Int("cache-ttl", 2000, "Snapshot cache TTL in milliseconds (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	httpPort, _ := cmd.Flags().GetInt("http-port")
	cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")

	host, _ := rootCmd.PersistentFlags().GetString("host")
	port, _ := rootCmd.PersistentFlags().GetInt("port")
	timeout, _ := rootCmd.PersistentFlags().GetDuration("timeout")

	cfg := server.Config{
		BrowserHost: host,
		BrowserPort: port,
		Transport:   transport,
		HTTPPort:    httpPort,
		Timeout:     timeout,
		CacheTTL:    time.Duration(cacheTTL) * time.Millisecond,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return srv.Serve(cfg)
}
