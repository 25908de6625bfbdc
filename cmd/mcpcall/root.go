package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hbeckmann/mcpcall/internal/interactive"
	"github.com/hbeckmann/mcpcall/internal/mcp"
)

// Version information (set at build time via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

var (
	rootURL        string
	rootTransport  string
	rootDebug      bool
	bearerTokenEnv string
	extraHeaders   []string
)

var rootCmd = &cobra.Command{
	Use:   "mcpcall",
	Short: "Interactive MCP tool-invocation client",
	Long: `mcpcall connects to an MCP server, lists its tools, and lets you
interactively pick a tool, fill in its arguments, and inspect the result.

Running without a subcommand starts the interactive loop. Use
'mcpcall tools' to list tool names or 'mcpcall call' to invoke a tool
non-interactively.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	RunE:    runInteractive,
}

func init() {
	// Disable automatic completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Suppress errors from being printed twice
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVar(&rootURL, "url", "", "MCP server URL (defaults to http://localhost:8000/mcp or /sse)")
	rootCmd.PersistentFlags().StringVar(&rootTransport, "transport", "", `Transport kind: "http" (streamable HTTP) or "sse" (event stream)`)
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging, including wire payloads")
	rootCmd.PersistentFlags().StringVar(&bearerTokenEnv, "bearer-token-env", "", "Name of an environment variable holding a bearer token")
	rootCmd.PersistentFlags().StringArrayVar(&extraHeaders, "header", nil, "Extra HTTP header as key=value (repeatable)")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	logger := setupLogging()

	cfg, err := buildClientConfig(logger, true)
	if err != nil {
		return err
	}

	session, err := mcp.Dial(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	controller := interactive.NewController(session, os.Stdin, os.Stdout, logger)
	return controller.Run(cmd.Context())
}
