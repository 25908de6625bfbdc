package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hbeckmann/mcpcall/internal/mcp"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered by the server",
	Long: `Connect to the MCP server, perform the initialize handshake, and print
the names of the available tools, one per line, in server order.

Examples:
  mcpcall tools
  mcpcall tools --url http://localhost:8000/mcp --transport http`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	logger := setupLogging()

	cfg, err := buildClientConfig(logger, false)
	if err != nil {
		return err
	}

	session, err := mcp.Dial(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Initialize(cmd.Context()); err != nil {
		return err
	}

	names, err := session.ListToolNames(cmd.Context())
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
