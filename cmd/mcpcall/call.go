package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hbeckmann/mcpcall/internal/interactive"
	"github.com/hbeckmann/mcpcall/internal/mcp"
)

var callArgsJSON string

var callCmd = &cobra.Command{
	Use:   "call <tool-name>",
	Short: "Call a tool by name, non-interactively",
	Long: `Connect to the MCP server, perform the initialize handshake, call the
named tool with the given arguments, and print the raw structured result as
indented JSON. Intended for scripting and for embedding in other programs.

Examples:
  mcpcall call echo --args '{"msg":"hi"}'
  mcpcall call get_weather --args '{"city":"Berlin","days":3}'`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callArgsJSON, "args", "{}", "Tool arguments as a JSON object")

	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	toolName := args[0]
	logger := setupLogging()

	var arguments map[string]any
	if err := json.Unmarshal([]byte(callArgsJSON), &arguments); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
	}

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

	result, err := session.CallTool(cmd.Context(), toolName, arguments)
	if err != nil {
		return err
	}

	rendered, err := interactive.FormatJSON(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)

	if result.IsError {
		return fmt.Errorf("tool %s reported an error", toolName)
	}
	return nil
}
