package interactive

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/hbeckmann/mcpcall/internal/mcp"
)

// toolSession is the slice of the session surface the controller needs.
// *mcp.Session satisfies it; tests substitute a fake.
type toolSession interface {
	Initialize(ctx context.Context) error
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (*mcp.CallResult, error)
}

// Controller drives the interactive loop: initialize the session, list
// tools, and repeatedly select, prompt, invoke, and render until the
// operator stops or an operation fails.
type Controller struct {
	session  toolSession
	prompter *Prompter
	out      io.Writer
	logger   zerolog.Logger
}

// NewController wires a controller over a session and console streams.
func NewController(session toolSession, in io.Reader, out io.Writer, logger zerolog.Logger) *Controller {
	return &Controller{
		session:  session,
		prompter: NewPrompter(in, out, logger),
		out:      out,
		logger:   logger,
	}
}

// Run executes the interactive loop. Handshake or listing failures are
// fatal to the run and returned to the caller. Failures inside the loop
// body are logged and stop the loop without being returned: the run is
// fail-stop, not fail-continue, and recovery beyond the localized
// selection/argument retry loops is not attempted.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.session.Initialize(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to start interactive session")
		return fmt.Errorf("start session: %w", err)
	}

	tools, err := c.session.ListTools(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to list tools")
		return fmt.Errorf("list tools: %w", err)
	}

	if len(tools) == 0 {
		fmt.Fprintln(c.out, "No tools available.")
		c.logger.Warn().Msg("server returned no tools")
		return nil
	}

	for {
		tool, err := c.prompter.ChooseTool(tools)
		if err != nil {
			// Input stream ended; nothing more to do interactively.
			c.logger.Warn().Err(err).Msg("input ended during tool selection")
			return nil
		}
		if tool == nil {
			// Invalid selection, re-prompt.
			continue
		}

		arguments, err := c.prompter.PromptArguments(*tool)
		if err != nil {
			c.logger.Warn().Err(err).Msg("input ended during argument entry")
			return nil
		}

		if _, err := c.invoke(ctx, *tool, arguments); err != nil {
			c.logger.Error().Err(err).Msg("error during interactive tool call")
			fmt.Fprintf(c.out, "Tool call failed: %v\n", err)
			return nil
		}

		if !c.prompter.AskAgain() {
			c.logger.Info().Msg("operator chose to exit interactive loop")
			return nil
		}
	}
}

// invoke is the interactive variant of the tool call: it echoes the
// outgoing arguments, performs the call, and renders the result twice -
// once as raw JSON and once through the lossy readability transform.
func (c *Controller) invoke(ctx context.Context, tool mcp.Tool, arguments map[string]any) (*mcp.CallResult, error) {
	c.logger.Info().Str("tool", tool.Name).Msg("calling tool")

	argsJSON, err := FormatJSON(arguments)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.out, "\nCalling tool '%s' with arguments:\n", tool.Name)
	fmt.Fprintln(c.out, argsJSON)

	result, err := c.session.CallTool(ctx, tool.Name, arguments)
	if err != nil {
		return nil, err
	}

	raw, err := FormatJSON(result)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, resultBanner.Render("[TOOL RESULT (raw JSON)]"))
	fmt.Fprintln(c.out, raw)

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, resultBanner.Render("[FINAL RESULT (rendered for readability, JSON formatting may be invalid)]"))
	fmt.Fprintln(c.out, Readability(raw))

	return result, nil
}
