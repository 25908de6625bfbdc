package interactive

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hbeckmann/mcpcall/internal/mcp"
)

// maxInputLine bounds a single input line. Large JSON literals for array and
// object properties are pasted as one line, so the cap is well above the
// bufio default.
const maxInputLine = 1024 * 1024

// Prompter collects operator input for tool selection and argument entry.
// Prompts go to out, input is read line by line from in and trimmed.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	logger  zerolog.Logger
}

// NewPrompter creates a prompter over the given console streams.
func NewPrompter(in io.Reader, out io.Writer, logger zerolog.Logger) *Prompter {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
	return &Prompter{
		scanner: scanner,
		out:     out,
		logger:  logger,
	}
}

// readLine reads one trimmed input line. It fails only when the input
// stream ends or breaks.
func (p *Prompter) readLine() (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// ChooseTool presents a 1-based enumerated tool list and reads a selection.
// A selection that does not parse as an integer in [1, len(tools)] returns
// nil without error; the caller re-prompts. An empty tool list returns nil
// immediately without prompting. The only error is an input stream failure.
func (p *Prompter) ChooseTool(tools []mcp.Tool) (*mcp.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, toolListHeading.Render("Available tools:"))
	for i, tool := range tools {
		fmt.Fprintf(p.out, "%d. %s - %s\n", i+1, tool.Name, tool.Description)
	}

	fmt.Fprint(p.out, "\nSelect a tool by number: ")
	choice, err := p.readLine()
	if err != nil {
		return nil, err
	}

	idx, convErr := strconv.Atoi(choice)
	if convErr != nil || idx < 1 || idx > len(tools) {
		p.logger.Warn().Str("input", choice).Msg("invalid tool selection")
		return nil, nil
	}

	chosen := tools[idx-1]
	p.logger.Info().Str("tool", chosen.Name).Msg("tool selected")
	return &chosen, nil
}

// PromptArguments collects argument values for the tool based on its input
// schema. Each property is prompted in declaration order and re-prompted
// until the input parses for its declared type; an empty entry skips an
// optional property (the key is omitted entirely) and is rejected for a
// required one. A schema without properties yields an empty map without
// prompting. The only error is an input stream failure.
func (p *Prompter) PromptArguments(tool mcp.Tool) (map[string]any, error) {
	schema, err := ParseSchema(tool.InputSchema)
	if err != nil {
		// A schema we cannot interpret is treated like an absent one; the
		// server will validate the (empty) arguments on its side.
		p.logger.Warn().Err(err).Str("tool", tool.Name).Msg("unusable input schema, using empty arguments")
		return map[string]any{}, nil
	}

	fmt.Fprintf(p.out, "\nTool '%s' argument schema:\n", tool.Name)
	if len(schema.Properties) == 0 {
		fmt.Fprintln(p.out, "  (no schema provided, using empty arguments {})")
		p.logger.Info().Str("tool", tool.Name).Msg("tool has no input schema, using empty arguments")
		return map[string]any{}, nil
	}

	arguments := make(map[string]any)

	for _, prop := range schema.Properties {
		label := prop.Label()

		for {
			fmt.Fprintf(p.out, "%s: ", label)
			raw, err := p.readLine()
			if err != nil {
				return nil, err
			}

			if raw == "" {
				if prop.Required {
					fmt.Fprintln(p.out, "This field is required.")
					p.logger.Warn().Str("property", prop.Name).Msg("required field left empty")
					continue
				}
				// Optional and empty: omit the key.
				break
			}

			value, parseErr := parseValue(prop.Type, raw)
			if parseErr != nil {
				fmt.Fprintln(p.out, parseErr.Error())
				p.logger.Warn().
					Str("property", prop.Name).
					Str("input", raw).
					Err(parseErr).
					Msg("invalid argument value")
				continue
			}

			arguments[prop.Name] = value
			break
		}
	}

	p.logger.Info().Str("tool", tool.Name).Interface("arguments", arguments).Msg("arguments collected")
	return arguments, nil
}

// AskAgain asks whether the operator wants to call another tool. "n", "no",
// an empty line, or an input failure all end the loop.
func (p *Prompter) AskAgain() bool {
	fmt.Fprint(p.out, "\nCall another tool? [y/n]: ")
	answer, err := p.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "n", "no", "":
		return false
	default:
		return true
	}
}
