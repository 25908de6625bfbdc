package interactive

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbeckmann/mcpcall/internal/mcp"
)

func newScriptedPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out, zerolog.Nop()), &out
}

func sampleTools() []mcp.Tool {
	return []mcp.Tool{
		{Name: "echo", Description: "Echo a message"},
		{Name: "add", Description: "Add two numbers"},
	}
}

func TestChooseTool_ValidSelection(t *testing.T) {
	p, out := newScriptedPrompter("2\n")

	tool, err := p.ChooseTool(sampleTools())
	require.NoError(t, err)
	require.NotNil(t, tool)
	assert.Equal(t, "add", tool.Name)

	// The menu is 1-based with name and description.
	assert.Contains(t, out.String(), "Available tools:")
	assert.Contains(t, out.String(), "1. echo - Echo a message")
	assert.Contains(t, out.String(), "2. add - Add two numbers")
	assert.Contains(t, out.String(), "Select a tool by number: ")
}

func TestChooseTool_InvalidSelections(t *testing.T) {
	// Out-of-range and non-numeric input return no selection and no error;
	// the caller decides to re-prompt.
	for _, input := range []string{"0\n", "3\n", "-1\n", "abc\n", "\n"} {
		p, _ := newScriptedPrompter(input)
		tool, err := p.ChooseTool(sampleTools())
		require.NoError(t, err, "input %q", input)
		assert.Nil(t, tool, "input %q", input)
	}
}

func TestChooseTool_EmptyList(t *testing.T) {
	p, out := newScriptedPrompter("1\n")

	tool, err := p.ChooseTool(nil)
	require.NoError(t, err)
	assert.Nil(t, tool)
	assert.Empty(t, out.String(), "empty tool list must not prompt")
}

func TestChooseTool_InputStreamEnds(t *testing.T) {
	p, _ := newScriptedPrompter("")

	_, err := p.ChooseTool(sampleTools())
	assert.Error(t, err)
}

func toolWithSchema(t *testing.T, schema string) mcp.Tool {
	t.Helper()
	return mcp.Tool{Name: "test_tool", InputSchema: json.RawMessage(schema)}
}

func TestPromptArguments_CollectsTypedValues(t *testing.T) {
	tool := toolWithSchema(t, `{
		"properties": {
			"city": {"type": "string"},
			"days": {"type": "integer"},
			"detailed": {"type": "boolean"}
		},
		"required": ["city"]
	}`)

	p, _ := newScriptedPrompter("Berlin\n3\nyes\n")

	args, err := p.PromptArguments(tool)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"city":     "Berlin",
		"days":     int64(3),
		"detailed": true,
	}, args)
}

func TestPromptArguments_RequiredFieldRepromptsOnEmpty(t *testing.T) {
	tool := toolWithSchema(t, `{
		"properties": {"msg": {"type": "string"}},
		"required": ["msg"]
	}`)

	// Two empty entries, then a real value.
	p, out := newScriptedPrompter("\n\nhello\n")

	args, err := p.PromptArguments(tool)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"msg": "hello"}, args)
	assert.Equal(t, 2, strings.Count(out.String(), "This field is required."))
}

func TestPromptArguments_OptionalFieldOmittedOnEmpty(t *testing.T) {
	tool := toolWithSchema(t, `{
		"properties": {
			"msg": {"type": "string"},
			"extra": {"type": "string"}
		},
		"required": ["msg"]
	}`)

	p, _ := newScriptedPrompter("hello\n\n")

	args, err := p.PromptArguments(tool)
	require.NoError(t, err)
	// The skipped optional key is absent, not present with an empty value.
	assert.Equal(t, map[string]any{"msg": "hello"}, args)
	_, present := args["extra"]
	assert.False(t, present)
}

func TestPromptArguments_RepromptsUntilValueParses(t *testing.T) {
	tool := toolWithSchema(t, `{
		"properties": {"count": {"type": "integer"}},
		"required": ["count"]
	}`)

	p, out := newScriptedPrompter("abc\n3.5\n7\n")

	args, err := p.PromptArguments(tool)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": int64(7)}, args)
	assert.Equal(t, 2, strings.Count(out.String(), "please enter a base-10 integer"))
}

func TestPromptArguments_LargeJSONLiteral(t *testing.T) {
	// A pasted JSON literal can far exceed bufio's default 64 KiB line cap;
	// it must be read as one line, not fail as an input-stream error.
	tool := toolWithSchema(t, `{
		"properties": {"items": {"type": "array"}},
		"required": ["items"]
	}`)

	element := `"` + strings.Repeat("x", 100) + `"`
	literal := "[" + strings.Repeat(element+",", 1000) + element + "]"
	require.Greater(t, len(literal), 64*1024)

	p, _ := newScriptedPrompter(literal + "\n")

	args, err := p.PromptArguments(tool)
	require.NoError(t, err)
	items, ok := args["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1001)
}

func TestPromptArguments_NoSchema(t *testing.T) {
	p, out := newScriptedPrompter("")

	args, err := p.PromptArguments(mcp.Tool{Name: "bare_tool"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, args)
	assert.Contains(t, out.String(), "(no schema provided, using empty arguments {})")
}

func TestPromptArguments_UnusableSchema(t *testing.T) {
	// A schema that cannot be interpreted degrades to empty arguments; the
	// server validates on its side.
	p, _ := newScriptedPrompter("")

	args, err := p.PromptArguments(toolWithSchema(t, `{"properties": "garbage"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, args)
}

func TestPromptArguments_InputStreamEnds(t *testing.T) {
	tool := toolWithSchema(t, `{
		"properties": {"msg": {"type": "string"}},
		"required": ["msg"]
	}`)

	p, _ := newScriptedPrompter("")

	_, err := p.PromptArguments(tool)
	assert.Error(t, err)
}

func TestAskAgain(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"anything\n", true},
		{"n\n", false},
		{"no\n", false},
		{"N\n", false},
		{"\n", false},
		{"", false}, // input stream ends
	}
	for _, tt := range tests {
		p, _ := newScriptedPrompter(tt.input)
		assert.Equal(t, tt.want, p.AskAgain(), "input %q", tt.input)
	}
}
