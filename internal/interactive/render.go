package interactive

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	toolListHeading = lipgloss.NewStyle().Bold(true)
	resultBanner    = lipgloss.NewStyle().Bold(true)
)

// FormatJSON renders a value as indented JSON for the operator console.
func FormatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render result: %w", err)
	}
	return string(data), nil
}

// Readability applies a best-effort cosmetic transform to a rendered JSON
// string: literal \n escape sequences become real line breaks and all
// remaining backslashes are stripped. The transform is lossy and may
// produce invalid JSON formatting; it exists purely to make text-heavy
// results easier to read and must not be mistaken for a re-parse.
func Readability(rendered string) string {
	out := strings.ReplaceAll(rendered, `\n`, "\n")
	return strings.ReplaceAll(out, `\`, "")
}
