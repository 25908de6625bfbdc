package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"

	"github.com/hbeckmann/mcpcall/internal/logging"
	"github.com/hbeckmann/mcpcall/internal/mcp"
)

// Default endpoints for a locally running MCP server, matching the paths
// the two transport variants are conventionally served on.
const (
	defaultHTTPURL = "http://localhost:8000/mcp"
	defaultSSEURL  = "http://localhost:8000/sse"
)

// setupLogging configures the process-wide logger once and returns it.
func setupLogging() zerolog.Logger {
	level := zerolog.InfoLevel
	if rootDebug {
		level = zerolog.DebugLevel
		mcp.DebugLogging = true
	}
	logging.Setup(level)
	return logging.Logger()
}

// buildClientConfig resolves the transport kind, URL, bearer token, and
// extra headers from the flags. Configuration errors (unknown transport,
// missing token env var, malformed header) are raised here, before any
// network activity. With allowPicker, a missing --transport flag brings up
// an interactive chooser instead of defaulting.
func buildClientConfig(logger zerolog.Logger, allowPicker bool) (mcp.Config, error) {
	kindStr := rootTransport
	if kindStr == "" {
		if allowPicker && stdinIsTerminal() {
			kindStr = pickTransport()
		} else {
			kindStr = "http"
		}
	}

	kind, err := mcp.ParseTransportKind(kindStr)
	if err != nil {
		return mcp.Config{}, err
	}

	url := rootURL
	if url == "" {
		switch kind {
		case mcp.TransportSSE:
			url = defaultSSEURL
		default:
			url = defaultHTTPURL
		}
	}

	token, err := mcp.ValidateBearerTokenEnvVar(bearerTokenEnv)
	if err != nil {
		return mcp.Config{}, err
	}

	headers, err := parseHeaders(extraHeaders)
	if err != nil {
		return mcp.Config{}, err
	}

	return mcp.Config{
		URL:         url,
		Kind:        kind,
		BearerToken: token,
		Headers:     headers,
		Logger:      logger,
	}, nil
}

// pickTransport asks the operator which transport variant to use. A
// cancelled or failed form falls back to streamable HTTP, mirroring the
// "invalid choice defaults to http" behavior of the original menu.
func pickTransport() string {
	choice := "http"
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose transport type").
				Options(
					huh.NewOption("http (streamable HTTP)", "http"),
					huh.NewOption("sse (Server-Sent Events)", "sse"),
				).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println("No transport chosen, defaulting to streamable HTTP...")
		return "http"
	}
	return choice
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// parseHeaders turns repeated key=value flags into a header map.
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q (expected key=value)", pair)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers, nil
}
