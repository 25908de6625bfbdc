package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Config describes how to reach an MCP server.
type Config struct {
	// URL is the server endpoint (e.g. http://localhost:8000/mcp or /sse).
	URL string

	// Kind selects the transport variant.
	Kind TransportKind

	// BearerToken is sent as an Authorization header when non-empty.
	BearerToken string

	// Headers are static headers included in all requests.
	Headers map[string]string

	// Client overrides the HTTP client used by the transport.
	Client *http.Client

	// Logger receives session and transport diagnostics.
	Logger zerolog.Logger
}

// Dial builds the transport for the configured kind, connects it, and wraps
// it in an unstarted Session. The caller owns the session and must arrange
// for Close to run on every exit path. An unrecognized kind fails before any
// network action.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	var transport Transport
	switch cfg.Kind {
	case TransportStreamable:
		transport = NewStreamableHTTPTransport(StreamableHTTPConfig{
			URL:         cfg.URL,
			BearerToken: cfg.BearerToken,
			HTTPHeaders: cfg.Headers,
			Client:      cfg.Client,
			Logger:      cfg.Logger,
		})
	case TransportSSE:
		transport = NewSSETransport(SSEConfig{
			URL:         cfg.URL,
			BearerToken: cfg.BearerToken,
			HTTPHeaders: cfg.Headers,
			Client:      cfg.Client,
			Logger:      cfg.Logger,
		})
	default:
		return nil, &UnknownTransportError{Kind: cfg.Kind.String()}
	}

	cfg.Logger.Info().
		Str("transport", cfg.Kind.String()).
		Str("url", cfg.URL).
		Msg("opening client")

	if err := transport.Connect(ctx); err != nil {
		// The transport never opened a session, but it may hold resources
		// (an event stream for the SSE variant). Release them here.
		_ = transport.Close()
		return nil, fmt.Errorf("connect %s transport: %w", cfg.Kind, err)
	}

	return NewSession(transport, cfg.Logger), nil
}
