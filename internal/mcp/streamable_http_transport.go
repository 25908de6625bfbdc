package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// MaxSSEEventSize is the maximum size of a single SSE event (1MB).
	MaxSSEEventSize = 1024 * 1024

	// DefaultConnectTimeout is the timeout for initial HTTP connections.
	DefaultConnectTimeout = 30 * time.Second
)

// SupportedProtocolVersions lists the MCP protocol versions we support,
// in order of preference (newest first). During connection, we try each
// version until one is accepted by the server.
var SupportedProtocolVersions = []string{
	"2025-11-25", // current
	"2025-06-18",
	"2025-03-26",
	"2024-11-05", // legacy fallback
}

// StreamableHTTPConfig holds configuration for the streamable HTTP transport.
type StreamableHTTPConfig struct {
	// URL is the base URL of the MCP server (e.g., "http://localhost:8000/mcp").
	URL string

	// BearerToken is the bearer token for authentication (optional).
	BearerToken string

	// HTTPHeaders are static headers to include in all requests.
	HTTPHeaders map[string]string

	// Client is the HTTP client to use. If nil, http.DefaultClient is used.
	Client *http.Client

	// Logger receives transport diagnostics. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// StreamableHTTPTransport implements Transport over HTTP.
// It uses POST for sending JSON-RPC requests; responses come back either as
// direct JSON bodies or as inline SSE streams, depending on the server.
// This is the variant that carries a server-assigned session identifier.
type StreamableHTTPTransport struct {
	config    StreamableHTTPConfig
	rpcClient *http.Client
	logger    zerolog.Logger

	// Session state
	sessionID         string
	lastEventID       string
	negotiatedVersion string

	// Message queue for received messages
	msgQueue chan []byte

	// Shutdown coordination
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

var _ SessionIdentifier = (*StreamableHTTPTransport)(nil)
var _ Terminator = (*StreamableHTTPTransport)(nil)

// NewStreamableHTTPTransport creates a new streamable HTTP transport.
func NewStreamableHTTPTransport(config StreamableHTTPConfig) *StreamableHTTPTransport {
	baseClient := config.Client
	if baseClient == nil {
		baseClient = http.DefaultClient
	}

	return &StreamableHTTPTransport{
		config:    config,
		rpcClient: cloneHTTPClient(baseClient),
		logger:    config.Logger,
		msgQueue:  make(chan []byte, 100),
		done:      make(chan struct{}),
	}
}

// Connect prepares the transport for use. Streamable HTTP is request/response
// based, so there is no connection to establish up front; the session ID is
// assigned by the server on the first POST.
func (t *StreamableHTTPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return nil
}

// Send sends a JSON-RPC message via HTTP POST.
// On version rejection (400 with a version error body), it automatically
// retries with the next supported version until one is accepted.
func (t *StreamableHTTPTransport) Send(ctx context.Context, msg []byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	sessionID := t.sessionID
	negotiatedVersion := t.negotiatedVersion
	t.mu.Unlock()

	if DebugLogging {
		t.logger.Debug().Msgf("HTTP Send: %s", msg)
	}

	// Determine which versions to try. If a version has already been
	// negotiated, start from it but allow fallback if it is rejected.
	versionsToTry := SupportedProtocolVersions
	if negotiatedVersion != "" {
		for i, v := range SupportedProtocolVersions {
			if v == negotiatedVersion {
				versionsToTry = SupportedProtocolVersions[i:]
				break
			}
		}
	}

	var lastErr error
	for i, version := range versionsToTry {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.URL, bytes.NewReader(msg))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		t.setCommonHeaders(req, version)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		if sessionID != "" {
			req.Header.Set("Mcp-Session-Id", sessionID)
		}

		resp, err := t.rpcClient.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}

		// Check for version rejection (400 Bad Request with version error).
		if resp.StatusCode == http.StatusBadRequest {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			bodyStr := string(body)

			if isVersionRejection(bodyStr) {
				t.logger.Warn().Str("version", version).Msg("protocol version rejected by server, trying next")
				lastErr = fmt.Errorf("version %s rejected: %s", version, bodyStr)

				t.mu.Lock()
				t.negotiatedVersion = ""
				t.mu.Unlock()

				if i < len(versionsToTry)-1 {
					continue
				}
				return fmt.Errorf("all protocol versions rejected by server: %w", lastErr)
			}

			return fmt.Errorf("request failed: %s - %s", resp.Status, bodyStr)
		}

		// Capture session ID from response.
		if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
			t.mu.Lock()
			t.sessionID = sid
			t.mu.Unlock()
		}

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			return fmt.Errorf("request failed: %s - %s", resp.Status, string(body))
		}

		// Success - store the negotiated version.
		if negotiatedVersion != version {
			t.mu.Lock()
			t.negotiatedVersion = version
			t.mu.Unlock()
			t.logger.Debug().Str("version", version).Msg("negotiated protocol version")
		}

		// Handle response based on content type.
		contentType := resp.Header.Get("Content-Type")
		switch {
		case strings.HasPrefix(contentType, "text/event-stream"):
			err = t.handleSSEResponse(ctx, resp.Body)
		case strings.HasPrefix(contentType, "application/json"):
			err = t.handleJSONResponse(ctx, resp.Body)
		}
		_ = resp.Body.Close()
		return err
	}

	if lastErr != nil {
		return lastErr
	}
	return errors.New("no protocol versions to try")
}

// isVersionRejection checks if an error response indicates a protocol version rejection.
func isVersionRejection(body string) bool {
	bodyLower := strings.ToLower(body)
	return strings.Contains(bodyLower, "unsupported") && strings.Contains(bodyLower, "version") ||
		strings.Contains(bodyLower, "protocol-version") ||
		strings.Contains(bodyLower, "protocolversion")
}

// handleSSEResponse processes an inline SSE stream response.
func (t *StreamableHTTPTransport) handleSSEResponse(ctx context.Context, body io.Reader) error {
	scanner := newSSEScanner(body, MaxSSEEventSize)
	for {
		event, err := scanner.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read SSE response: %w", err)
		}
		if event.ID != "" {
			t.mu.Lock()
			t.lastEventID = event.ID
			t.mu.Unlock()
		}
		if len(event.Data) > 0 && (event.Event == "" || event.Event == "message") {
			select {
			case <-t.done:
				return ErrClosed
			case t.msgQueue <- event.Data:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// handleJSONResponse processes a direct JSON response.
func (t *StreamableHTTPTransport) handleJSONResponse(ctx context.Context, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(data) > 0 {
		select {
		case <-t.done:
			return ErrClosed
		case t.msgQueue <- data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Receive reads the next JSON-RPC message queued from a POST response.
func (t *StreamableHTTPTransport) Receive(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	t.mu.Unlock()

	select {
	case msg := <-t.msgQueue:
		if DebugLogging {
			t.logger.Debug().Msgf("HTTP Recv: %s", msg)
		}
		return msg, nil
	case <-t.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Terminate ends the server-side session with an HTTP DELETE carrying the
// session ID. Servers without session management may answer 404 or 405;
// that is not treated as a failure.
func (t *StreamableHTTPTransport) Terminate(ctx context.Context) error {
	t.mu.Lock()
	sessionID := t.sessionID
	version := t.negotiatedVersion
	t.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, t.config.URL, nil)
	if err != nil {
		return fmt.Errorf("create terminate request: %w", err)
	}
	if version == "" {
		version = SupportedProtocolVersions[0]
	}
	t.setCommonHeaders(req, version)
	req.Header.Set("Mcp-Session-Id", sessionID)

	resp, err := t.rpcClient.Do(req)
	if err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent,
		http.StatusNotFound, http.StatusMethodNotAllowed:
		return nil
	default:
		return fmt.Errorf("terminate session: %s", resp.Status)
	}
}

// Close closes the transport.
func (t *StreamableHTTPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	close(t.done)
	return nil
}

// SessionID returns the server-assigned session ID, if any.
func (t *StreamableHTTPTransport) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// NegotiatedVersion returns the protocol version negotiated with the server.
// Returns empty string if no version has been negotiated yet.
func (t *StreamableHTTPTransport) NegotiatedVersion() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.negotiatedVersion
}

// setCommonHeaders sets headers common to all requests.
func (t *StreamableHTTPTransport) setCommonHeaders(req *http.Request, version string) {
	req.Header.Set("MCP-Protocol-Version", version)

	if t.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.config.BearerToken)
	}
	for k, v := range t.config.HTTPHeaders {
		req.Header.Set(k, v)
	}
}

// ValidateBearerTokenEnvVar resolves a bearer token from the named
// environment variable. Returns an error if the env var is configured but
// not present or unusable.
func ValidateBearerTokenEnvVar(envVarName string) (string, error) {
	if envVarName == "" {
		return "", nil
	}
	if !isValidEnvVarName(envVarName) {
		return "", fmt.Errorf("invalid bearer token env var name %q", envVarName)
	}
	val, ok := os.LookupEnv(envVarName)
	if !ok || strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("bearer token env var %s is not set", envVarName)
	}
	if strings.ContainsAny(val, "\r\n") {
		return "", fmt.Errorf("bearer token env var %s must not contain newlines", envVarName)
	}
	return val, nil
}

func isValidEnvVarName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		isLetter := (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
		isDigit := b >= '0' && b <= '9'
		if i == 0 {
			if !isLetter && b != '_' {
				return false
			}
			continue
		}
		if !isLetter && !isDigit && b != '_' {
			return false
		}
	}
	return true
}

func cloneHTTPClient(base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	// No whole-request timeout: SSE response bodies are long-lived.
	// Timeouts are handled by context cancellation and transport-level
	// header/dial deadlines.
	c.Timeout = 0

	if c.Transport == nil {
		c.Transport = defaultHTTPTransport()
		return c
	}
	if t, ok := c.Transport.(*http.Transport); ok {
		tt := t.Clone()
		if tt.ResponseHeaderTimeout == 0 {
			tt.ResponseHeaderTimeout = DefaultConnectTimeout
		}
		if tt.TLSHandshakeTimeout == 0 {
			tt.TLSHandshakeTimeout = DefaultConnectTimeout
		}
		if tt.DialContext == nil {
			tt.DialContext = (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext
		}
		c.Transport = tt
	}
	return c
}

func defaultHTTPTransport() *http.Transport {
	// Start from Go's defaults and add a header timeout so requests that never
	// respond don't hang indefinitely, without imposing a hard deadline for
	// long-lived response bodies like SSE.
	if dt, ok := http.DefaultTransport.(*http.Transport); ok {
		t := dt.Clone()
		t.ResponseHeaderTimeout = DefaultConnectTimeout
		if t.TLSHandshakeTimeout == 0 {
			t.TLSHandshakeTimeout = DefaultConnectTimeout
		}
		return t
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   DefaultConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: DefaultConnectTimeout,
	}
}
