package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
)

// SSEConfig holds configuration for the legacy HTTP+SSE transport.
type SSEConfig struct {
	// URL is the SSE endpoint of the MCP server (e.g., "http://localhost:8000/sse").
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

// SSETransport implements Transport using the legacy HTTP+SSE protocol:
// a long-lived GET holds the event stream, the server announces a POST
// endpoint via an "endpoint" event, and responses arrive as "message"
// events on the stream. This variant carries no session identifier.
type SSETransport struct {
	config    SSEConfig
	sseClient *http.Client // no timeout - long-lived stream
	rpcClient *http.Client
	logger    zerolog.Logger

	// POST endpoint announced by the server, resolved against the base URL.
	endpointURL string
	endpointCh  chan struct{}

	sseCancel context.CancelFunc
	sseBody   io.ReadCloser

	msgQueue chan []byte
	errChan  chan error

	done   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewSSETransport creates a new legacy HTTP+SSE transport.
func NewSSETransport(config SSEConfig) *SSETransport {
	baseClient := config.Client
	if baseClient == nil {
		baseClient = http.DefaultClient
	}

	return &SSETransport{
		config:     config,
		sseClient:  cloneHTTPClient(baseClient),
		rpcClient:  cloneHTTPClient(baseClient),
		logger:     config.Logger,
		endpointCh: make(chan struct{}),
		msgQueue:   make(chan []byte, 100),
		errChan:    make(chan error, 1),
		done:       make(chan struct{}),
	}
}

// Connect opens the event stream and waits for the server to announce the
// POST endpoint. The transport is not usable for Send until that happens.
func (t *SSETransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.config.URL, nil)
	if err != nil {
		return fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	t.setCommonHeaders(req)

	resp, err := t.sseClient.Do(req)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return fmt.Errorf("open event stream: %s - %s", resp.Status, string(body))
	}

	// Detach the stream from the connect context: the stream outlives
	// Connect and is torn down by Close.
	streamCtx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.sseBody = resp.Body
	t.sseCancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.readStream(streamCtx, resp.Body)

	// Wait for the endpoint announcement before reporting success.
	select {
	case <-t.endpointCh:
		return nil
	case err := <-t.errChan:
		return fmt.Errorf("event stream failed before endpoint announcement: %w", err)
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readStream scans the event stream, dispatching endpoint announcements and
// queuing message events.
func (t *SSETransport) readStream(ctx context.Context, body io.ReadCloser) {
	defer t.wg.Done()

	scanner := newSSEScanner(body, MaxSSEEventSize)
	var endpointOnce sync.Once

	for {
		event, err := scanner.Next()
		if err != nil {
			if err != io.EOF {
				select {
				case t.errChan <- err:
				default:
				}
			}
			return
		}

		switch event.Event {
		case "endpoint":
			ep, err := t.resolveEndpoint(string(event.Data))
			if err != nil {
				select {
				case t.errChan <- err:
				default:
				}
				return
			}
			t.mu.Lock()
			t.endpointURL = ep
			t.mu.Unlock()
			t.logger.Debug().Str("endpoint", ep).Msg("SSE endpoint announced")
			endpointOnce.Do(func() { close(t.endpointCh) })

		case "", "message":
			if len(event.Data) == 0 {
				continue
			}
			if DebugLogging {
				t.logger.Debug().Msgf("SSE Recv: %s", event.Data)
			}
			select {
			case t.msgQueue <- event.Data:
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// resolveEndpoint resolves the announced endpoint (usually a relative path
// like "/messages?sessionId=x") against the base stream URL.
func (t *SSETransport) resolveEndpoint(raw string) (string, error) {
	baseURL, err := url.Parse(t.config.URL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	epURL, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	return baseURL.ResolveReference(epURL).String(), nil
}

// Send posts a JSON-RPC message to the announced endpoint. The response
// arrives asynchronously on the event stream.
func (t *SSETransport) Send(ctx context.Context, msg []byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	endpointURL := t.endpointURL
	t.mu.Unlock()

	if endpointURL == "" {
		return fmt.Errorf("no endpoint announced yet")
	}

	if DebugLogging {
		t.logger.Debug().Msgf("SSE Send: %s", msg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(msg))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	t.setCommonHeaders(req)

	resp, err := t.rpcClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("request failed: %s - %s", resp.Status, string(body))
	}
	return nil
}

// Receive reads the next JSON-RPC message from the event stream.
func (t *SSETransport) Receive(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	t.mu.Unlock()

	select {
	case msg := <-t.msgQueue:
		return msg, nil
	case err := <-t.errChan:
		return nil, err
	case <-t.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the event stream and releases the transport.
func (t *SSETransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	sseCancel := t.sseCancel
	sseBody := t.sseBody
	t.sseBody = nil
	t.mu.Unlock()

	close(t.done)

	if sseCancel != nil {
		sseCancel()
	}
	// Close the stream body to unblock the reader goroutine.
	if sseBody != nil {
		_ = sseBody.Close()
	}

	t.wg.Wait()
	return nil
}

// setCommonHeaders sets headers common to all requests.
func (t *SSETransport) setCommonHeaders(req *http.Request) {
	if t.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.config.BearerToken)
	}
	for k, v := range t.config.HTTPHeaders {
		req.Header.Set(k, v)
	}
}
