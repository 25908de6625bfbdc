package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the default timeout for RPC calls.
	DefaultTimeout = 30 * time.Second

	// closeTimeout bounds the protocol-level termination during Close.
	closeTimeout = 5 * time.Second

	clientName    = "mcpcall"
	clientVersion = "0.1.0"
)

// SessionState tracks the handshake lifecycle of a Session.
type SessionState int

const (
	// StateNotStarted is the state before Initialize has been called.
	StateNotStarted SessionState = iota
	// StateInitializing is the state while the handshake is in flight.
	StateInitializing
	// StateReady is the state after a successful handshake; tool listing
	// and calls are only valid here.
	StateReady
	// StateClosed is terminal; a closed session must not be reused.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session wraps a Transport in a stateful MCP protocol session: it performs
// the initialize handshake, correlates requests with responses, and exposes
// typed tool operations. A Session owns its transport once created and is
// not reentrant; requests are serialized, one in flight at a time.
type Session struct {
	transport Transport
	logger    zerolog.Logger
	nextID    atomic.Int64

	// callMu serializes wire operations: one in-flight request at a time.
	callMu sync.Mutex

	mu    sync.Mutex
	state SessionState

	// Server info from initialization
	serverName      string
	serverVersion   string
	protocolVersion string
}

// rpcRequest is a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// initializeParams is the params for the initialize request.
type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// initializeResult is the result of the initialize request.
type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    any        `json:"capabilities"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// toolsListResult is the result of tools/list.
type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

// toolCallParams is the params for tools/call.
type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// NewSession creates a session over the given transport. The transport must
// already be connected; the session takes ownership of closing it.
func NewSession(transport Transport, logger zerolog.Logger) *Session {
	return &Session{
		transport: transport,
		logger:    logger,
		state:     StateNotStarted,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ServerInfo returns the server name and version captured at initialize.
func (s *Session) ServerInfo() (name, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverName, s.serverVersion
}

// ProtocolVersion returns the negotiated protocol version.
func (s *Session) ProtocolVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocolVersion
}

// Initialize performs the MCP initialization handshake. It is valid only in
// the not-started state; on success the session becomes ready, on failure it
// reverts so a close can still run cleanly. Protocol versions are tried in
// order of preference until one is accepted.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateNotStarted:
		// proceed
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("initialize: session already %s", state)
	}
	s.state = StateInitializing
	s.mu.Unlock()

	err := s.handshake(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrClosed
	}
	if err != nil {
		s.state = StateNotStarted
		return err
	}
	s.state = StateReady

	s.logger.Info().
		Str("server_name", s.serverName).
		Str("server_version", s.serverVersion).
		Str("protocol_version", s.protocolVersion).
		Msg("session initialized")

	// Only the streamable variant exposes a session identifier; the SSE
	// variant does not, and that asymmetry is expected.
	if sid, ok := s.transport.(SessionIdentifier); ok {
		s.logger.Info().Str("session_id", sid.SessionID()).Msg("streamable HTTP session started")
	}
	return nil
}

func (s *Session) handshake(ctx context.Context) error {
	var lastErr error
	for _, version := range SupportedProtocolVersions {
		params := initializeParams{
			ProtocolVersion: version,
			Capabilities:    map[string]any{},
			ClientInfo: clientInfo{
				Name:    clientName,
				Version: clientVersion,
			},
		}

		var result initializeResult
		err := s.call(ctx, "initialize", params, &result)
		if err != nil {
			if isProtocolVersionError(err) {
				lastErr = err
				continue // Try next version
			}
			return fmt.Errorf("initialize: %w", err)
		}

		s.mu.Lock()
		s.serverName = result.ServerInfo.Name
		s.serverVersion = result.ServerInfo.Version
		s.protocolVersion = version
		s.mu.Unlock()

		if err := s.notify(ctx, "notifications/initialized", nil); err != nil {
			return fmt.Errorf("initialized notification: %w", err)
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("all protocol versions rejected: %w", lastErr)
	}
	return fmt.Errorf("initialize: no protocol versions to try")
}

// isProtocolVersionError checks if an error indicates a protocol version rejection.
func isProtocolVersionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "protocol") && strings.Contains(errStr, "version") ||
		strings.Contains(errStr, "protocolVersion") ||
		strings.Contains(errStr, "unsupported version")
}

// requireReady guards protocol operations that are only valid after a
// successful handshake.
func (s *Session) requireReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady:
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotReady
	}
}

// ListTools retrieves the list of tools from the server. The server-defined
// ordering is preserved as-is.
func (s *Session) ListTools(ctx context.Context) ([]Tool, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	var result toolsListResult
	if err := s.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}
	s.logger.Info().Int("count", len(result.Tools)).Msg("tools listed")
	return result.Tools, nil
}

// ListToolNames is a convenience projection returning only tool names, for
// non-interactive callers.
func (s *Session) ListToolNames(ctx context.Context) ([]string, error) {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names, nil
}

// CallTool invokes a tool by name with the given arguments and returns the
// structured result. It performs no console rendering, so it is usable from
// non-interactive callers as well.
func (s *Session) CallTool(ctx context.Context, name string, arguments map[string]any) (*CallResult, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}

	params := toolCallParams{
		Name:      name,
		Arguments: arguments,
	}

	var result CallResult
	if err := s.call(ctx, "tools/call", params, &result); err != nil {
		s.logger.Error().Err(err).Str("tool", name).Msg("tool call failed")
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}
	return &result, nil
}

// Close shuts down the session. It is idempotent and never fails: the
// protocol layer is terminated first, then the transport is closed, and a
// failure in either step is logged without preventing the other.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	if term, ok := s.transport.(Terminator); ok {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if err := term.Terminate(ctx); err != nil {
			s.logger.Error().Err(err).Msg("error while terminating protocol session")
		}
		cancel()
	}

	if err := s.transport.Close(); err != nil {
		s.logger.Error().Err(err).Msg("error while closing transport")
	}
	s.logger.Info().Msg("session closed")
}

// call makes a JSON-RPC call and waits for the matching response.
func (s *Session) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	id := s.nextID.Add(1)

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	if err := s.transport.Send(ctx, data); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	// Read responses until we get one with matching ID
	// (skip notifications which have no ID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		respData, err := s.transport.Receive(ctx)
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}

		var resp rpcResponse
		if err := json.Unmarshal(respData, &resp); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}

		if resp.ID == 0 {
			// Notification, skip it
			continue
		}
		if resp.ID != id {
			// Response for a different request; shouldn't happen in the
			// sequential model, skip it
			continue
		}

		if resp.Error != nil {
			return resp.Error
		}

		if result != nil && resp.Result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}
}

// notify sends a JSON-RPC notification (no response expected).
func (s *Session) notify(ctx context.Context, method string, params interface{}) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.transport.Send(ctx, data)
}
