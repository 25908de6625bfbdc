// Package mcp implements the client side of the MCP protocol: transport
// variants, the session state machine, and typed protocol operations.
package mcp

import (
	"context"
	"encoding/json"
)

// DebugLogging enables verbose payload logging (MCP Send/Recv messages).
var DebugLogging bool

// Transport is the interface for MCP transports.
type Transport interface {
	// Connect prepares the transport for use.
	Connect(ctx context.Context) error
	// Send sends a JSON-RPC message.
	Send(ctx context.Context, msg []byte) error
	// Receive reads the next JSON-RPC message.
	Receive(ctx context.Context) ([]byte, error)
	// Close closes the transport.
	Close() error
}

// SessionIdentifier is implemented by transports that carry a server-assigned
// session ID. Only the streamable HTTP variant does; the SSE variant has no
// session identifier, which is part of the contract between the two kinds.
type SessionIdentifier interface {
	SessionID() string
}

// Terminator is implemented by transports with an explicit protocol-level
// session termination step, performed before the connection is closed.
type Terminator interface {
	Terminate(ctx context.Context) error
}

// TransportKind selects one of the two supported transport variants.
type TransportKind int

const (
	// TransportStreamable is the streamable HTTP transport (config "http").
	// It exposes a session identifier and supports session termination.
	TransportStreamable TransportKind = iota
	// TransportSSE is the legacy HTTP+SSE transport (config "sse").
	// It has no session identifier.
	TransportSSE
)

// String returns the configuration spelling of the kind.
func (k TransportKind) String() string {
	switch k {
	case TransportStreamable:
		return "http"
	case TransportSSE:
		return "sse"
	default:
		return "unknown"
	}
}

// ParseTransportKind maps a configuration value to a TransportKind.
// Exactly "http" and "sse" are recognized; anything else is a configuration
// error, raised before any network activity.
func ParseTransportKind(s string) (TransportKind, error) {
	switch s {
	case "http":
		return TransportStreamable, nil
	case "sse":
		return TransportSSE, nil
	default:
		return 0, &UnknownTransportError{Kind: s}
	}
}

// Tool represents an MCP tool definition as returned by tools/list.
// The input schema is kept raw; the interactive layer interprets it.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// CallResult represents the result of a tool call. Content blocks are kept
// raw to preserve all fields from the server, including non-text content
// types; this layer only needs the result to be serializable for display.
type CallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a content block in a tool result.
type ContentBlock json.RawMessage

// MarshalJSON implements json.Marshaler.
func (c ContentBlock) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(c), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ContentBlock) UnmarshalJSON(data []byte) error {
	*c = ContentBlock(data)
	return nil
}
