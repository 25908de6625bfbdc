package mcp

import (
	"errors"
	"fmt"
)

// Session state guard errors.
var (
	// ErrNotReady is returned when a protocol operation is attempted before
	// the initialize handshake has completed.
	ErrNotReady = errors.New("session not ready: initialize must succeed first")
	// ErrClosed is returned when an operation is attempted on a closed
	// session or transport.
	ErrClosed = errors.New("session closed")
)

// UnknownTransportError is a configuration error: the transport kind is not
// one of the recognized variants. It is raised before any network action.
type UnknownTransportError struct {
	Kind string
}

func (e *UnknownTransportError) Error() string {
	return fmt.Sprintf("unknown client transport %q (expected \"http\" or \"sse\")", e.Kind)
}

// RPCError is a JSON-RPC 2.0 error returned by the server.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
