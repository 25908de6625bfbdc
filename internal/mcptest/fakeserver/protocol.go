// Package fakeserver provides a scriptable fake MCP server for tests,
// reachable over streamable HTTP or legacy HTTP+SSE.
package fakeserver

import (
	"encoding/json"
	"fmt"
)

// Config controls the fake server's behavior.
type Config struct {
	// Tools to return from tools/list.
	Tools []Tool

	// Per-method forced errors (JSON-RPC error responses).
	Errors map[string]JSONRPCError

	// ToolHandler, when set, handles tools/call.
	ToolHandler ToolHandler

	// EchoToolCalls makes tools/call return the tool name and arguments as
	// a single text content block. Ignored when ToolHandler is set.
	EchoToolCalls bool

	// SendNotificationBeforeResponse sends a noise notification before each
	// response, to exercise response correlation in the client.
	SendNotificationBeforeResponse bool

	// SendMismatchedIDFirst sends a response with a wrong ID before the
	// correct one.
	SendMismatchedIDFirst bool
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"inputSchema,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// rpcRequest is a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// rpcNotification is a JSON-RPC 2.0 notification.
type rpcNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// InitializeResult is the result of the initialize request.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

// ServerInfo describes the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities describes server capabilities.
type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability indicates the server supports tools.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ToolsListResult is the result of tools/list.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// ToolCallParams is the params for tools/call.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolCallResult is the result of tools/call.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a content block in a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolHandler handles a tools/call request. It returns the content blocks,
// the isError flag, and an optional transport-level error.
type ToolHandler func(name string, arguments json.RawMessage) ([]ContentBlock, bool, error)

// respond computes the JSON-RPC response for a request. Notifications
// produce a nil response.
func (cfg Config) respond(req rpcRequest) *rpcResponse {
	if rpcErr, ok := cfg.Errors[req.Method]; ok {
		e := rpcErr
		return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &e}
	}

	switch req.Method {
	case "initialize":
		return makeResponse(req.ID, InitializeResult{
			ProtocolVersion: "2024-11-05",
			ServerInfo:      ServerInfo{Name: "fake-server", Version: "1.0.0"},
			Capabilities:    Capabilities{Tools: &ToolsCapability{}},
		})

	case "tools/list":
		tools := cfg.Tools
		if tools == nil {
			tools = []Tool{}
		}
		return makeResponse(req.ID, ToolsListResult{Tools: tools})

	case "tools/call":
		return cfg.respondToolCall(req)

	case "notifications/initialized":
		return nil

	default:
		return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &JSONRPCError{
			Code: -32601, Message: "Method not found",
		}}
	}
}

func (cfg Config) respondToolCall(req rpcRequest) *rpcResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &JSONRPCError{
			Code: -32602, Message: "Invalid params: " + err.Error(),
		}}
	}

	switch {
	case cfg.ToolHandler != nil:
		content, isError, err := cfg.ToolHandler(params.Name, params.Arguments)
		if err != nil {
			return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &JSONRPCError{
				Code: -32603, Message: err.Error(),
			}}
		}
		return makeResponse(req.ID, ToolCallResult{Content: content, IsError: isError})

	case cfg.EchoToolCalls:
		text := fmt.Sprintf("%s(%s)", params.Name, params.Arguments)
		return makeResponse(req.ID, ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: text}},
		})

	default:
		return makeResponse(req.ID, ToolCallResult{Content: []ContentBlock{}})
	}
}

func makeResponse(id json.RawMessage, result any) *rpcResponse {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return &rpcResponse{JSONRPC: "2.0", ID: id, Error: &JSONRPCError{
			Code: -32603, Message: "Internal error: " + err.Error(),
		}}
	}
	return &rpcResponse{JSONRPC: "2.0", ID: id, Result: resultJSON}
}

// preludes returns the noise messages to emit before a response, per the
// stream-realism options.
func (cfg Config) preludes() [][]byte {
	var out [][]byte
	if cfg.SendNotificationBeforeResponse {
		data, _ := json.Marshal(rpcNotification{JSONRPC: "2.0", Method: "test/noise"})
		out = append(out, data)
	}
	if cfg.SendMismatchedIDFirst {
		data, _ := json.Marshal(rpcResponse{JSONRPC: "2.0", ID: json.RawMessage(`99999`), Result: json.RawMessage(`{}`)})
		out = append(out, data)
	}
	return out
}
