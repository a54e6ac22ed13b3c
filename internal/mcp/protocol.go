// ABOUTME: JSON-RPC 2.0 envelope codec and MCP wire types for the stdio dialect
// ABOUTME: Covers request id coercion, decode failure tiers, and response shaping

package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Protocol revision advertised in initialize results.
const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Decode failures come in two tiers. Malformed lines are logged and dropped
// by the session loop; an invalid request (missing or non-string method)
// earns a -32600 reply when the request carried an id.
var (
	errMalformed      = errors.New("malformed message")
	errInvalidRequest = errors.New("missing method")
)

// RequestID holds a JSON-RPC request id. Only string and integer ids are
// honored; any other JSON type is treated as absent, which makes the
// request a notification for reply purposes.
type RequestID struct {
	raw json.RawMessage
}

// Present reports whether the request carried a usable id.
func (id RequestID) Present() bool {
	return id.raw != nil
}

func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.raw == nil {
		return []byte("null"), nil
	}
	return id.raw, nil
}

func (id *RequestID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		id.raw = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.raw = append(json.RawMessage(nil), data...)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil && n.String() != "" && !strings.ContainsAny(n.String(), ".eE") {
		id.raw = json.RawMessage(n.String())
		return nil
	}

	id.raw = nil
	return nil
}

// String renders the id for log records.
func (id RequestID) String() string {
	if id.raw == nil {
		return "<none>"
	}
	return string(id.raw)
}

// JSONRPCRequest is a decoded request envelope.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is an outgoing response envelope. Exactly one of Result
// and Error is set.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      RequestID     `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// decodeRequest parses one framed line into a request. Method presence and
// type are checked here so the session loop can pick the right error tier;
// the id is decoded even when the method is unusable so an error reply can
// still be correlated.
func decodeRequest(line []byte) (*JSONRPCRequest, error) {
	var wire struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      RequestID       `json:"id"`
		Method  json.RawMessage `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(line, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	req := &JSONRPCRequest{
		JSONRPC: wire.JSONRPC,
		ID:      wire.ID,
		Params:  wire.Params,
	}

	method, ok := decodeString(wire.Method)
	if !ok {
		return req, errInvalidRequest
	}
	req.Method = method

	return req, nil
}

// decodeString reads a raw JSON value as a string. Absent values, JSON
// null, and non-string types all count as missing.
func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func successResponse(id RequestID, result any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func errorResponse(id RequestID, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

// MCPServerInfo identifies the server in initialize results.
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPCapabilities is the advertised server capability set. Only tool
// support is announced on the wire.
type MCPCapabilities struct {
	Tools struct{} `json:"tools"`
}

// MCPInitializeResult is the result payload for initialize.
type MCPInitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	ServerInfo      MCPServerInfo   `json:"serverInfo"`
	Capabilities    MCPCapabilities `json:"capabilities"`
	Instructions    string          `json:"instructions,omitempty"`
}

// MCPToolInfo describes a callable tool in tools/list results.
type MCPToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// MCPListToolsResult is the result payload for tools/list.
type MCPListToolsResult struct {
	Tools      []MCPToolInfo `json:"tools"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// MCPCallToolParams are the parameters for tools/call.
type MCPCallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MCPCallToolResult is a tool execution result. IsError marks tool-level
// failure; protocol-level failures use JSONRPCError instead.
type MCPCallToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// MCPContent is one content block inside a tool result. Text is emitted
// even when empty; clients type it as a required field.
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// textResult wraps plain text as a successful tool result.
func textResult(text string) *MCPCallToolResult {
	return &MCPCallToolResult{
		Content: []MCPContent{{Type: "text", Text: text}},
	}
}

// errorResult wraps plain text as a tool-level failure.
func errorResult(text string) *MCPCallToolResult {
	return &MCPCallToolResult{
		Content: []MCPContent{{Type: "text", Text: text}},
		IsError: true,
	}
}
