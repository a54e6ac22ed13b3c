// ABOUTME: Tool invocation handling for tools/call
// ABOUTME: Missing parameters are protocol errors; execution failures are tool results

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2389/r2-mcp/internal/store"
)

const noFileOpenText = "No file is currently open. Please open a file first."

// toolArgs is a decoded arguments object. A nil map stands in for absent
// or undecodable arguments, and lookups on it simply miss.
type toolArgs map[string]json.RawMessage

func decodeToolArgs(raw json.RawMessage) toolArgs {
	if len(raw) == 0 {
		return nil
	}
	var args toolArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil
	}
	return args
}

// stringField returns a string-typed argument. Absent keys, null, and
// non-string values all count as missing.
func (a toolArgs) stringField(key string) (string, bool) {
	return decodeString(a[key])
}

// intField returns an integer-typed argument. Only JSON integers count;
// floats, exponent forms, strings, and null are treated as missing.
func (a toolArgs) intField(key string) (int, bool) {
	raw, ok := a[key]
	if !ok {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, false
	}
	s := num.String()
	if s == "" || strings.ContainsAny(s, ".eE") {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// callTool executes one tools/call request. The returned protocol error is
// non-nil for malformed calls (missing name, missing required parameter,
// unknown tool); everything that actually runs a tool comes back as a
// result, with IsError marking execution failure. Executed calls are
// recorded to the history store when one is configured.
func (s *Session) callTool(ctx context.Context, params json.RawMessage) (*MCPCallToolResult, *JSONRPCError) {
	var call struct {
		Name      json.RawMessage `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params, &call)
	}

	name, ok := decodeString(call.Name)
	if !ok {
		return nil, &JSONRPCError{Code: codeInvalidParams, Message: "Missing required parameter: name"}
	}

	args := decodeToolArgs(call.Arguments)

	started := time.Now()
	result, rpcErr := s.runTool(name, args)
	if rpcErr != nil {
		return nil, rpcErr
	}

	s.recordInvocation(ctx, name, call.Arguments, result, time.Since(started))
	return result, nil
}

// runTool dispatches to the named tool. The file-open requirement applies
// only to the tools that operate on the open file, and is checked before
// their own parameter validation. An empty name is not a missing name; it
// falls through to the unknown-tool error like any other unrecognized
// string.
func (s *Session) runTool(name string, args toolArgs) (*MCPCallToolResult, *JSONRPCError) {
	switch name {
	case "openFile":
		path, ok := args.stringField("filePath")
		if !ok {
			return nil, &JSONRPCError{Code: codeInvalidParams, Message: "Missing required parameter: filePath"}
		}
		return s.openFile(path), nil

	case "closeFile":
		return s.closeFile(), nil
	}

	if !s.fileOpen && (name == "runCommand" || name == "analyze" || name == "disassemble") {
		return errorResult(noFileOpenText), nil
	}

	switch name {
	case "runCommand":
		command, ok := args.stringField("command")
		if !ok {
			return nil, &JSONRPCError{Code: codeInvalidParams, Message: "Missing required parameter: command"}
		}
		output, err := s.engine.Cmd(command)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(output), nil

	case "analyze":
		level, ok := args.stringField("level")
		if !ok {
			level = "aaa"
		}
		if err := s.engine.AnalyzeLevel(level); err != nil {
			s.logger.Warn("analysis failed", "level", level, "error", err)
		}
		listing, err := s.engine.Cmd("afl")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(fmt.Sprintf("Analysis completed with level %s.\n\n%s", level, listing)), nil

	case "disassemble":
		address, ok := args.stringField("address")
		if !ok {
			return nil, &JSONRPCError{Code: codeInvalidParams, Message: "Missing required parameter: address"}
		}
		count, ok := args.intField("numInstructions")
		if !ok {
			count = 10
		}
		output, err := s.engine.Cmd(fmt.Sprintf("pd %d @ %s", count, address))
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(output), nil
	}

	return nil, &JSONRPCError{Code: codeInvalidParams, Message: "Unknown tool: " + name}
}

func (s *Session) openFile(path string) *MCPCallToolResult {
	if err := s.engine.Open(path); err != nil {
		s.logger.Warn("open failed", "path", path, "error", err)
		s.fileOpen = false
		s.currentFile = ""
		return errorResult("Failed to open file.")
	}
	s.fileOpen = true
	s.currentFile = path
	return textResult("File opened successfully.")
}

func (s *Session) closeFile() *MCPCallToolResult {
	if !s.fileOpen {
		return textResult("No file was open.")
	}
	if err := s.engine.CloseAll(); err != nil {
		s.logger.Warn("close failed", "path", s.currentFile, "error", err)
	}
	s.fileOpen = false
	s.currentFile = ""
	return textResult("File closed successfully.")
}

// recordInvocation writes one history row. Store failures are logged and
// never surfaced to the client.
func (s *Session) recordInvocation(ctx context.Context, tool string, rawArgs json.RawMessage, result *MCPCallToolResult, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}

	outputLen := 0
	for _, c := range result.Content {
		outputLen += len(c.Text)
	}

	inv := &store.ToolInvocation{
		SessionID: s.id,
		Tool:      tool,
		Arguments: string(rawArgs),
		IsError:   result.IsError,
		OutputLen: outputLen,
		Duration:  elapsed,
	}
	if err := s.recorder.RecordInvocation(ctx, inv); err != nil {
		s.logger.Warn("failed to record invocation", "tool", tool, "error", err)
	}
}
