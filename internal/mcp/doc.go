// Package mcp implements the Model Context Protocol server for radare2 tool access.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration. This
// package provides an MCP server that exposes radare2 binary analysis to a
// single client (like Claude Desktop or a custom application) over
// stdin/stdout.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0, one message per line: requests arrive on
// stdin, responses leave on stdout, and diagnostics go to stderr so the
// response stream stays clean. Requests without an id are notifications and
// produce no output.
//
// # Tool Discovery
//
// Clients call tools/list to discover available tools:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/list",
//	  "id": 1
//	}
//
// The catalogue covers openFile, closeFile, runCommand, analyze, and
// disassemble, each with a JSON Schema for its arguments. Listings are
// paginated by an offset cursor.
//
// # Tool Execution
//
// Clients call tools/call to execute a tool:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/call",
//	  "params": {
//	    "name": "runCommand",
//	    "arguments": {"command": "iI"}
//	  },
//	  "id": 2
//	}
//
// Execution failures (no file open, open failed) come back as tool results
// with isError set; malformed calls (missing name, missing required
// parameter, unknown tool) are JSON-RPC errors. Clients rely on that
// distinction.
//
// # Architecture
//
// Components:
//
//   - Session: the stdio loop owning all protocol state
//   - Engine: the radare2 backend tools execute against
//   - Recorder: optional invocation history sink
//
// # Usage
//
// Create and run a session:
//
//	session := mcp.NewSession(engine, recorder)
//	err := session.Run(ctx)
//
// Run returns when stdin ends, the client disconnects, or the context is
// canceled.
//
// # Integration with Claude Desktop
//
// Add to Claude Desktop's MCP configuration:
//
//	{
//	  "mcpServers": {
//	    "radare2": {
//	      "command": "r2-mcp"
//	    }
//	  }
//	}
package mcp
