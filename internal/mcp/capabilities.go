// ABOUTME: Capability negotiation state and the per-method capability gate
// ABOUTME: Client-declared capabilities are checked before server-side ones

package mcp

import (
	"encoding/json"
	"strings"
)

// serverCapabilities is the fixed feature set of this server. Only tools
// are advertised on the wire; logging is enabled internally but never
// announced, so logging/setLevel falls through the gate to the dispatch
// table.
type serverCapabilities struct {
	Logging bool
	Tools   bool
}

func defaultServerCapabilities() serverCapabilities {
	return serverCapabilities{Logging: true, Tools: true}
}

func (c serverCapabilities) supports(name string) bool {
	switch name {
	case "logging":
		return c.Logging
	case "tools":
		return c.Tools
	default:
		return false
	}
}

// MCPClientInfo identifies the connected client as sent in initialize.
type MCPClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// clientState holds what the client declared during initialize. A repeat
// initialize replaces it wholesale.
type clientState struct {
	ProtocolVersion string
	Info            MCPClientInfo
	Capabilities    map[string]json.RawMessage
	Initialized     bool
}

// supports reports whether the client declared a capability. Presence of
// the key is what counts; the value is not inspected.
func (c *clientState) supports(name string) bool {
	_, ok := c.Capabilities[name]
	return ok
}

// capabilityDenial reports whether a method is blocked by capability
// negotiation, and with what message. All denials are surfaced as
// method-not-found errors. The tools/ prefix check never fires with the
// default server capabilities, and the method aliases tool/list and
// tool/call sidestep it entirely.
func capabilityDenial(client *clientState, server serverCapabilities, method string) (string, bool) {
	switch method {
	case "sampling/createMessage":
		if !client.supports("sampling") {
			return "Client does not support sampling", true
		}
	case "roots/list":
		if !client.supports("roots") {
			return "Client does not support listing roots", true
		}
	}

	switch {
	case method == "sampling/createMessage":
		if !server.supports("sampling") {
			return "Server does not support sampling", true
		}
	case method == "logging/setLevel":
		if !server.supports("logging") {
			return "Server does not support logging", true
		}
	case strings.HasPrefix(method, "prompts/"):
		if !server.supports("prompts") {
			return "Server does not support prompts", true
		}
	case strings.HasPrefix(method, "tools/"):
		if !server.supports("tools") {
			return "Server does not support tools", true
		}
	}

	return "", false
}
