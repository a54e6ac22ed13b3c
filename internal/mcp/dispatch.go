// ABOUTME: Method routing for decoded requests, capability gate first
// ABOUTME: Unknown and unimplemented methods answer with method-not-found

package mcp

import (
	"context"
	"encoding/json"
)

// dispatch routes one request with an id to its handler and shapes the
// reply. The capability gate runs before the method table, so a gated
// method never reaches its handler. The singular tool/list and tool/call
// aliases are accepted alongside the canonical names.
func (s *Session) dispatch(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	if msg, denied := capabilityDenial(&s.client, s.caps, req.Method); denied {
		return errorResponse(req.ID, codeMethodNotFound, msg)
	}

	switch req.Method {
	case "initialize":
		return successResponse(req.ID, s.handleInitialize(req.Params))
	case "ping":
		return successResponse(req.ID, struct{}{})
	case "resources/templates/list":
		return errorResponse(req.ID, codeMethodNotFound, "Method not implemented: templates are not supported")
	case "resources/list", "resources/read", "resource/read":
		return errorResponse(req.ID, codeMethodNotFound, "Method not implemented: resources are not supported")
	case "resources/subscribe", "resource/subscribe":
		return errorResponse(req.ID, codeMethodNotFound, "Method not implemented: subscriptions are not supported")
	case "tools/list", "tool/list":
		return successResponse(req.ID, listTools(req.Params))
	case "tools/call", "tool/call":
		result, rpcErr := s.callTool(ctx, req.Params)
		if rpcErr != nil {
			return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
		}
		return successResponse(req.ID, result)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Unknown method")
	}
}

// handleInitialize records what the client declared and answers with the
// fixed server identity. A repeat initialize replaces the declared state
// wholesale, without complaint.
func (s *Session) handleInitialize(params json.RawMessage) *MCPInitializeResult {
	var p struct {
		ProtocolVersion string                     `json:"protocolVersion"`
		Capabilities    map[string]json.RawMessage `json:"capabilities"`
		ClientInfo      MCPClientInfo              `json:"clientInfo"`
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params, &p)
	}

	if s.client.Initialized {
		s.logger.Debug("client reinitialized, replacing declared capabilities")
	}
	s.client = clientState{
		ProtocolVersion: p.ProtocolVersion,
		Info:            p.ClientInfo,
		Capabilities:    p.Capabilities,
		Initialized:     true,
	}

	s.logger.Info("session initialized",
		"client", p.ClientInfo.Name,
		"client_version", p.ClientInfo.Version,
		"protocol_version", p.ProtocolVersion)

	return &MCPInitializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      MCPServerInfo{Name: serverName, Version: serverVersion},
		Capabilities:    MCPCapabilities{},
		Instructions:    serverInstructions,
	}
}
