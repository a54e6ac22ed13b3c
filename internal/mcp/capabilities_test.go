// ABOUTME: Tests for the capability gate ordering and denial messages
// ABOUTME: Client-declared checks must fire before server-side ones

package mcp

import (
	"encoding/json"
	"testing"
)

func TestCapabilityDenial(t *testing.T) {
	server := defaultServerCapabilities()

	clientWith := func(names ...string) *clientState {
		caps := make(map[string]json.RawMessage, len(names))
		for _, n := range names {
			caps[n] = json.RawMessage(`{}`)
		}
		return &clientState{Capabilities: caps, Initialized: true}
	}

	tests := []struct {
		name    string
		client  *clientState
		method  string
		denied  bool
		message string
	}{
		{"sampling without client support", &clientState{}, "sampling/createMessage", true, "Client does not support sampling"},
		{"sampling with client support hits server refusal", clientWith("sampling"), "sampling/createMessage", true, "Server does not support sampling"},
		{"roots without client support", &clientState{}, "roots/list", true, "Client does not support listing roots"},
		{"roots with client support passes", clientWith("roots"), "roots/list", false, ""},
		{"prompts always refused", clientWith("sampling", "roots"), "prompts/list", true, "Server does not support prompts"},
		{"prompts prefix covers get", &clientState{}, "prompts/get", true, "Server does not support prompts"},
		{"logging setLevel passes the gate", &clientState{}, "logging/setLevel", false, ""},
		{"tools list passes the gate", &clientState{}, "tools/list", false, ""},
		{"tools call passes the gate", &clientState{}, "tools/call", false, ""},
		{"singular tool alias bypasses prefix check", &clientState{}, "tool/call", false, ""},
		{"initialize passes", &clientState{}, "initialize", false, ""},
		{"unknown method passes", &clientState{}, "bogus/method", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, denied := capabilityDenial(tt.client, server, tt.method)
			if denied != tt.denied {
				t.Fatalf("denied = %v, want %v", denied, tt.denied)
			}
			if msg != tt.message {
				t.Errorf("message = %q, want %q", msg, tt.message)
			}
		})
	}
}

func TestCapabilityGateDisabledServerTools(t *testing.T) {
	// A server built without tool support refuses the canonical names but
	// not the singular aliases, which never match the prefix.
	server := serverCapabilities{Logging: true, Tools: false}
	client := &clientState{}

	if msg, denied := capabilityDenial(client, server, "tools/list"); !denied || msg != "Server does not support tools" {
		t.Errorf("tools/list: denied=%v msg=%q", denied, msg)
	}
	if _, denied := capabilityDenial(client, server, "tool/list"); denied {
		t.Error("tool/list should bypass the prefix check")
	}
}

func TestClientStateSupportsPresenceOnly(t *testing.T) {
	c := &clientState{Capabilities: map[string]json.RawMessage{
		"sampling": json.RawMessage(`false`),
	}}

	// The declared value is irrelevant; the key's presence is what counts.
	if !c.supports("sampling") {
		t.Error("declared capability should count regardless of value")
	}
	if c.supports("roots") {
		t.Error("undeclared capability should not count")
	}
}
