// Package config handles configuration loading for r2-mcp.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults. A missing config file
// is normal (the server is usually spawned by an MCP client) and yields the
// default configuration.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from R2MCP_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/r2mcp/config.yaml
//  3. ~/.config/r2mcp/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	history:
//	  path: "${XDG_DATA_HOME}/r2mcp/history.db"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	engine:
//	  init_timeout: "10s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Logging:
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "color"  # color, text, json
//
// Analysis engine:
//
//	engine:
//	  binary: "radare2"    # radare2 executable to spawn
//	  init_timeout: "10s"  # startup handshake deadline
//	  relocs_apply: true   # e bin.relocs.apply on open
//	  bin_cache: true      # e bin.cache on open
//
// Invocation history (empty path disables recording):
//
//	history:
//	  path: "/var/lib/r2mcp/history.db"
//
// # Validation
//
// Load() validates:
//
//   - Logging level and format values
//   - Engine binary presence
//   - Duration format validity
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
