// Package store provides persistent invocation history using SQLite.
//
// # Architecture
//
// The package exposes a single small interface:
//
//   - Store: Record and list tool invocations
//
// SQLiteStore is the only implementation. The MCP session holds the
// store behind its own Recorder interface, so history stays optional:
// when no database path is configured the session simply runs without
// a recorder.
//
// # Data Model
//
// One table, tool_invocations, one row per executed tools/call:
//
//   - ToolInvocation: session ID, tool name, raw arguments JSON,
//     error flag, output size, duration, timestamp
//
// ListInvocations filters by session, tool, or time window and returns
// entries newest first. Limits default to 100 and cap at 1000.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created on open; parent directories of the database
// path are created if needed.
//
// # Testing
//
// Use NewSQLiteStore with a path under t.TempDir(); see setupTestStore
// in the package tests.
package store
