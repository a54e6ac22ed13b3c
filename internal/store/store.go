// ABOUTME: Store interface and data types for r2-mcp persistence
// ABOUTME: Defines ToolInvocation and the Store interface for history operations

package store

import (
	"context"
	"time"
)

// ToolInvocation represents a single executed tools/call.
type ToolInvocation struct {
	ID        string        // UUID v4
	SessionID string        // session that executed the call
	Tool      string        // tool name (openFile, runCommand, ...)
	Arguments string        // raw arguments JSON
	IsError   bool          // tool-level failure flag from the result
	OutputLen int           // size of the textual result in bytes
	Duration  time.Duration // wall time of the invocation
	CreatedAt time.Time     // when it happened
}

// InvocationFilter specifies filtering options for listing invocations.
type InvocationFilter struct {
	SessionID *string    // filter by session
	Tool      *string    // filter by tool name
	Since     *time.Time // entries after this time
	Limit     int        // max results (default 100, max 1000)
}

// Store defines the interface for invocation history persistence
type Store interface {
	RecordInvocation(ctx context.Context, inv *ToolInvocation) error
	ListInvocations(ctx context.Context, filter InvocationFilter) ([]*ToolInvocation, error)

	// Close releases any resources held by the store
	Close() error
}
