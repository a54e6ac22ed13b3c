// ABOUTME: Invocation history methods on SQLiteStore
// ABOUTME: Records every tools/call the session executes for later inspection

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordInvocation appends an invocation to the history.
// Generates ID and CreatedAt if not set.
func (s *SQLiteStore) RecordInvocation(ctx context.Context, inv *ToolInvocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tool_invocations (invocation_id, session_id, tool, arguments_json, is_error, output_len, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		inv.ID,
		inv.SessionID,
		inv.Tool,
		inv.Arguments,
		inv.IsError,
		inv.OutputLen,
		inv.Duration.Milliseconds(),
		inv.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting invocation: %w", err)
	}

	s.logger.Debug("recorded invocation",
		"id", inv.ID,
		"tool", inv.Tool,
		"is_error", inv.IsError,
	)
	return nil
}

// normalizeInvocationLimit applies default (100) and cap (1000) to the limit.
func normalizeInvocationLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

// ListInvocations returns history entries matching the filter, newest first.
func (s *SQLiteStore) ListInvocations(ctx context.Context, f InvocationFilter) ([]*ToolInvocation, error) {
	query := `
		SELECT invocation_id, session_id, tool, arguments_json, is_error, output_len, duration_ms, created_at
		FROM tool_invocations
		WHERE 1=1
	`
	var args []any

	if f.SessionID != nil {
		query += " AND session_id = ?"
		args = append(args, *f.SessionID)
	}
	if f.Tool != nil {
		query += " AND tool = ?"
		args = append(args, *f.Tool)
	}
	if f.Since != nil {
		query += " AND created_at > ?"
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, normalizeInvocationLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %w", err)
	}
	defer rows.Close()

	var entries []*ToolInvocation
	for rows.Next() {
		var inv ToolInvocation
		var durationMS int64
		var createdAt string

		if err := rows.Scan(&inv.ID, &inv.SessionID, &inv.Tool, &inv.Arguments, &inv.IsError, &inv.OutputLen, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}

		inv.Duration = time.Duration(durationMS) * time.Millisecond
		inv.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}

		entries = append(entries, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invocations: %w", err)
	}

	return entries, nil
}
