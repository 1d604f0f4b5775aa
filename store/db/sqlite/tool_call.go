package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/erpdesk/store"
)

func (d *DB) CreateToolCall(ctx context.Context, create *store.ToolCall) (*store.ToolCall, error) {
	fields := []string{"agent", "tool_name", "input_json", "output_json", "status", "created_at"}
	args := []any{create.Agent, create.ToolName, create.InputJSON, create.OutputJSON, string(create.Status), create.CreatedAt}

	stmt := `INSERT INTO tool_calls (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create tool_call: %w", err)
	}
	return create, nil
}

func (d *DB) ListToolCalls(ctx context.Context, find *store.FindToolCall) ([]*store.ToolCall, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.Agent != nil {
		where, args = append(where, "agent = "+placeholder(len(args)+1)), append(args, *find.Agent)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*find.Status))
	}

	query := `SELECT id, agent, tool_name, input_json, output_json, status, created_at FROM tool_calls WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool_calls: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ToolCall, 0)
	for rows.Next() {
		tc := &store.ToolCall{}
		var status string
		if err := rows.Scan(&tc.ID, &tc.Agent, &tc.ToolName, &tc.InputJSON, &tc.OutputJSON, &status, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tool_call: %w", err)
		}
		tc.Status = store.ToolCallStatus(status)
		list = append(list, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tool_calls: %w", err)
	}

	return list, nil
}
