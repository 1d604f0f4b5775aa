package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/erpdesk/store"
)

const approvalColumns = `id, module, payload_json, status, requested_by, decided_by, created_at, decided_at`

func (d *DB) CreateApproval(ctx context.Context, create *store.Approval) (*store.Approval, error) {
	fields := []string{"module", "payload_json", "status", "requested_by", "created_at"}
	args := []any{create.Module, create.PayloadJSON, string(create.Status), create.RequestedBy, create.CreatedAt}

	stmt := `INSERT INTO approvals (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create approval: %w", err)
	}
	return create, nil
}

func (d *DB) ListApprovals(ctx context.Context, find *store.FindApproval) ([]*store.Approval, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*find.Status))
	}

	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Approval, 0)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approvals: %w", err)
	}

	return list, nil
}

func (d *DB) DecideApproval(ctx context.Context, decide *store.DecideApproval) (*store.Approval, bool, error) {
	stmt := `UPDATE approvals SET status = ` + placeholder(1) + `, decided_by = ` + placeholder(2) + `, decided_at = ` + placeholder(3) +
		` WHERE id = ` + placeholder(4) + ` AND status = 'pending' RETURNING ` + approvalColumns
	row := d.db.QueryRowContext(ctx, stmt, string(decide.Status), decide.DecidedBy, decide.DecidedAt, decide.ID)
	approval, err := scanApproval(row)
	if err == nil {
		return approval, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// Nothing was updated: either the row is missing or it was already decided.
	row = d.db.QueryRowContext(ctx, `SELECT `+approvalColumns+` FROM approvals WHERE id = `+placeholder(1), decide.ID)
	existing, err := scanApproval(row)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(row rowScanner) (*store.Approval, error) {
	a := &store.Approval{}
	var (
		status    string
		decidedBy sql.NullString
		decidedAt sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.Module, &a.PayloadJSON, &status, &a.RequestedBy, &decidedBy, &a.CreatedAt, &decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan approval: %w", err)
	}
	a.Status = store.ApprovalStatus(status)
	if decidedBy.Valid {
		a.DecidedBy = &decidedBy.String
	}
	if decidedAt.Valid {
		a.DecidedAt = &decidedAt.Int64
	}
	return a, nil
}
