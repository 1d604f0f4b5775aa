package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/erpdesk/store"
)

func (d *DB) CreateCustomer(ctx context.Context, create *store.Customer) (*store.Customer, error) {
	stmt := `INSERT INTO customers (name, email, phone) VALUES (` + placeholders(3) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.Name, create.Email, create.Phone).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return create, nil
}

func (d *DB) ListCustomers(ctx context.Context) ([]*store.Customer, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, name, email, phone FROM customers ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Customer, 0)
	for rows.Next() {
		c := &store.Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return list, nil
}

func (d *DB) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

func (d *DB) CreateLead(ctx context.Context, create *store.Lead) (*store.Lead, error) {
	fields := []string{"customer_name", "contact_email", "message", "status", "created_at"}
	args := []any{create.CustomerName, create.ContactEmail, create.Message, create.Status, create.CreatedAt}

	stmt := `INSERT INTO leads (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return create, nil
}

func (d *DB) CreateInvoice(ctx context.Context, create *store.Invoice) (*store.Invoice, error) {
	fields := []string{"customer_id", "invoice_number", "issue_date", "due_date", "total_amount", "status", "created_at"}
	args := []any{create.CustomerID, create.InvoiceNumber, create.IssueDate, create.DueDate, create.TotalAmount, string(create.Status), create.CreatedAt}

	stmt := `INSERT INTO invoices (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return create, nil
}

func (d *DB) ListInvoices(ctx context.Context, find *store.FindInvoice) ([]*store.Invoice, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.Status != nil {
		where, args = append(where, "i.status = "+placeholder(len(args)+1)), append(args, string(*find.Status))
	}
	if find.CustomerName != nil {
		where, args = append(where, "LOWER(c.name) = LOWER("+placeholder(len(args)+1)+")"), append(args, *find.CustomerName)
	}

	query := `SELECT i.id, i.customer_id, COALESCE(c.name, ''), i.invoice_number, i.issue_date, i.due_date, i.total_amount, i.status, i.created_at
		FROM invoices i LEFT JOIN customers c ON c.id = i.customer_id
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY i.issue_date DESC, i.id DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Invoice, 0)
	for rows.Next() {
		inv := &store.Invoice{}
		var status string
		if err := rows.Scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate, &inv.TotalAmount, &status, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.Status = store.InvoiceStatus(status)
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return list, nil
}

func (d *DB) CreatePayment(ctx context.Context, create *store.Payment) (*store.Payment, error) {
	stmt := `INSERT INTO payments (customer_id, amount, method, received_at) VALUES (` + placeholders(4) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.CustomerID, create.Amount, create.Method, create.ReceivedAt).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return create, nil
}

func (d *DB) UpsertStockLevel(ctx context.Context, upsert *store.StockLevel) (*store.StockLevel, error) {
	stmt := `INSERT INTO stock (product_id, qty_on_hand, reorder_point) VALUES (` + placeholders(3) + `)
		ON CONFLICT (product_id) DO UPDATE SET qty_on_hand = EXCLUDED.qty_on_hand, reorder_point = EXCLUDED.reorder_point`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.ProductID, upsert.QtyOnHand, upsert.ReorderPoint); err != nil {
		return nil, fmt.Errorf("failed to upsert stock level: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListStockLevels(ctx context.Context) ([]*store.StockLevel, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT product_id, qty_on_hand, reorder_point FROM stock ORDER BY product_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock levels: %w", err)
	}
	defer rows.Close()

	list := make([]*store.StockLevel, 0)
	for rows.Next() {
		s := &store.StockLevel{}
		if err := rows.Scan(&s.ProductID, &s.QtyOnHand, &s.ReorderPoint); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock levels: %w", err)
	}
	return list, nil
}

func (d *DB) CreatePurchaseOrder(ctx context.Context, create *store.PurchaseOrder) (*store.PurchaseOrder, error) {
	stmt := `INSERT INTO purchase_orders (supplier_id, total, status, created_at) VALUES (` + placeholders(4) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.SupplierID, create.Total, create.Status, create.CreatedAt).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create purchase order: %w", err)
	}
	return create, nil
}

func (d *DB) ReceivePurchaseOrder(ctx context.Context, receive *store.ReceivePurchaseOrder) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM purchase_orders WHERE id = `+placeholder(1), receive.POID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("purchase order %d not found: %w", receive.POID, err)
		}
		return fmt.Errorf("failed to load purchase order: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO po_receipts (po_id, product_id, received_qty, received_at) VALUES (`+placeholders(4)+`)`,
		receive.POID, receive.ProductID, receive.ReceivedQty, receive.ReceivedAt); err != nil {
		return fmt.Errorf("failed to record receipt: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO stock (product_id, qty_on_hand, reorder_point) VALUES (`+placeholders(2)+`, 0)
		ON CONFLICT (product_id) DO UPDATE SET qty_on_hand = stock.qty_on_hand + EXCLUDED.qty_on_hand`,
		receive.ProductID, receive.ReceivedQty); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO stock_movements (product_id, change_qty, reason, ref_id, created_at) VALUES (`+placeholders(5)+`)`,
		receive.ProductID, receive.ReceivedQty, "purchase", receive.POID, receive.ReceivedAt); err != nil {
		return fmt.Errorf("failed to log stock movement: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE purchase_orders SET status = 'received' WHERE id = `+placeholder(1), receive.POID); err != nil {
		return fmt.Errorf("failed to update purchase order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipt: %w", err)
	}
	return nil
}

func (d *DB) ListCashFlow(ctx context.Context, since int64) ([]*store.CashFlowDay, error) {
	query := `SELECT date(created_at, 'unixepoch') AS day,
			SUM(CASE WHEN status = 'unpaid' THEN total_amount ELSE 0 END),
			SUM(CASE WHEN status = 'paid' THEN total_amount ELSE 0 END)
		FROM invoices WHERE created_at >= ` + placeholder(1) + `
		GROUP BY day ORDER BY day ASC`
	rows, err := d.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash flow: %w", err)
	}
	defer rows.Close()

	list := make([]*store.CashFlowDay, 0)
	for rows.Next() {
		day := &store.CashFlowDay{}
		if err := rows.Scan(&day.Date, &day.TotalInvoiced, &day.TotalPaid); err != nil {
			return nil, fmt.Errorf("failed to scan cash flow: %w", err)
		}
		list = append(list, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cash flow: %w", err)
	}
	return list, nil
}

func (d *DB) ListCustomerSpend(ctx context.Context) ([]*store.CustomerSpend, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT customer_id, SUM(total_amount) AS total_spent FROM invoices GROUP BY customer_id ORDER BY total_spent DESC, customer_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer spend: %w", err)
	}
	defer rows.Close()

	list := make([]*store.CustomerSpend, 0)
	for rows.Next() {
		cs := &store.CustomerSpend{}
		if err := rows.Scan(&cs.CustomerID, &cs.TotalSpent); err != nil {
			return nil, fmt.Errorf("failed to scan customer spend: %w", err)
		}
		list = append(list, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customer spend: %w", err)
	}
	return list, nil
}
