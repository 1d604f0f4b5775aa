// Package inventory reports stock levels and manages purchase orders.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/store"
)

type Store interface {
	ListStockLevels(ctx context.Context) ([]*store.StockLevel, error)
	CreatePurchaseOrder(ctx context.Context, create *store.PurchaseOrder) (*store.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, receive *store.ReceivePurchaseOrder) error
}

const poStatusDraft = "draft"

var (
	createPOPattern  = regexp.MustCompile(`\b(?:purchase order|po)\b.*?\bsupplier\s+#?(\d+).*?\btotal\s+([\d,]+(?:\.\d+)?)`)
	receivePOPattern = regexp.MustCompile(`\breceive\s+(?:po|purchase order)\s+#?(\d+)\s+product\s+#?(\d+)\s+qty\s+([\d,]+(?:\.\d+)?)`)
)

var stockHeaders = []string{"Product ID", "Qty On Hand", "Reorder Point"}

type Agent struct {
	store Store
	now   func() time.Time
}

func New(s Store) *Agent {
	return &Agent{store: s, now: time.Now}
}

func (*Agent) Module() agent.Module {
	return agent.ModuleInventory
}

func (a *Agent) ProcessRequest(ctx context.Context, _ string) (agent.Result, error) {
	levels, err := a.store.ListStockLevels(ctx)
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to list stock levels: %w", err)
	}
	rows := make([][]any, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []any{l.ProductID, l.QtyOnHand.String(), l.ReorderPoint.String()})
	}
	return agent.Table(stockHeaders, rows), nil
}

// writeRequest is an inventory write split by the same grammar Write dispatches on.
type writeRequest struct {
	operation string
	match     []string
}

// parseWrite tries the receipt grammar first; anything else that fits the purchase
// order grammar is a new order, whatever other words it contains.
func parseWrite(normalized string) (writeRequest, bool) {
	if m := receivePOPattern.FindStringSubmatch(normalized); m != nil {
		return writeRequest{operation: agent.OperationReceivePO, match: m}, true
	}
	if m := createPOPattern.FindStringSubmatch(normalized); m != nil {
		return writeRequest{operation: agent.OperationCreatePO, match: m}, true
	}
	return writeRequest{}, false
}

// ParseWrite reports the operation Write would perform for text. The amount is the
// order total for a new purchase order and the received quantity for a receipt.
func ParseWrite(text string) (agent.WriteIntent, bool) {
	req, ok := parseWrite(agent.NormalizeText(text))
	if !ok {
		return agent.WriteIntent{}, false
	}
	raw := req.match[2]
	if req.operation == agent.OperationReceivePO {
		raw = req.match[3]
	}
	intent := agent.WriteIntent{Operation: req.operation}
	if amount, err := agent.ParseAmount(raw); err == nil {
		intent.Amount = amount
	}
	return intent, true
}

func (a *Agent) Write(ctx context.Context, text string) (agent.Result, error) {
	req, ok := parseWrite(agent.NormalizeText(text))
	if !ok {
		return agent.Error("Could not parse inventory request. Try: create purchase order supplier <id> total <amount> or receive po <id> product <id> qty <n>"), nil
	}
	if req.operation == agent.OperationReceivePO {
		return a.receivePO(ctx, req.match[1], req.match[2], req.match[3])
	}
	return a.createPO(ctx, req.match[1], req.match[2])
}

func (a *Agent) createPO(ctx context.Context, rawSupplier, rawTotal string) (agent.Result, error) {
	supplierID, err := parseID(rawSupplier)
	if err != nil {
		return agent.Error(fmt.Sprintf("Invalid supplier id %q.", rawSupplier)), nil
	}
	total, err := agent.ParseAmount(rawTotal)
	if err != nil || !total.IsPositive() {
		return agent.Error(fmt.Sprintf("Invalid purchase order total %q.", rawTotal)), nil
	}

	po, err := a.store.CreatePurchaseOrder(ctx, &store.PurchaseOrder{
		SupplierID: supplierID,
		Total:      total,
		Status:     poStatusDraft,
		CreatedAt:  a.now().Unix(),
	})
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to create purchase order: %w", err)
	}
	return agent.Text(fmt.Sprintf("Purchase order #%d created for supplier %d (total %s, status %s).",
		po.ID, po.SupplierID, po.Total.StringFixed(2), po.Status)), nil
}

func (a *Agent) receivePO(ctx context.Context, rawPO, rawProduct, rawQty string) (agent.Result, error) {
	poID, err := parseID(rawPO)
	if err != nil {
		return agent.Error(fmt.Sprintf("Invalid purchase order id %q.", rawPO)), nil
	}
	productID, err := parseID(rawProduct)
	if err != nil {
		return agent.Error(fmt.Sprintf("Invalid product id %q.", rawProduct)), nil
	}
	qty, err := agent.ParseAmount(rawQty)
	if err != nil || !qty.IsPositive() {
		return agent.Error(fmt.Sprintf("Invalid quantity %q.", rawQty)), nil
	}

	err = a.store.ReceivePurchaseOrder(ctx, &store.ReceivePurchaseOrder{
		POID:        poID,
		ProductID:   productID,
		ReceivedQty: qty,
		ReceivedAt:  a.now().Unix(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return agent.Error(fmt.Sprintf("Purchase order #%d not found.", poID)), nil
	}
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to receive purchase order: %w", err)
	}
	return agent.Text(fmt.Sprintf("Received %s of product %d against purchase order #%d.", qty.String(), productID, poID)), nil
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return int32(id), nil
}
