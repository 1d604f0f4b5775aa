// Package analytics answers cash flow and customer spend questions.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/store"
)

type Store interface {
	ListCashFlow(ctx context.Context, since int64) ([]*store.CashFlowDay, error)
	ListCustomerSpend(ctx context.Context) ([]*store.CustomerSpend, error)
}

const (
	cashFlowWindow = 7 * 24 * time.Hour

	notRecognizedText = "Analytics query not recognized. Try asking about cash flow, customer spend, or KPIs."
	writeRejectedText = "Write operations are not supported for analytics."
)

type Agent struct {
	store Store
	now   func() time.Time
}

func New(s Store) *Agent {
	return &Agent{store: s, now: time.Now}
}

func (*Agent) Module() agent.Module {
	return agent.ModuleAnalytics
}

func (a *Agent) ProcessRequest(ctx context.Context, text string) (agent.Result, error) {
	normalized := agent.NormalizeText(text)
	switch {
	case strings.Contains(normalized, "cash flow"):
		return a.cashFlow(ctx)
	case strings.Contains(normalized, "analytics report"), strings.Contains(normalized, "customer spend"):
		return a.customerSpend(ctx)
	default:
		return agent.Text(notRecognizedText), nil
	}
}

// Write never mutates anything.
func (*Agent) Write(_ context.Context, _ string) (agent.Result, error) {
	return agent.Text(writeRejectedText), nil
}

func (a *Agent) cashFlow(ctx context.Context) (agent.Result, error) {
	days, err := a.store.ListCashFlow(ctx, a.now().Add(-cashFlowWindow).Unix())
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to list cash flow: %w", err)
	}
	rows := make([][]any, 0, len(days))
	for _, d := range days {
		rows = append(rows, []any{d.Date, d.TotalInvoiced.StringFixed(2), d.TotalPaid.StringFixed(2)})
	}
	return agent.Table([]string{"date", "total_invoiced", "total_paid"}, rows), nil
}

func (a *Agent) customerSpend(ctx context.Context) (agent.Result, error) {
	spend, err := a.store.ListCustomerSpend(ctx)
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to list customer spend: %w", err)
	}
	rows := make([][]any, 0, len(spend))
	for _, s := range spend {
		rows = append(rows, []any{s.CustomerID, s.TotalSpent.StringFixed(2)})
	}
	return agent.Table([]string{"customer_id", "total_spent"}, rows), nil
}
