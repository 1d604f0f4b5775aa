// Package finance lists invoices and records invoices and payments.
package finance

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/store"
)

type Store interface {
	ListInvoices(ctx context.Context, find *store.FindInvoice) ([]*store.Invoice, error)
	CreateInvoice(ctx context.Context, create *store.Invoice) (*store.Invoice, error)
	CreatePayment(ctx context.Context, create *store.Payment) (*store.Payment, error)
}

const (
	invoiceTerm   = 30 * 24 * time.Hour
	paymentMethod = "bank_transfer"
	dateLayout    = "2006-01-02"
)

var (
	customerNamePattern = regexp.MustCompile(`\bfor\s+(?:customer\s+)?([^?!.]+)`)
	timePhrasePattern   = regexp.MustCompile(`^(?:this|last|next|the past|past)\s+(?:\d+\s+)?(?:day|week|month|quarter|year)s?$|^(?:today|yesterday|tomorrow)$`)
	invoicePattern      = regexp.MustCompile(`(?i)\binvoice\b.*?\bfor\s+([\d,]+(?:\.\d+)?)(?:.*?\bcustomer\s+#?(\d+))?`)
	paymentPattern      = regexp.MustCompile(`(?i)\bpayments?\b\D*?([\d,]+(?:\.\d+)?)(?:.*?\bcustomer\s+#?(\d+))?`)
)

var invoiceHeaders = []string{"Invoice #", "Customer", "Amount", "Status", "Due Date"}

type Agent struct {
	store Store
	now   func() time.Time
}

func New(s Store) *Agent {
	return &Agent{store: s, now: time.Now}
}

func (*Agent) Module() agent.Module {
	return agent.ModuleFinance
}

func (a *Agent) ProcessRequest(ctx context.Context, text string) (agent.Result, error) {
	invoices, err := a.store.ListInvoices(ctx, parseInvoiceFilter(text))
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to list invoices: %w", err)
	}
	rows := make([][]any, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []any{
			inv.InvoiceNumber,
			inv.CustomerName,
			inv.TotalAmount.StringFixed(2),
			string(inv.Status),
			time.Unix(inv.DueDate, 0).UTC().Format(dateLayout),
		})
	}
	return agent.Table(invoiceHeaders, rows), nil
}

// parseInvoiceFilter reads an optional status word and an optional "for [customer] <name>"
// clause. Time phrases such as "for this month" are not customer names.
func parseInvoiceFilter(text string) *store.FindInvoice {
	find := &store.FindInvoice{}
	normalized := agent.NormalizeText(text)
	words := " " + normalized + " "

	var status store.InvoiceStatus
	switch {
	case strings.Contains(words, " unpaid "):
		status = store.InvoiceStatusUnpaid
	case strings.Contains(words, " paid "):
		status = store.InvoiceStatusPaid
	case strings.Contains(words, " cancelled "), strings.Contains(words, " canceled "):
		status = store.InvoiceStatusCancelled
	}
	if status != "" {
		find.Status = &status
	}

	if m := customerNamePattern.FindStringSubmatch(normalized); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" && !timePhrasePattern.MatchString(name) {
			find.CustomerName = &name
		}
	}
	return find
}

// writeRequest is a finance write split by the same grammar Write dispatches on.
// match is nil when the text names an operation but does not fit its grammar.
type writeRequest struct {
	operation string
	match     []string
}

func parseWrite(normalized string) writeRequest {
	switch {
	case strings.Contains(normalized, "payment"):
		return writeRequest{operation: agent.OperationPostPayment, match: paymentPattern.FindStringSubmatch(normalized)}
	case strings.Contains(normalized, "invoice"):
		return writeRequest{operation: agent.OperationCreateInvoice, match: invoicePattern.FindStringSubmatch(normalized)}
	default:
		return writeRequest{}
	}
}

// ParseWrite reports the operation and amount Write would record for text.
func ParseWrite(text string) (agent.WriteIntent, bool) {
	req := parseWrite(agent.NormalizeText(text))
	if req.operation == "" {
		return agent.WriteIntent{}, false
	}
	intent := agent.WriteIntent{Operation: req.operation}
	if req.match != nil {
		if amount, err := agent.ParseAmount(req.match[1]); err == nil {
			intent.Amount = amount
		}
	}
	return intent, true
}

func (a *Agent) Write(ctx context.Context, text string) (agent.Result, error) {
	req := parseWrite(agent.NormalizeText(text))
	switch req.operation {
	case agent.OperationPostPayment:
		return a.postPayment(ctx, req.match)
	case agent.OperationCreateInvoice:
		return a.createInvoice(ctx, req.match)
	default:
		return agent.Error("Could not parse finance request. Try: create invoice for <amount> [customer <id>] or post payment <amount> [customer <id>]"), nil
	}
}

func (a *Agent) createInvoice(ctx context.Context, m []string) (agent.Result, error) {
	if m == nil {
		return agent.Error("Could not parse invoice. Try: create invoice for <amount> [customer <id>]"), nil
	}
	amount, err := agent.ParseAmount(m[1])
	if err != nil || !amount.IsPositive() {
		return agent.Error(fmt.Sprintf("Invalid invoice amount %q.", m[1])), nil
	}
	customerID, ok := parseCustomerID(m[2])
	if !ok {
		return agent.Error(fmt.Sprintf("Invalid customer id %q.", m[2])), nil
	}

	now := a.now()
	invoice, err := a.store.CreateInvoice(ctx, &store.Invoice{
		CustomerID:    customerID,
		InvoiceNumber: "INV-" + strings.ToUpper(shortuuid.New()[:8]),
		IssueDate:     now.Unix(),
		DueDate:       now.Add(invoiceTerm).Unix(),
		TotalAmount:   amount,
		Status:        store.InvoiceStatusUnpaid,
		CreatedAt:     now.Unix(),
	})
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to create invoice: %w", err)
	}
	return agent.Text(fmt.Sprintf("Invoice %s created for %s, due %s.",
		invoice.InvoiceNumber, invoice.TotalAmount.StringFixed(2), time.Unix(invoice.DueDate, 0).UTC().Format(dateLayout))), nil
}

func (a *Agent) postPayment(ctx context.Context, m []string) (agent.Result, error) {
	if m == nil {
		return agent.Error("Could not parse payment. Try: post payment <amount> [customer <id>]"), nil
	}
	amount, err := agent.ParseAmount(m[1])
	if err != nil || !amount.IsPositive() {
		return agent.Error(fmt.Sprintf("Invalid payment amount %q.", m[1])), nil
	}
	customerID, ok := parseCustomerID(m[2])
	if !ok {
		return agent.Error(fmt.Sprintf("Invalid customer id %q.", m[2])), nil
	}

	payment, err := a.store.CreatePayment(ctx, &store.Payment{
		CustomerID: customerID,
		Amount:     amount,
		Method:     paymentMethod,
		ReceivedAt: a.now().Unix(),
	})
	if err != nil {
		return agent.Result{}, fmt.Errorf("failed to post payment: %w", err)
	}
	return agent.Text(fmt.Sprintf("Payment #%d of %s posted.", payment.ID, payment.Amount.StringFixed(2))), nil
}

// parseCustomerID treats a missing id as 0, the unassigned customer.
func parseCustomerID(raw string) (int32, bool) {
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}
