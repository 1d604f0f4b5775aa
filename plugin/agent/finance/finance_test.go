package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/store"
	teststore "github.com/hrygo/erpdesk/store/test"
)

func TestParseInvoiceFilter(t *testing.T) {
	tests := []struct {
		text     string
		status   store.InvoiceStatus
		customer string
	}{
		{"show invoices", "", ""},
		{"show unpaid invoices", store.InvoiceStatusUnpaid, ""},
		{"list paid invoices", store.InvoiceStatusPaid, ""},
		{"any canceled invoices?", store.InvoiceStatusCancelled, ""},
		{"unpaid invoices for Acme Corp?", store.InvoiceStatusUnpaid, "acme corp"},
		{"show unpaid invoices for customer acme", store.InvoiceStatusUnpaid, "acme"},
		{"invoices for this month", "", ""},
		{"paid invoices for the past 30 days", store.InvoiceStatusPaid, ""},
		{"invoices for today", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			find := parseInvoiceFilter(tt.text)
			if tt.status == "" {
				assert.Nil(t, find.Status)
			} else {
				require.NotNil(t, find.Status)
				assert.Equal(t, tt.status, *find.Status)
			}
			if tt.customer == "" {
				assert.Nil(t, find.CustomerName)
			} else {
				require.NotNil(t, find.CustomerName)
				assert.Equal(t, tt.customer, *find.CustomerName)
			}
		})
	}
}

func TestProcessRequest(t *testing.T) {
	ctx := context.Background()
	a := New(teststore.NewDemoTestingStore(ctx, t))

	result, err := a.ProcessRequest(ctx, "show unpaid invoices")
	require.NoError(t, err)
	require.Equal(t, agent.ResultTypeTable, result.Type)
	assert.Equal(t, invoiceHeaders, result.Headers)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []any{"INV-1001", "Acme Corp", "1200.00", "unpaid"}, result.Rows[0][:4])

	result, err = a.ProcessRequest(ctx, "invoices for globex")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "paid", result.Rows[0][3])

	result, err = a.ProcessRequest(ctx, "invoices for nobody")
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}

func TestWriteInvoice(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewDemoTestingStore(ctx, t)
	a := New(ts)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	result, err := a.Write(ctx, "Create invoice for 2,500.50 customer 2")
	require.NoError(t, err)
	require.Equal(t, agent.ResultTypeText, result.Type, result.Message)
	assert.Contains(t, result.Content, "2500.50")
	assert.Contains(t, result.Content, "due 2024-03-31")

	unpaid := store.InvoiceStatusUnpaid
	invoices, err := ts.ListInvoices(ctx, &store.FindInvoice{Status: &unpaid})
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	var created *store.Invoice
	for _, inv := range invoices {
		if inv.InvoiceNumber != "INV-1001" {
			created = inv
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, int32(2), created.CustomerID)
	assert.Equal(t, "Globex", created.CustomerName)
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("2500.50")))
	assert.Equal(t, now.Add(30*24*time.Hour).Unix(), created.DueDate)
}

func TestWritePaymentAndErrors(t *testing.T) {
	ctx := context.Background()
	a := New(teststore.NewDemoTestingStore(ctx, t))

	tests := []struct {
		name     string
		text     string
		wantType agent.ResultType
		contains string
	}{
		{"payment", "post payment 500 customer 1", agent.ResultTypeText, "of 500.00 posted"},
		{"payment of", "record a payment of 75.25", agent.ResultTypeText, "of 75.25 posted"},
		{"invoice without amount", "create invoice for acme", agent.ResultTypeError, "Could not parse invoice"},
		{"zero amount", "create invoice for 0", agent.ResultTypeError, "Invalid invoice amount"},
		{"neither", "update ledger", agent.ResultTypeError, "Could not parse finance request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.Write(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, result.Type)
			assert.Contains(t, result.String(), tt.contains)
		})
	}
}

func TestParseWrite(t *testing.T) {
	tests := []struct {
		text          string
		wantOK        bool
		wantOperation string
		wantAmount    string
	}{
		{"create invoice for 15000", true, agent.OperationCreateInvoice, "15000"},
		{"Create invoice for 1,0000 customer 2", true, agent.OperationCreateInvoice, "10000"},
		{"create invoice for 1,,0000", true, agent.OperationCreateInvoice, "10000"},
		{"post payment 2,50000", true, agent.OperationPostPayment, "250000"},
		{"payment for invoice 3 of 12000", true, agent.OperationPostPayment, "3"},
		{"create invoice for acme", true, agent.OperationCreateInvoice, "0"},
		{"update ledger", false, "", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			intent, ok := ParseWrite(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOperation, intent.Operation)
			assert.Equal(t, tt.wantAmount, intent.Amount.String())
		})
	}
}
