package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Type returns the driver name used to select migrations ("sqlite" or "postgres").
	Type() string

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// Approval model related methods.
	CreateApproval(ctx context.Context, create *Approval) (*Approval, error)
	ListApprovals(ctx context.Context, find *FindApproval) ([]*Approval, error)
	// DecideApproval returns ok=false when the row exists but is no longer pending,
	// and sql.ErrNoRows when it does not exist.
	DecideApproval(ctx context.Context, decide *DecideApproval) (*Approval, bool, error)

	// ToolCall model related methods.
	CreateToolCall(ctx context.Context, create *ToolCall) (*ToolCall, error)
	ListToolCalls(ctx context.Context, find *FindToolCall) ([]*ToolCall, error)

	// ERP model related methods.
	CreateCustomer(ctx context.Context, create *Customer) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
	CountCustomers(ctx context.Context) (int64, error)
	CreateLead(ctx context.Context, create *Lead) (*Lead, error)
	CreateInvoice(ctx context.Context, create *Invoice) (*Invoice, error)
	ListInvoices(ctx context.Context, find *FindInvoice) ([]*Invoice, error)
	CreatePayment(ctx context.Context, create *Payment) (*Payment, error)
	UpsertStockLevel(ctx context.Context, upsert *StockLevel) (*StockLevel, error)
	ListStockLevels(ctx context.Context) ([]*StockLevel, error)
	CreatePurchaseOrder(ctx context.Context, create *PurchaseOrder) (*PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, receive *ReceivePurchaseOrder) error
	ListCashFlow(ctx context.Context, since int64) ([]*CashFlowDay, error)
	ListCustomerSpend(ctx context.Context) ([]*CustomerSpend, error)
}
