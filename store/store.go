package store

import (
	"context"

	"github.com/hrygo/erpdesk/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Ping verifies the underlying database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.GetDB().PingContext(ctx)
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetLatestConversation returns the most recently started conversation of the user, or nil.
func (s *Store) GetLatestConversation(ctx context.Context, userID string) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, &FindConversation{UserID: &userID, Latest: true})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) CreateApproval(ctx context.Context, create *Approval) (*Approval, error) {
	return s.driver.CreateApproval(ctx, create)
}

func (s *Store) ListApprovals(ctx context.Context, find *FindApproval) ([]*Approval, error) {
	return s.driver.ListApprovals(ctx, find)
}

// GetApproval returns the approval with the given id, or nil when it does not exist.
func (s *Store) GetApproval(ctx context.Context, id int32) (*Approval, error) {
	list, err := s.driver.ListApprovals(ctx, &FindApproval{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DecideApproval(ctx context.Context, decide *DecideApproval) (*Approval, bool, error) {
	return s.driver.DecideApproval(ctx, decide)
}

func (s *Store) CreateToolCall(ctx context.Context, create *ToolCall) (*ToolCall, error) {
	return s.driver.CreateToolCall(ctx, create)
}

func (s *Store) ListToolCalls(ctx context.Context, find *FindToolCall) ([]*ToolCall, error) {
	return s.driver.ListToolCalls(ctx, find)
}

func (s *Store) CreateCustomer(ctx context.Context, create *Customer) (*Customer, error) {
	return s.driver.CreateCustomer(ctx, create)
}

func (s *Store) ListCustomers(ctx context.Context) ([]*Customer, error) {
	return s.driver.ListCustomers(ctx)
}

func (s *Store) CountCustomers(ctx context.Context) (int64, error) {
	return s.driver.CountCustomers(ctx)
}

func (s *Store) CreateLead(ctx context.Context, create *Lead) (*Lead, error) {
	return s.driver.CreateLead(ctx, create)
}

func (s *Store) CreateInvoice(ctx context.Context, create *Invoice) (*Invoice, error) {
	return s.driver.CreateInvoice(ctx, create)
}

func (s *Store) ListInvoices(ctx context.Context, find *FindInvoice) ([]*Invoice, error) {
	return s.driver.ListInvoices(ctx, find)
}

func (s *Store) CreatePayment(ctx context.Context, create *Payment) (*Payment, error) {
	return s.driver.CreatePayment(ctx, create)
}

func (s *Store) UpsertStockLevel(ctx context.Context, upsert *StockLevel) (*StockLevel, error) {
	return s.driver.UpsertStockLevel(ctx, upsert)
}

func (s *Store) ListStockLevels(ctx context.Context) ([]*StockLevel, error) {
	return s.driver.ListStockLevels(ctx)
}

func (s *Store) CreatePurchaseOrder(ctx context.Context, create *PurchaseOrder) (*PurchaseOrder, error) {
	return s.driver.CreatePurchaseOrder(ctx, create)
}

func (s *Store) ReceivePurchaseOrder(ctx context.Context, receive *ReceivePurchaseOrder) error {
	return s.driver.ReceivePurchaseOrder(ctx, receive)
}

func (s *Store) ListCashFlow(ctx context.Context, since int64) ([]*CashFlowDay, error) {
	return s.driver.ListCashFlow(ctx, since)
}

func (s *Store) ListCustomerSpend(ctx context.Context) ([]*CustomerSpend, error) {
	return s.driver.ListCustomerSpend(ctx)
}
