package store

import "github.com/shopspring/decimal"

// The ERP entities below back the reference domain agents.

type Customer struct {
	ID    int32
	Name  string
	Email string
	Phone string
}

type Lead struct {
	ID           int32
	CustomerName string
	ContactEmail string
	Message      string
	Status       string
	CreatedAt    int64
}

type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "unpaid"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID            int32
	CustomerID    int32
	InvoiceNumber string
	IssueDate     int64
	DueDate       int64
	TotalAmount   decimal.Decimal
	Status        InvoiceStatus
	CreatedAt     int64

	// CustomerName is filled by ListInvoices from the customers table.
	CustomerName string
}

type FindInvoice struct {
	Status       *InvoiceStatus
	CustomerName *string
}

type Payment struct {
	ID         int32
	CustomerID int32
	Amount     decimal.Decimal
	Method     string
	ReceivedAt int64
}

type StockLevel struct {
	ProductID    int32
	QtyOnHand    decimal.Decimal
	ReorderPoint decimal.Decimal
}

type PurchaseOrder struct {
	ID         int32
	SupplierID int32
	Total      decimal.Decimal
	Status     string
	CreatedAt  int64
}

// ReceivePurchaseOrder records goods received against a purchase order.
// Drivers apply the receipt, the stock bump and the stock movement in one transaction.
type ReceivePurchaseOrder struct {
	POID        int32
	ProductID   int32
	ReceivedQty decimal.Decimal
	ReceivedAt  int64
}

type CashFlowDay struct {
	Date          string
	TotalInvoiced decimal.Decimal
	TotalPaid     decimal.Decimal
}

type CustomerSpend struct {
	CustomerID int32
	TotalSpent decimal.Decimal
}
