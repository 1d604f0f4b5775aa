// Package agent defines the contract between the router and the domain agents.
package agent

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Module is one of the four business domains. The set is closed.
type Module string

const (
	ModuleSales     Module = "sales"
	ModuleFinance   Module = "finance"
	ModuleInventory Module = "inventory"
	ModuleAnalytics Module = "analytics"
)

// Modules lists every module in routing order.
func Modules() []Module {
	return []Module{ModuleSales, ModuleFinance, ModuleInventory, ModuleAnalytics}
}

// ParseModule maps a name to a module.
func ParseModule(name string) (Module, bool) {
	switch Module(name) {
	case ModuleSales, ModuleFinance, ModuleInventory, ModuleAnalytics:
		return Module(name), true
	default:
		return "", false
	}
}

// Write operations the agents perform.
const (
	OperationCreateInvoice = "create_invoice"
	OperationPostPayment   = "post_payment"
	OperationCreatePO      = "create_po"
	OperationReceivePO     = "receive_po"
	OperationCreateLead    = "create_lead"
)

// WriteIntent is what a write request resolves to under an agent's grammar.
// Amount is zero when the operation carries none or the text does not fit the grammar.
type WriteIntent struct {
	Operation string
	Amount    decimal.Decimal
}

// Agent handles the read and write requests of one module.
// A request the agent cannot interpret yields an error Result; the returned error is
// reserved for failures such as an unavailable store.
type Agent interface {
	Module() Module
	ProcessRequest(ctx context.Context, text string) (Result, error)
	Write(ctx context.Context, text string) (Result, error)
}

// NormalizeText lower-cases text and collapses runs of whitespace.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ParseAmount parses a number that may use "," as a thousands separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
}
