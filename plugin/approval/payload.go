package approval

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hrygo/erpdesk/plugin/agent"
	"github.com/hrygo/erpdesk/plugin/agent/finance"
	"github.com/hrygo/erpdesk/plugin/agent/inventory"
	"github.com/hrygo/erpdesk/plugin/agent/sales"
)

// Operations recognized in write requests.
const (
	OperationCreateInvoice = agent.OperationCreateInvoice
	OperationPostPayment   = agent.OperationPostPayment
	OperationCreatePO      = agent.OperationCreatePO
	OperationReceivePO     = agent.OperationReceivePO
	OperationCreateLead    = agent.OperationCreateLead
)

// numberPattern reads digit runs the way the agents do: every comma inside a run is a
// separator and is dropped, so "1,0000" is 10000 here and in the agent.
var numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// PayloadFromText builds the approval payload for a write request. The operation is the
// one the module's agent would perform. "amount" and "total" hold the larger of the
// agent's own amount and the largest number in the text, so no threshold is understated.
func PayloadFromText(module, action, text string) map[string]any {
	payload := map[string]any{
		"message": text,
		"action":  action,
	}

	amount, found := LargestNumber(text)
	if intent, ok := parseWrite(module, text); ok {
		payload["operation"] = intent.Operation
		if intent.Amount.GreaterThan(amount) {
			amount, found = intent.Amount, true
		}
	}
	if found {
		payload["amount"] = amount
		payload["total"] = amount
	}
	return payload
}

// parseWrite resolves text with the grammar the module's agent dispatches on.
func parseWrite(module, text string) (agent.WriteIntent, bool) {
	switch agent.Module(module) {
	case agent.ModuleFinance:
		return finance.ParseWrite(text)
	case agent.ModuleInventory:
		return inventory.ParseWrite(text)
	case agent.ModuleSales:
		return sales.ParseWrite(text)
	default:
		return agent.WriteIntent{}, false
	}
}

// LargestNumber returns the largest number found in text.
func LargestNumber(text string) (decimal.Decimal, bool) {
	var (
		largest decimal.Decimal
		found   bool
	)
	for _, match := range numberPattern.FindAllString(text, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
		if err != nil {
			continue
		}
		if !found || d.GreaterThan(largest) {
			largest, found = d, true
		}
	}
	return largest, found
}
