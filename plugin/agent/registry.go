package agent

import (
	"fmt"
)

// ToolInfo describes one tool an agent exposes.
type ToolInfo struct {
	Name        string `json:"name"`
	Module      Module `json:"module"`
	Access      string `json:"access"`
	Description string `json:"description"`
}

// ToolNames returns the audit tool names of module's read and write paths.
func ToolNames(m Module) (read, write string) {
	switch m {
	case ModuleSales:
		return "sales_sql_read", "sales_sql_write"
	case ModuleFinance:
		return "finance_sql_read", "finance_sql_write"
	case ModuleInventory:
		return "inventory_sql_read", "inventory_sql_write"
	case ModuleAnalytics:
		return "analytics_read", "analytics_write"
	default:
		panic(fmt.Sprintf("agent: unhandled module %q", m))
	}
}

// ReadErrorToolName is the audit tool name of a failed read.
func ReadErrorToolName(m Module) string {
	return string(m) + "_read_error"
}

func toolDescriptions(m Module) (read, write string) {
	switch m {
	case ModuleSales:
		return "List customers or count them.",
			"Create a lead: create lead <name> <email>."
	case ModuleFinance:
		return "List invoices, optionally unpaid, paid or cancelled, or for a customer.",
			"Create an invoice or post a payment: create invoice for <amount> [customer <id>], post payment <amount> [customer <id>]."
	case ModuleInventory:
		return "List stock levels with reorder points.",
			"Create or receive purchase orders: create purchase order supplier <id> total <amount>, receive po <id> product <id> qty <n>."
	case ModuleAnalytics:
		return "Cash flow for the last 7 days and spend per customer.",
			"Not supported."
	default:
		panic(fmt.Sprintf("agent: unhandled module %q", m))
	}
}

// Registry maps each module to its agent.
type Registry struct {
	agents map[Module]Agent
}

// NewRegistry registers agents by the module they report. A later agent for the same
// module replaces an earlier one.
func NewRegistry(agents ...Agent) *Registry {
	r := &Registry{agents: make(map[Module]Agent, len(agents))}
	for _, a := range agents {
		r.agents[a.Module()] = a
	}
	return r
}

// Get returns the agent serving m.
func (r *Registry) Get(m Module) (Agent, error) {
	if _, ok := ParseModule(string(m)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, m)
	}
	a, ok := r.agents[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotRegistered, m)
	}
	return a, nil
}

// Tools lists the read and write tools of every registered module in routing order.
func (r *Registry) Tools() []ToolInfo {
	tools := make([]ToolInfo, 0, 2*len(r.agents))
	for _, m := range Modules() {
		if _, ok := r.agents[m]; !ok {
			continue
		}
		readName, writeName := ToolNames(m)
		readDesc, writeDesc := toolDescriptions(m)
		tools = append(tools,
			ToolInfo{Name: readName, Module: m, Access: "read", Description: readDesc},
			ToolInfo{Name: writeName, Module: m, Access: "write", Description: writeDesc},
		)
	}
	return tools
}
