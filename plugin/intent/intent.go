// Package intent maps free-text chat messages to a module, an access mode and an action.
package intent

// Module is the category a message was classified into.
type Module string

const (
	ModuleSales     Module = "sales"
	ModuleFinance   Module = "finance"
	ModuleInventory Module = "inventory"
	ModuleAnalytics Module = "analytics"
	// ModuleGeneral covers greetings and small talk.
	ModuleGeneral Module = "general"
	// ModuleUnknown is returned when no rule matches.
	ModuleUnknown Module = "unknown"
)

// Access tells whether the request reads or mutates persisted state.
type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
	AccessNone  Access = "none"
)

const (
	ActionGreeting = "greeting"
	ActionFallback = "fallback"
)

// Result is the outcome of classifying a single message.
type Result struct {
	Module Module `json:"module"`
	Access Access `json:"access"`
	// Action labels the request for policy lookup and audit, e.g. "finance_write".
	Action string `json:"action"`
}

// IsDomain reports whether the result targets one of the domain agents.
func (r Result) IsDomain() bool {
	switch r.Module {
	case ModuleSales, ModuleFinance, ModuleInventory, ModuleAnalytics:
		return true
	default:
		return false
	}
}

// Fallback is the result for input no rule recognizes.
var Fallback = Result{Module: ModuleUnknown, Access: AccessNone, Action: ActionFallback}

// Classifier maps text to a Result. Implementations must be pure and never fail.
type Classifier interface {
	Classify(text string) Result
}
