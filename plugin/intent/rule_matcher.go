package intent

import (
	"strings"
	"unicode"
)

// rule selects a domain module when any keyword is present and none of its excludes are.
type rule struct {
	module   Module
	keywords []string
	// excludes hands the message to a later rule, e.g. "purchase order" is not a sales order.
	excludes []string
}

// RuleMatcher classifies messages with ordered keyword rules.
// Greetings are checked first, then each domain rule in order; the first match wins.
type RuleMatcher struct {
	greetings []string
	rules     []rule
	// writeVerbs switch a matched domain from read to write access.
	writeVerbs map[string]bool
}

var _ Classifier = (*RuleMatcher)(nil)

// NewRuleMatcher creates a matcher with the built-in ERP keyword sets.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		greetings: []string{"hi", "hello", "hey", "thanks", "thank you"},
		rules: []rule{
			{
				module:   ModuleSales,
				keywords: []string{"customer", "lead", "order", "ticket", "crm", "sales", "sale"},
				excludes: []string{"purchase order", "invoice", "payment", "spend"},
			},
			{
				module:   ModuleFinance,
				keywords: []string{"invoice", "ledger", "payment", "account", "policy", "finance", "aging"},
			},
			{
				module:   ModuleInventory,
				keywords: []string{"stock", "inventory", "supplier", "purchase order", "po", "reorder"},
			},
			{
				module:   ModuleAnalytics,
				keywords: []string{"report", "kpi", "analytics", "chart", "trend", "glossary", "metric", "cash flow", "spend"},
			},
		},
		writeVerbs: map[string]bool{
			"create": true, "add": true, "post": true, "update": true,
			"receive": true, "record": true, "allocate": true, "insert": true,
		},
	}
}

// Classify implements Classifier.
func (m *RuleMatcher) Classify(text string) Result {
	tokens := normalize(text)
	if len(tokens) == 0 {
		return Fallback
	}
	padded := " " + strings.Join(tokens, " ") + " "

	if containsAny(padded, m.greetings) {
		return Result{Module: ModuleGeneral, Access: AccessNone, Action: ActionGreeting}
	}

	for _, r := range m.rules {
		if !containsAny(padded, r.keywords) || containsAny(padded, r.excludes) {
			continue
		}
		access := AccessRead
		for _, tok := range tokens {
			if m.writeVerbs[tok] {
				access = AccessWrite
				break
			}
		}
		return Result{Module: r.module, Access: access, Action: string(r.module) + "_" + string(access)}
	}

	return Fallback
}

// normalize lower-cases text and splits it on anything that is not a letter or digit.
func normalize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsAny matches whole words or phrases against padded text, accepting a plural "s".
func containsAny(padded string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(padded, " "+term+" ") || strings.Contains(padded, " "+term+"s ") {
			return true
		}
	}
	return false
}
