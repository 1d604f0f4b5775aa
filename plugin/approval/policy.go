// Package approval decides which write actions need human sign-off and manages approval requests.
package approval

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultCondition is the CEL expression used when a rule does not set one.
const DefaultCondition = "amount >= threshold"

// Rule gates the matching write actions of one module.
type Rule struct {
	Name   string
	Module string
	// Actions match either the classifier action or the payload "operation" field.
	Actions []string
	// Fields are payload keys probed in order for the amount; the first present one wins.
	Fields    []string
	Threshold decimal.Decimal
	// Condition is a CEL expression over amount, threshold, module, action and operation.
	Condition string
	// Reason is shown to the user. "{action}" is replaced with the matched action.
	Reason string
}

// DefaultRules mirrors the built-in thresholds: finance amounts from 10000 and
// purchase orders from 20000 require approval, both boundaries inclusive.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "finance_large_amount",
			Module:    "finance",
			Actions:   []string{"create_invoice", "post_payment", "finance_write"},
			Fields:    []string{"total_amount", "amount"},
			Threshold: decimal.NewFromInt(10000),
			Reason:    "Finance action '{action}' over threshold requires approval.",
		},
		{
			Name:      "inventory_large_po",
			Module:    "inventory",
			Actions:   []string{"create_po"},
			Fields:    []string{"total"},
			Threshold: decimal.NewFromInt(20000),
			Reason:    "Large purchase order requires approval.",
		},
	}
}

type compiledRule struct {
	Rule
	program cel.Program
}

// Policy is an immutable, compiled set of approval rules.
type Policy struct {
	rules []compiledRule
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("threshold", cel.DoubleType),
		cel.Variable("module", cel.StringType),
		cel.Variable("action", cel.StringType),
		cel.Variable("operation", cel.StringType),
	)
}

// NewPolicy compiles rules. A condition that does not compile to a boolean is an error.
func NewPolicy(rules []Rule) (*Policy, error) {
	env, err := newEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create policy environment")
	}

	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Module == "" || len(r.Actions) == 0 {
			return nil, errors.Errorf("rule %q needs a module and at least one action", r.Name)
		}
		if len(r.Fields) == 0 {
			r.Fields = []string{"amount"}
		}
		if r.Condition == "" {
			r.Condition = DefaultCondition
		}
		ast, iss := env.Compile(r.Condition)
		if iss != nil && iss.Err() != nil {
			return nil, errors.Wrapf(iss.Err(), "rule %q has an invalid condition", r.Name)
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, errors.Errorf("rule %q condition must evaluate to a bool, got %s", r.Name, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q cannot be planned", r.Name)
		}
		p.rules = append(p.rules, compiledRule{Rule: r, program: program})
	}
	return p, nil
}

// MustNewPolicy is NewPolicy for rules known to be valid.
func MustNewPolicy(rules []Rule) *Policy {
	p, err := NewPolicy(rules)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPolicy returns the compiled built-in rules.
func DefaultPolicy() *Policy {
	return MustNewPolicy(DefaultRules())
}

// Rules returns a copy of the policy's rules.
func (p *Policy) Rules() []Rule {
	rules := make([]Rule, 0, len(p.rules))
	for _, r := range p.rules {
		rules = append(rules, r.Rule)
	}
	return rules
}

// RequiresApproval evaluates the rules of module against payload. It never fails:
// missing or non-numeric amounts count as zero, and a rule whose condition cannot be
// evaluated blocks the action.
func (p *Policy) RequiresApproval(module, action string, payload map[string]any) (bool, string) {
	operation, _ := payload["operation"].(string)

	for _, r := range p.rules {
		if r.Module != module {
			continue
		}
		var matched string
		switch {
		case operation != "" && slices.Contains(r.Actions, operation):
			matched = operation
		case slices.Contains(r.Actions, action):
			matched = action
		default:
			continue
		}

		amount := amountFromPayload(payload, r.Fields)
		out, _, err := r.program.Eval(map[string]any{
			"amount":    amount.InexactFloat64(),
			"threshold": r.Threshold.InexactFloat64(),
			"module":    module,
			"action":    action,
			"operation": operation,
		})
		if err != nil {
			return true, fmt.Sprintf("Approval policy %q could not be evaluated; approval required.", r.Name)
		}
		if blocked, ok := out.Value().(bool); !ok || blocked {
			return true, strings.ReplaceAll(r.Reason, "{action}", matched)
		}
	}
	return false, ""
}

func amountFromPayload(payload map[string]any, fields []string) decimal.Decimal {
	for _, field := range fields {
		v, ok := payload[field]
		if !ok || v == nil {
			continue
		}
		return toDecimal(v)
	}
	return decimal.Zero
}

// toDecimal coerces a payload value to a number; anything unparsable is zero.
func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n != nil {
			return *n
		}
	case float64:
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			return decimal.NewFromFloat(n)
		}
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt32(n)
	case int64:
		return decimal.NewFromInt(n)
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(n), ",", "")); err == nil {
			return d
		}
	}
	return decimal.Zero
}
