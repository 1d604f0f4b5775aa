package approval

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_RequiresApproval(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name       string
		module     string
		action     string
		payload    map[string]any
		wantNeeds  bool
		wantReason string
	}{
		{
			name:    "finance below threshold",
			module:  "finance",
			action:  "post_payment",
			payload: map[string]any{"amount": 9999},
		},
		{
			name:       "finance boundary is inclusive",
			module:     "finance",
			action:     "post_payment",
			payload:    map[string]any{"amount": 10000},
			wantNeeds:  true,
			wantReason: "Finance action 'post_payment' over threshold requires approval.",
		},
		{
			name:       "total_amount wins over amount",
			module:     "finance",
			action:     "create_invoice",
			payload:    map[string]any{"total_amount": "12,500.00", "amount": 1},
			wantNeeds:  true,
			wantReason: "Finance action 'create_invoice' over threshold requires approval.",
		},
		{
			name:       "classifier action with payload operation",
			module:     "finance",
			action:     "finance_write",
			payload:    map[string]any{"operation": "create_invoice", "amount": decimal.NewFromInt(15000)},
			wantNeeds:  true,
			wantReason: "Finance action 'create_invoice' over threshold requires approval.",
		},
		{
			name:    "missing amount counts as zero",
			module:  "finance",
			action:  "create_invoice",
			payload: map[string]any{},
		},
		{
			name:    "non-numeric amount counts as zero",
			module:  "finance",
			action:  "create_invoice",
			payload: map[string]any{"amount": "a lot"},
		},
		{
			name:    "nil payload",
			module:  "finance",
			action:  "create_invoice",
			payload: nil,
		},
		{
			name:    "purchase order below threshold",
			module:  "inventory",
			action:  "create_po",
			payload: map[string]any{"total": 19999.99},
		},
		{
			name:       "purchase order boundary is inclusive",
			module:     "inventory",
			action:     "inventory_write",
			payload:    map[string]any{"operation": "create_po", "total": json.Number("20000")},
			wantNeeds:  true,
			wantReason: "Large purchase order requires approval.",
		},
		{
			name:    "receiving stock is not gated",
			module:  "inventory",
			action:  "inventory_write",
			payload: map[string]any{"operation": "receive_po", "total": 50000},
		},
		{
			name:    "sales writes are not gated",
			module:  "sales",
			action:  "sales_write",
			payload: map[string]any{"amount": 1000000},
		},
		{
			name:    "unmatched finance action",
			module:  "finance",
			action:  "allocate_payment",
			payload: map[string]any{"amount": 1000000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needs, reason := policy.RequiresApproval(tt.module, tt.action, tt.payload)
			assert.Equal(t, tt.wantNeeds, needs)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestNewPolicy_Validation(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"missing module", Rule{Name: "r", Actions: []string{"a"}}},
		{"missing actions", Rule{Name: "r", Module: "finance"}},
		{"syntax error", Rule{Name: "r", Module: "finance", Actions: []string{"a"}, Condition: "amount >="}},
		{"unknown variable", Rule{Name: "r", Module: "finance", Actions: []string{"a"}, Condition: "price > 1.0"}},
		{"not a bool", Rule{Name: "r", Module: "finance", Actions: []string{"a"}, Condition: "amount + threshold"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicy([]Rule{tt.rule})
			assert.Error(t, err)
		})
	}
}

func TestPolicy_CustomCondition(t *testing.T) {
	policy, err := NewPolicy([]Rule{{
		Name:      "weekend_payments",
		Module:    "finance",
		Actions:   []string{"post_payment"},
		Threshold: decimal.NewFromInt(500),
		Condition: `operation == "post_payment" && amount > threshold`,
		Reason:    "Payments over 500 require approval.",
	}})
	require.NoError(t, err)

	needs, _ := policy.RequiresApproval("finance", "finance_write", map[string]any{"operation": "post_payment", "amount": 500})
	assert.False(t, needs)

	needs, reason := policy.RequiresApproval("finance", "finance_write", map[string]any{"operation": "post_payment", "amount": 500.01})
	assert.True(t, needs)
	assert.Equal(t, "Payments over 500 require approval.", reason)

	assert.Len(t, policy.Rules(), 1)
	assert.Equal(t, []string{"amount"}, policy.Rules()[0].Fields)
}

func TestToDecimal(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{10000, "10000"},
		{int64(7), "7"},
		{int32(7), "7"},
		{12.5, "12.5"},
		{"15,000", "15000"},
		{" 42.10 ", "42.1"},
		{json.Number("3"), "3"},
		{decimal.RequireFromString("9.99"), "9.99"},
		{"n/a", "0"},
		{true, "0"},
		{[]int{1}, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toDecimal(tt.in).String())
	}
}
