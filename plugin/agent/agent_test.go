package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	module Module
}

func (s stubAgent) Module() Module { return s.module }

func (stubAgent) ProcessRequest(context.Context, string) (Result, error) { return Text("read"), nil }

func (stubAgent) Write(context.Context, string) (Result, error) { return Text("write"), nil }

func TestParseModule(t *testing.T) {
	for _, m := range Modules() {
		got, ok := ParseModule(string(m))
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	for _, name := range []string{"", "general", "unknown", "Sales"} {
		_, ok := ParseModule(name)
		assert.False(t, ok, name)
	}
}

func TestResultJSON(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "text",
			result: Text("We have 3 customers."),
			want:   `{"type":"text","content":"We have 3 customers."}`,
		},
		{
			name:   "table",
			result: Table([]string{"id", "name"}, [][]any{{1, "Acme"}}),
			want:   `{"type":"table","headers":["id","name"],"rows":[[1,"Acme"]]}`,
		},
		{
			name:   "empty table keeps rows",
			result: Table([]string{"id"}, nil),
			want:   `{"type":"table","headers":["id"],"rows":[]}`,
		},
		{
			name:   "error",
			result: Error("boom"),
			want:   `{"type":"error","message":"boom"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
			assert.JSONEq(t, tt.want, tt.result.String())

			var decoded Result
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.result.Type, decoded.Type)
			assert.Equal(t, tt.result.IsError(), decoded.IsError())
		})
	}
}

func TestToolNames(t *testing.T) {
	tests := []struct {
		module Module
		read   string
		write  string
	}{
		{ModuleSales, "sales_sql_read", "sales_sql_write"},
		{ModuleFinance, "finance_sql_read", "finance_sql_write"},
		{ModuleInventory, "inventory_sql_read", "inventory_sql_write"},
		{ModuleAnalytics, "analytics_read", "analytics_write"},
	}
	for _, tt := range tests {
		read, write := ToolNames(tt.module)
		assert.Equal(t, tt.read, read)
		assert.Equal(t, tt.write, write)
	}
	assert.Equal(t, "finance_read_error", ReadErrorToolName(ModuleFinance))
	assert.Panics(t, func() { ToolNames("general") })
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(stubAgent{ModuleSales}, stubAgent{ModuleAnalytics})

	a, err := registry.Get(ModuleSales)
	require.NoError(t, err)
	assert.Equal(t, ModuleSales, a.Module())

	_, err = registry.Get(ModuleFinance)
	assert.ErrorIs(t, err, ErrAgentNotRegistered)

	_, err = registry.Get("general")
	assert.ErrorIs(t, err, ErrUnknownModule)

	tools := registry.Tools()
	require.Len(t, tools, 4)
	assert.Equal(t, "sales_sql_read", tools[0].Name)
	assert.Equal(t, "read", tools[0].Access)
	assert.Equal(t, "analytics_write", tools[3].Name)
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description)
	}
}

func TestNormalizeAndParseAmount(t *testing.T) {
	assert.Equal(t, "show unpaid invoices", NormalizeText("  Show   UNPAID\tinvoices "))

	amount, err := ParseAmount("15,000.50")
	require.NoError(t, err)
	assert.Equal(t, "15000.5", amount.String())

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}
