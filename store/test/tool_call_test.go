package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/erpdesk/store"
)

func TestToolCallStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	now := time.Now().Unix()
	entries := []*store.ToolCall{
		{Agent: "sales", ToolName: "sales_sql_read", InputJSON: `{"msg":"list customers"}`, OutputJSON: `{"type":"table"}`, Status: store.ToolCallStatusOK},
		{Agent: "finance", ToolName: "approval_requested", InputJSON: `{"msg":"create invoice for 15000"}`, OutputJSON: `{"approval_id":1}`, Status: store.ToolCallStatusPending},
		{Agent: "finance", ToolName: "router_error", InputJSON: `{"msg":"post payment"}`, OutputJSON: `{"error":"boom"}`, Status: store.ToolCallStatusError},
	}
	for _, e := range entries {
		e.CreatedAt = now
		created, err := ts.CreateToolCall(ctx, e)
		require.NoError(t, err)
		require.NotZero(t, created.ID)
	}

	list, err := ts.ListToolCalls(ctx, &store.FindToolCall{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "router_error", list[0].ToolName)

	agent := "finance"
	list, err = ts.ListToolCalls(ctx, &store.FindToolCall{Agent: &agent})
	require.NoError(t, err)
	require.Len(t, list, 2)

	status := store.ToolCallStatusPending
	list, err = ts.ListToolCalls(ctx, &store.FindToolCall{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, `{"approval_id":1}`, list[0].OutputJSON)

	limit := 1
	list, err = ts.ListToolCalls(ctx, &store.FindToolCall{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
