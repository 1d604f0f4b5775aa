package test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/erpdesk/store"
)

func createPendingApproval(ctx context.Context, t *testing.T, ts *store.Store, module string) *store.Approval {
	t.Helper()
	approval, err := ts.CreateApproval(ctx, &store.Approval{
		Module:      module,
		PayloadJSON: `{"message":"create invoice for 15000"}`,
		Status:      store.ApprovalStatusPending,
		RequestedBy: "alice",
		CreatedAt:   time.Now().Unix(),
	})
	require.NoError(t, err)
	return approval
}

func TestApprovalStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first := createPendingApproval(ctx, t, ts, "finance")
	second := createPendingApproval(ctx, t, ts, "inventory")
	require.NotEqual(t, first.ID, second.ID)

	got, err := ts.GetApproval(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, store.ApprovalStatusPending, got.Status)
	require.Nil(t, got.DecidedBy)
	require.Nil(t, got.DecidedAt)
	require.Equal(t, `{"message":"create invoice for 15000"}`, got.PayloadJSON)

	missing, err := ts.GetApproval(ctx, 9999)
	require.NoError(t, err)
	require.Nil(t, missing)

	decided, ok, err := ts.DecideApproval(ctx, &store.DecideApproval{
		ID: first.ID, Status: store.ApprovalStatusApproved, DecidedBy: "mgr1", DecidedAt: 1700000000,
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, store.ApprovalStatusApproved, decided.Status)
	require.Equal(t, "mgr1", *decided.DecidedBy)
	require.Equal(t, int64(1700000000), *decided.DecidedAt)

	// A second decision leaves the first one untouched.
	existing, ok, err := ts.DecideApproval(ctx, &store.DecideApproval{
		ID: first.ID, Status: store.ApprovalStatusRejected, DecidedBy: "mgr2", DecidedAt: 1700000100,
	})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, store.ApprovalStatusApproved, existing.Status)
	require.Equal(t, "mgr1", *existing.DecidedBy)

	_, _, err = ts.DecideApproval(ctx, &store.DecideApproval{
		ID: 9999, Status: store.ApprovalStatusApproved, DecidedBy: "mgr1", DecidedAt: 1700000000,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)

	pending := store.ApprovalStatusPending
	list, err := ts.ListApprovals(ctx, &store.FindApproval{Status: &pending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, second.ID, list[0].ID)

	list, err = ts.ListApprovals(ctx, &store.FindApproval{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)
}

func TestApprovalDecideConcurrently(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	approval := createPendingApproval(ctx, t, ts, "finance")

	const deciders = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := store.ApprovalStatusApproved
			if i%2 == 1 {
				status = store.ApprovalStatusRejected
			}
			_, ok, err := ts.DecideApproval(ctx, &store.DecideApproval{
				ID: approval.ID, Status: status, DecidedBy: "mgr", DecidedAt: time.Now().Unix(),
			})
			if err != nil {
				t.Errorf("decide failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	got, err := ts.GetApproval(ctx, approval.ID)
	require.NoError(t, err)
	require.True(t, got.Status.IsDecision())
}
