package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/store"
	teststore "github.com/hrygo/erpdesk/store/test"
)

func newTestGate(t *testing.T) (*Gate, *observability.Metrics) {
	t.Helper()
	ts := teststore.NewTestingStore(context.Background(), t)
	metrics := observability.NewMetrics()
	gate := NewGate(ts, nil, metrics)
	gate.now = func() time.Time { return time.Unix(1700000000, 0) }
	return gate, metrics
}

func TestGate_CreateAndDecide(t *testing.T) {
	ctx := context.Background()
	gate, metrics := newTestGate(t)

	payload := PayloadFromText("finance", "finance_write", "create invoice for 15000")
	id, err := gate.CreateApprovalRequest(ctx, "finance", payload, "alice")
	require.NoError(t, err)
	require.NotZero(t, id)

	approval, err := gate.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.ApprovalStatusPending, approval.Status)
	assert.Equal(t, "alice", approval.RequestedBy)
	assert.Equal(t, int64(1700000000), approval.CreatedAt)

	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(approval.PayloadJSON), &stored))
	assert.Equal(t, "create invoice for 15000", stored["message"])
	assert.Equal(t, "create_invoice", stored["operation"])

	decided, err := gate.Decide(ctx, id, "approved", "mgr1")
	require.NoError(t, err)
	assert.Equal(t, store.ApprovalStatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, "mgr1", *decided.DecidedBy)
	require.NotNil(t, decided.DecidedAt)

	// Deciding again fails and keeps the first decision.
	_, err = gate.Decide(ctx, id, "rejected", "mgr2")
	require.Error(t, err)
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodeAlreadyDecided))

	approval, err = gate.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.ApprovalStatusApproved, approval.Status)
	assert.Equal(t, "mgr1", *approval.DecidedBy)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ApprovalsRequested)
	assert.Equal(t, int64(1), snap.ApprovalsDecided)
}

func TestGate_DecideErrors(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)

	id, err := gate.CreateApprovalRequest(ctx, "inventory", map[string]any{"total": 25000}, "bob")
	require.NoError(t, err)

	tests := []struct {
		name      string
		id        int32
		decision  string
		decidedBy string
		wantCode  deskerrors.ErrorCode
	}{
		{"invalid decision", id, "maybe", "mgr1", deskerrors.ErrCodeInvalidDecision},
		{"pending is not a decision", id, "pending", "mgr1", deskerrors.ErrCodeInvalidDecision},
		{"missing decider", id, "approved", "", deskerrors.ErrCodeInvalidArgument},
		{"not found", 4242, "approved", "mgr1", deskerrors.ErrCodeApprovalNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Decide(ctx, tt.id, tt.decision, tt.decidedBy)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, deskerrors.GetCodeFromError(err, ""))
		})
	}

	// None of the failures touched the request.
	approval, err := gate.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.ApprovalStatusPending, approval.Status)
}

func TestGate_List(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)

	var ids []int32
	for i := 0; i < 3; i++ {
		id, err := gate.CreateApprovalRequest(ctx, "finance", map[string]any{"amount": 20000 + i}, "alice")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := gate.Decide(ctx, ids[1], "rejected", "mgr1")
	require.NoError(t, err)

	all, err := gate.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, a := range all {
		assert.Equal(t, ids[i], a.ID)
	}

	pending := store.ApprovalStatusPending
	list, err := gate.List(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, list, 2)

	rejected := store.ApprovalStatusRejected
	list, err = gate.List(ctx, &rejected)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[1], list[0].ID)

	bogus := store.ApprovalStatus("archived")
	_, err = gate.List(ctx, &bogus)
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodeInvalidArgument))

	_, err = gate.Get(ctx, 9999)
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodeApprovalNotFound))
}

func TestGate_ConcurrentCreatesAreDistinct(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)

	const n = 10
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int32]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := gate.CreateApprovalRequest(ctx, "finance", map[string]any{"amount": 10000}, "alice")
			if err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, ids, n)
}

type mockApprovalStore struct {
	mock.Mock
}

func (m *mockApprovalStore) CreateApproval(ctx context.Context, create *store.Approval) (*store.Approval, error) {
	args := m.Called(ctx, create)
	if v := args.Get(0); v != nil {
		return v.(*store.Approval), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockApprovalStore) ListApprovals(ctx context.Context, find *store.FindApproval) ([]*store.Approval, error) {
	args := m.Called(ctx, find)
	if v := args.Get(0); v != nil {
		return v.([]*store.Approval), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockApprovalStore) GetApproval(ctx context.Context, id int32) (*store.Approval, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*store.Approval), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockApprovalStore) DecideApproval(ctx context.Context, decide *store.DecideApproval) (*store.Approval, bool, error) {
	args := m.Called(ctx, decide)
	if v := args.Get(0); v != nil {
		return v.(*store.Approval), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func TestGate_PersistenceFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("database is locked")

	ms := &mockApprovalStore{}
	ms.On("CreateApproval", mock.Anything, mock.Anything).Return(nil, boom)
	ms.On("DecideApproval", mock.Anything, mock.Anything).Return(nil, false, boom)
	ms.On("GetApproval", mock.Anything, int32(1)).Return(nil, sql.ErrConnDone)
	ms.On("ListApprovals", mock.Anything, mock.Anything).Return(nil, boom)

	gate := NewGate(ms, nil, observability.NewMetrics())

	_, err := gate.CreateApprovalRequest(ctx, "finance", map[string]any{}, "alice")
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodePersistenceFailure))
	assert.ErrorIs(t, err, boom)

	_, err = gate.Decide(ctx, 1, "approved", "mgr1")
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodePersistenceFailure))

	_, err = gate.Get(ctx, 1)
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodePersistenceFailure))

	_, err = gate.List(ctx, nil)
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodePersistenceFailure))

	ms.AssertExpectations(t)
}

func TestGate_UnserializablePayload(t *testing.T) {
	gate := NewGate(&mockApprovalStore{}, nil, observability.NewMetrics())
	_, err := gate.CreateApprovalRequest(context.Background(), "finance", map[string]any{"bad": make(chan int)}, "alice")
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodeInvalidArgument))
}
