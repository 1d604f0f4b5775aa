package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/plugin/cache"
	"github.com/hrygo/erpdesk/store"
	teststore "github.com/hrygo/erpdesk/store/test"
)

func newCache(t *testing.T) *cache.Service {
	t.Helper()
	c := cache.NewService(cache.DefaultServiceConfig())
	t.Cleanup(c.Close)
	return c
}

func TestEnsureConversation_ReusesLatest(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	convs := NewStore(ts, newCache(t), observability.NewMetrics())

	first, err := convs.EnsureConversation(ctx, "alice")
	require.NoError(t, err)
	second, err := convs.EnsureConversation(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := convs.EnsureConversation(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	// A store without a cache resolves the same conversation from the database.
	uncached := NewStore(ts, nil, observability.NewMetrics())
	again, err := uncached.EnsureConversation(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestEnsureConversation_ConcurrentFirstContact(t *testing.T) {
	for name, c := range map[string]cache.CacheService{"cached": newCache(t), "uncached": nil} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ts := teststore.NewTestingStore(ctx, t)
			convs := NewStore(ts, c, observability.NewMetrics())

			const callers = 16
			ids := make([]int32, callers)
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id, err := convs.EnsureConversation(ctx, "burst-user")
					if err != nil {
						t.Errorf("ensure conversation: %v", err)
						return
					}
					ids[i] = id
				}(i)
			}
			wg.Wait()

			for _, id := range ids {
				assert.Equal(t, ids[0], id)
			}
			userID := "burst-user"
			list, err := ts.ListConversations(ctx, &store.FindConversation{UserID: &userID})
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestAppendMessageBestEffort(t *testing.T) {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	convs := NewStore(ts, nil, observability.NewMetrics())

	id, err := convs.EnsureConversation(ctx, "carol")
	require.NoError(t, err)

	convs.AppendMessageBestEffort(ctx, id, store.MessageSenderUser, "list all customers")
	convs.AppendMessageBestEffort(ctx, id, "sales", `{"type":"table"}`)

	// Cancelled requests still get their bookkeeping written.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	convs.AppendMessageBestEffort(cancelled, id, store.MessageSenderRouter, "done")

	history, err := convs.History(ctx, "carol", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, store.MessageSenderUser, history[0].Sender)
	assert.Equal(t, store.MessageSender("sales"), history[1].Sender)
	assert.Equal(t, "done", history[2].Content)

	limited, err := convs.History(ctx, "carol", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, store.MessageSender("sales"), limited[0].Sender)
	assert.Equal(t, "done", limited[1].Content)

	empty, err := convs.History(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) GetLatestConversation(ctx context.Context, userID string) (*store.Conversation, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*store.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessageStore) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	args := m.Called(ctx, create)
	if v := args.Get(0); v != nil {
		return v.(*store.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessageStore) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	args := m.Called(ctx, create)
	if v := args.Get(0); v != nil {
		return v.(*store.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessageStore) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	args := m.Called(ctx, find)
	if v := args.Get(0); v != nil {
		return v.([]*store.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStore_PersistenceFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	ms := &mockMessageStore{}
	ms.On("GetLatestConversation", mock.Anything, "dave").Return(nil, boom)
	ms.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, boom)

	metrics := observability.NewMetrics()
	convs := NewStore(ms, nil, metrics)

	_, err := convs.EnsureConversation(ctx, "dave")
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodePersistenceFailure))

	_, err = convs.History(ctx, "dave", 0)
	assert.True(t, deskerrors.IsCode(err, deskerrors.ErrCodePersistenceFailure))

	assert.NotPanics(t, func() {
		convs.AppendMessageBestEffort(ctx, 1, store.MessageSenderUser, "hello")
	})
	assert.Equal(t, int64(1), metrics.Snapshot().ConversationWriteFailures)
	ms.AssertExpectations(t)
}

func TestEnsureConversation_CacheHitSkipsStore(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)
	require.NoError(t, c.Set(ctx, cachePrefix+"erin", []byte("42"), cacheTTL))

	ms := &mockMessageStore{}
	convs := NewStore(ms, c, observability.NewMetrics())

	id, err := convs.EnsureConversation(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, int32(42), id)
	ms.AssertNotCalled(t, "GetLatestConversation", mock.Anything, mock.Anything)
}
