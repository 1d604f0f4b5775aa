// Package conversation keeps the append-only message history of each user.
package conversation

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	deskerrors "github.com/hrygo/erpdesk/internal/errors"
	"github.com/hrygo/erpdesk/internal/observability"
	"github.com/hrygo/erpdesk/plugin/cache"
	"github.com/hrygo/erpdesk/store"
)

const (
	cachePrefix = "conversation:current:"
	cacheTTL    = 30 * time.Minute
	// writeTimeout bounds a best-effort append once the caller's context is gone.
	writeTimeout = 5 * time.Second
)

// MessageStore is the persistence the conversation store needs. *store.Store satisfies it.
type MessageStore interface {
	GetLatestConversation(ctx context.Context, userID string) (*store.Conversation, error)
	CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error)
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
}

// Store resolves each user's current conversation and appends messages to it.
type Store struct {
	store   MessageStore
	cache   cache.CacheService
	group   singleflight.Group
	metrics *observability.Metrics
	now     func() time.Time
}

// NewStore creates a conversation store. cache may be nil.
func NewStore(s MessageStore, c cache.CacheService, metrics *observability.Metrics) *Store {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	return &Store{store: s, cache: c, metrics: metrics, now: time.Now}
}

// EnsureConversation returns the user's most recent conversation, creating one on first
// contact. Concurrent first contacts of the same user share a single creation.
func (s *Store) EnsureConversation(ctx context.Context, userID string) (int32, error) {
	if id, ok := s.loadFromCache(ctx, userID); ok {
		return id, nil
	}

	v, err, _ := s.group.Do(userID, func() (any, error) {
		conv, err := s.store.GetLatestConversation(ctx, userID)
		if err != nil {
			return nil, deskerrors.PersistenceFailure("failed to look up conversation", err)
		}
		if conv == nil {
			conv, err = s.store.CreateConversation(ctx, &store.Conversation{
				UserID:    userID,
				StartedAt: s.now().Unix(),
			})
			if err != nil {
				return nil, deskerrors.PersistenceFailure("failed to create conversation", err)
			}
			slog.Debug("started conversation", slog.String("user_id", userID), slog.Int("conversation_id", int(conv.ID)))
		}
		s.updateCache(ctx, userID, conv.ID)
		return conv.ID, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int32), nil
}

// AppendMessageBestEffort stores one message. Failures are logged and counted, never returned,
// and the write is attempted even when ctx is already cancelled.
func (s *Store) AppendMessageBestEffort(ctx context.Context, conversationID int32, sender store.MessageSender, content string) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	_, err := s.store.CreateMessage(writeCtx, &store.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      s.now().Unix(),
	})
	if err != nil {
		s.metrics.RecordConversationWriteFailure()
		slog.Warn("failed to append conversation message",
			slog.Int("conversation_id", int(conversationID)),
			slog.String("sender", string(sender)),
			slog.String("error", err.Error()))
	}
}

// History returns the most recent limit messages of the user's current conversation,
// oldest first.
// A user without a conversation has an empty history.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]*store.Message, error) {
	conv, err := s.store.GetLatestConversation(ctx, userID)
	if err != nil {
		return nil, deskerrors.PersistenceFailure("failed to look up conversation", err)
	}
	if conv == nil {
		return []*store.Message{}, nil
	}

	find := &store.FindMessage{ConversationID: &conv.ID}
	if limit > 0 {
		find.Limit = &limit
	}
	messages, err := s.store.ListMessages(ctx, find)
	if err != nil {
		return nil, deskerrors.PersistenceFailure("failed to list messages", err)
	}
	return messages, nil
}

func (s *Store) loadFromCache(ctx context.Context, userID string) (int32, bool) {
	if s.cache == nil {
		return 0, false
	}
	data, ok := s.cache.Get(ctx, cachePrefix+userID)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(string(data), 10, 32)
	if err != nil {
		slog.Warn("dropping malformed conversation cache entry", slog.String("user_id", userID))
		return 0, false
	}
	return int32(id), true
}

func (s *Store) updateCache(ctx context.Context, userID string, id int32) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cachePrefix+userID, []byte(strconv.FormatInt(int64(id), 10)), cacheTTL); err != nil {
		slog.Warn("failed to cache conversation", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}
