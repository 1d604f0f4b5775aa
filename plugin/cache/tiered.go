package cache

import (
	"context"
	"log/slog"
	"time"
)

// TieredCache checks a fast local cache before a shared one.
//   - L1: in-process Service
//   - L2: optional shared cache such as Redis
//
// Hits in L2 are promoted into L1. L2 failures degrade to L1-only behaviour.
type TieredCache struct {
	l1 CacheService
	l2 CacheService
}

// NewTieredCache creates a tiered cache. l2 may be nil.
func NewTieredCache(l1, l2 CacheService) *TieredCache {
	return &TieredCache{l1: l1, l2: l2}
}

func (t *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if value, ok := t.l1.Get(ctx, key); ok {
		return value, true
	}
	if t.l2 == nil {
		return nil, false
	}
	value, ok := t.l2.Get(ctx, key)
	if !ok {
		return nil, false
	}
	_ = t.l1.Set(ctx, key, value, 0)
	return value, true
}

func (t *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if t.l2 != nil {
		if err := t.l2.Set(ctx, key, value, ttl); err != nil {
			slog.Warn("failed to write l2 cache", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return nil
}

var _ CacheService = (*TieredCache)(nil)
