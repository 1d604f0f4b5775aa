// Package cache provides small byte caches used to keep hot lookups
// (such as a user's current conversation id) off the database.
package cache

import (
	"context"
	"time"
)

// CacheService defines the cache service interface.
type CacheService interface {
	// Get returns the cached value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. A non-positive ttl uses the implementation default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
