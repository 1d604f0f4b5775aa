package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCacheService is a testify mock of CacheService.
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Get(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)
	return value, args.Bool(1)
}

func (m *MockCacheService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

var _ CacheService = (*MockCacheService)(nil)
