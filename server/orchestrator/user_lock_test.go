package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLocks(t *testing.T) {
	locks := newUserLocks()

	release, err := locks.acquire(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, locks.size())

	// Another user is not blocked.
	releaseBob, err := locks.acquire(context.Background(), "bob")
	require.NoError(t, err)
	releaseBob()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, "alice")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	assert.Zero(t, locks.size())

	release, err = locks.acquire(context.Background(), "alice")
	require.NoError(t, err)
	release()
}
