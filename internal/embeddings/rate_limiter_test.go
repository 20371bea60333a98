package embeddings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowConsumesTokensThenBlocks(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimiter_RefillsAfterElapsedWindow(t *testing.T) {
	rl := NewRateLimiter(1, time.Millisecond)

	require.True(t, rl.Allow())
	require.False(t, rl.Allow())

	time.Sleep(5 * time.Millisecond)
	assert.True(t, rl.Allow())
}

func TestRateLimiter_WaitReturnsOnContextCancellation(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
