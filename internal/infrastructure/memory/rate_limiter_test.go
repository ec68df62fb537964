package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "attempt %d should pass", i+1)
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
		require.NoError(t, err)
	}

	decision, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), decision.BlockedUntil, time.Minute)

	// Another identifier is unaffected.
	decision, err = limiter.CheckAndIncrement(ctx, "user-2", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRateLimiter_CooldownOutlivesWindow(t *testing.T) {
	limiter := NewRateLimiter()
	ctx := context.Background()

	current := time.Now()
	limiter.now = func() time.Time { return current }

	for i := 0; i < 6; i++ {
		_, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
		require.NoError(t, err)
	}

	// The counting window has reset but the cooldown still applies.
	current = current.Add(6 * time.Minute)
	decision, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	current = current.Add(10 * time.Minute)
	decision, err = limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
