package redisstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow-io/shopflow/internal/domain/cart"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCartRepository_SaveAndGet(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewCartRepository(client)
	ctx := context.Background()

	c := cart.New("sess-1")
	require.NoError(t, c.Add(cart.Item{ProductID: 1, Name: "mug", UnitPrice: 500, Quantity: 2}))
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.SessionID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(500), got.Items[0].UnitPrice)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCartRepository_GetMissing(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewCartRepository(client)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCartRepository_GetCorruptPayload(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewCartRepository(client)

	require.NoError(t, mr.Set("cart:sess-1", "{not json"))

	_, err := repo.Get(context.Background(), "sess-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrNotFound)
}

func TestCartRepository_SaveSetsTTL(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewCartRepository(client)

	c := cart.New("sess-1")
	require.NoError(t, repo.Save(context.Background(), c))

	ttl := mr.TTL("cart:sess-1")
	assert.GreaterOrEqual(t, ttl, 24*time.Hour)
	assert.Less(t, ttl, 25*time.Hour)
}

func TestCartRepository_Delete(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewCartRepository(client)
	ctx := context.Background()

	data, err := json.Marshal(cart.New("sess-1"))
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:sess-1", string(data)))

	require.NoError(t, repo.Delete(ctx, "sess-1"))
	_, err = repo.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestRateLimiter_AllowsWithinWindow(t *testing.T) {
	_, client := setupRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "attempt %d should pass", i+1)
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	_, client := setupRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
		require.NoError(t, err)
	}

	decision, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), decision.BlockedUntil, time.Minute)

	// Still blocked on the next call, via the cooldown key.
	decision, err = limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestRateLimiter_CooldownExpires(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
		require.NoError(t, err)
	}

	// Past the cooldown and the counting window, attempts pass again.
	mr.FastForward(16 * time.Minute)

	decision, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRateLimiter_IsolatesIdentifiers(t *testing.T) {
	_, client := setupRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.CheckAndIncrement(ctx, "user-1", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
		require.NoError(t, err)
	}

	decision, err := limiter.CheckAndIncrement(ctx, "user-2", "payments.initiate", 5, 5*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
