package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopflow-io/shopflow/internal/domain/cart"
)

// CartRepository persists carts as JSON blobs keyed by checkout session.
// Entries expire with a jittered TTL so a burst of idle carts does not
// fall out of Redis at the same instant.
type CartRepository struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewCartRepository(client *redis.Client) *CartRepository {
	return &CartRepository{
		client:  client,
		baseTTL: 24 * time.Hour,
	}
}

func (r *CartRepository) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Minute
	if err := r.client.Set(ctx, cartKey(c.SessionID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
