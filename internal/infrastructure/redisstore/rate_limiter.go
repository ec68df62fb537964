package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apppayment "github.com/shopflow-io/shopflow/internal/application/payment"
)

// RateLimiter implements a fixed-window counter with a separate cooldown
// key. Once the attempt count inside the window exceeds the limit, the
// identifier is blocked until the cooldown key expires.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (l *RateLimiter) CheckAndIncrement(ctx context.Context, identifier, endpoint string, maxAttempts int, window, block time.Duration) (apppayment.RateLimitDecision, error) {
	blockKey := fmt.Sprintf("ratelimit:block:%s:%s", endpoint, identifier)
	countKey := fmt.Sprintf("ratelimit:count:%s:%s", endpoint, identifier)

	ttl, err := l.client.TTL(ctx, blockKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return apppayment.RateLimitDecision{}, fmt.Errorf("rate limiter block lookup failed: %w", err)
	}
	if ttl > 0 {
		return apppayment.RateLimitDecision{
			Allowed:      false,
			BlockedUntil: time.Now().Add(ttl),
		}, nil
	}

	count, err := l.client.Incr(ctx, countKey).Result()
	if err != nil {
		return apppayment.RateLimitDecision{}, fmt.Errorf("rate limiter increment failed: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, countKey, window).Err(); err != nil {
			return apppayment.RateLimitDecision{}, fmt.Errorf("rate limiter window expire failed: %w", err)
		}
	}

	if count > int64(maxAttempts) {
		if err := l.client.Set(ctx, blockKey, "1", block).Err(); err != nil {
			return apppayment.RateLimitDecision{}, fmt.Errorf("rate limiter block set failed: %w", err)
		}
		return apppayment.RateLimitDecision{
			Allowed:      false,
			BlockedUntil: time.Now().Add(block),
		}, nil
	}

	return apppayment.RateLimitDecision{Allowed: true}, nil
}
