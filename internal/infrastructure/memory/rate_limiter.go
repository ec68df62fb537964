package memory

import (
	"context"
	"sync"
	"time"

	apppayment "github.com/shopflow-io/shopflow/internal/application/payment"
)

type limiterEntry struct {
	count        int
	windowEnd    time.Time
	blockedUntil time.Time
}

// RateLimiter is the in-process fixed-window limiter used when no Redis
// address is configured. Windows reset on process restart.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (l *RateLimiter) CheckAndIncrement(ctx context.Context, identifier, endpoint string, maxAttempts int, window, block time.Duration) (apppayment.RateLimitDecision, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := endpoint + ":" + identifier

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{windowEnd: now.Add(window)}
		l.entries[key] = e
	}

	if now.Before(e.blockedUntil) {
		return apppayment.RateLimitDecision{
			Allowed:      false,
			BlockedUntil: e.blockedUntil,
		}, nil
	}

	// The cooldown outlives the counting window, so the block check above
	// must run before the window resets.
	if now.After(e.windowEnd) {
		e.count = 0
		e.windowEnd = now.Add(window)
	}

	e.count++
	if e.count > maxAttempts {
		e.blockedUntil = now.Add(block)
		return apppayment.RateLimitDecision{
			Allowed:      false,
			BlockedUntil: e.blockedUntil,
		}, nil
	}

	return apppayment.RateLimitDecision{Allowed: true}, nil
}
