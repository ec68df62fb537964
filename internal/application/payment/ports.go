package payment

import (
	"context"
	"time"
)

// IDGenerator issues payment record identifiers.
type IDGenerator interface {
	NewID() string
}

// RateLimitDecision reports whether an attempt may proceed. BlockedUntil is
// set whenever Allowed is false.
type RateLimitDecision struct {
	Allowed      bool
	BlockedUntil time.Time
}

// RateLimiter gates attempts keyed by (identifier, endpoint). Exceeding
// maxAttempts within the window imposes a cooldown of block, regardless of
// the window resetting in the meantime.
type RateLimiter interface {
	CheckAndIncrement(ctx context.Context, identifier, endpoint string, maxAttempts int, window, block time.Duration) (RateLimitDecision, error)
}
