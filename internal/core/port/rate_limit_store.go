package port

import (
	"context"
	"time"
)

// RateLimitResult reports the outcome of a single limiter check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns the wait until the next window relative to now.
func (r RateLimitResult) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetTime.Sub(now); d > 0 {
		return d
	}
	return 0
}

// RateLimiter enforces fixed-window attempt limits keyed by an arbitrary identifier.
type RateLimiter interface {
	Check(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (RateLimitResult, error)
}
