package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
)

// FixedWindowConfig defines configuration for the shared fixed-window limiter.
type FixedWindowConfig struct {
	KeyPrefix string
}

// RateLimitRepository counts attempts per fixed window in Redis so several
// instances can share one allowance.
type RateLimitRepository struct {
	client *redis.Client
	cfg    FixedWindowConfig
	now    func() time.Time
}

// NewRateLimitRepository constructs a repository using the provided Redis client and config.
func NewRateLimitRepository(client *redis.Client, cfg FixedWindowConfig) *RateLimitRepository {
	return &RateLimitRepository{client: client, cfg: cfg, now: time.Now}
}

// WithClock overrides the time source.
func (r *RateLimitRepository) WithClock(now func() time.Time) *RateLimitRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// fixedWindowScript increments the bucket only while it is below the limit, so a
// rejected attempt is never counted. Returns the new count, or -1 when rejected.
var fixedWindowScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
	return -1
end
current = redis.call("INCR", KEYS[1])
redis.call("PEXPIREAT", KEYS[1], ARGV[2])
return current
`)

// Check counts an attempt for the current bucket unless it already holds maxAttempts.
// The check and increment run as one script, matching the process-local limiter:
// rejected attempts do not consume allowance.
func (r *RateLimitRepository) Check(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (port.RateLimitResult, error) {
	if window <= 0 {
		return port.RateLimitResult{}, errors.New("window must be positive")
	}

	now := r.now()
	bucket := now.UnixMilli() / window.Milliseconds()
	reset := time.UnixMilli((bucket + 1) * window.Milliseconds())
	key := r.key(fmt.Sprintf("%s:%d", identifier, bucket))

	count, err := fixedWindowScript.Run(ctx, r.client, []string{key}, maxAttempts, reset.UnixMilli()).Int()
	if err != nil {
		return port.RateLimitResult{}, fmt.Errorf("redis rate limit script: %w", err)
	}
	if count < 0 {
		return port.RateLimitResult{Allowed: false, Remaining: 0, ResetTime: reset}, nil
	}

	return port.RateLimitResult{Allowed: true, Remaining: maxAttempts - count, ResetTime: reset}, nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.cfg.KeyPrefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", r.cfg.KeyPrefix, identifier)
}

var _ port.RateLimiter = (*RateLimitRepository)(nil)
