// Package ratelimit provides the process-local fixed-window limiter used on
// credential submission endpoints. Counters live in memory, so several replicas
// each enforce their own allowance.
package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
)

// DefaultGCThreshold is the number of live keys that triggers a sweep of elapsed buckets.
const DefaultGCThreshold = 10000

type bucket struct {
	count int
	end   time.Time
}

// Limiter counts attempts per identifier in fixed windows addressed by floor(now/window).
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	gcThreshold int
	now         func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithGCThreshold sets the map size above which elapsed buckets are swept.
func WithGCThreshold(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.gcThreshold = n
		}
	}
}

// New constructs an empty limiter.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		buckets:     make(map[string]*bucket),
		gcThreshold: DefaultGCThreshold,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Check records an attempt for identifier unless the current bucket already holds maxAttempts.
// Rejected attempts are not counted.
func (l *Limiter) Check(_ context.Context, identifier string, maxAttempts int, window time.Duration) (port.RateLimitResult, error) {
	if window <= 0 {
		return port.RateLimitResult{}, errors.New("ratelimit: window must be positive")
	}

	now := l.now()
	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1
	}
	index := now.UnixMilli() / windowMs
	reset := time.UnixMilli((index + 1) * windowMs)
	key := bucketKey(identifier, index)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.gcThreshold {
			l.sweep(now)
		}
		b = &bucket{end: reset}
		l.buckets[key] = b
	}

	if b.count >= maxAttempts {
		return port.RateLimitResult{Allowed: false, Remaining: 0, ResetTime: reset}, nil
	}

	b.count++
	return port.RateLimitResult{Allowed: true, Remaining: maxAttempts - b.count, ResetTime: reset}, nil
}

// Len reports the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep drops buckets whose window has fully elapsed. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if !now.Before(b.end) {
			delete(l.buckets, key)
		}
	}
}

func bucketKey(identifier string, index int64) string {
	var sb strings.Builder
	sb.Grow(len(identifier) + 21)
	sb.WriteString(identifier)
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatInt(index, 10))
	return sb.String()
}

var _ port.RateLimiter = (*Limiter)(nil)
