package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestLimiterAllowsUpToMax(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 5, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := l.Check(ctx, "login:198.51.100.1", 5, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed, "attempt %d", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res, err := l.Check(ctx, "login:198.51.100.1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Date(2025, 10, 12, 10, 1, 0, 0, time.UTC), res.ResetTime.UTC())
	assert.Equal(t, 55*time.Second, res.RetryAfter(now))
}

func TestLimiterIdentifiersAreIndependent(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 5, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	ctx := context.Background()

	_, _ = l.Check(ctx, "a", 1, time.Minute)
	blocked, _ := l.Check(ctx, "a", 1, time.Minute)
	require.False(t, blocked.Allowed)

	other, err := l.Check(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestLimiterFreshAllowanceAtBucketBoundary(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 59, 900_000_000, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	ctx := context.Background()

	first, _ := l.Check(ctx, "x", 1, time.Minute)
	require.True(t, first.Allowed)
	second, _ := l.Check(ctx, "x", 1, time.Minute)
	require.False(t, second.Allowed)

	now = now.Add(200 * time.Millisecond)
	third, err := l.Check(ctx, "x", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, third.Allowed)
}

func TestLimiterSweepsElapsedBuckets(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)), WithGCThreshold(3))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, _ = l.Check(ctx, id, 5, time.Minute)
	}
	require.Equal(t, 3, l.Len())

	now = now.Add(2 * time.Minute)
	_, _ = l.Check(ctx, "d", 5, time.Minute)
	assert.Equal(t, 1, l.Len())
}

func TestLimiterConcurrentChecksNeverOveradmit(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Check(ctx, "shared", 10, time.Minute)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed.Load())
}

func TestLimiterRejectsNonPositiveWindow(t *testing.T) {
	l := New()
	_, err := l.Check(context.Background(), "x", 1, 0)
	assert.Error(t, err)
}
