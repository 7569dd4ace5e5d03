package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExcludesSecondHolder(t *testing.T) {
	lock := NewLocalLocker()
	ctx := context.Background()

	token, ok, err := lock.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A stale token does not release someone else's lock.
	require.NoError(t, lock.Release(ctx, "k", "other"))
	_, ok, _ = lock.TryLock(ctx, "k", time.Minute)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "k", token))
	_, ok, err = lock.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerExpires(t *testing.T) {
	lock := NewLocalLocker()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lock.nowFn = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := lock.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, err = lock.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockValidation(t *testing.T) {
	lock := NewLock(nil)
	_, _, err := lock.TryLock(context.Background(), "", time.Second)
	assert.Error(t, err)
	_, _, err = lock.TryLock(context.Background(), "k", 0)
	assert.Error(t, err)
}

func TestLoginLimiterWithoutRedisAllows(t *testing.T) {
	limiter := NewLoginLimiter(config.Config{LoginRateLimit: config.LoginRateLimitConfig{Rate: 1, Burst: 1}}, nil)
	assert.False(t, limiter.Enabled())

	for i := 0; i < 10; i++ {
		ok, wait, err := limiter.Allow(context.Background(), "admin", "127.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, wait)
	}
}

func TestBucketHelpers(t *testing.T) {
	assert.Equal(t, 10*time.Second, defaultBucketTTL(1, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 5))
	assert.Equal(t, int64(3), castToInt(int64(3)))
	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Zero(t, castToFloat("x"))
}
