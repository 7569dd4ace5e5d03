package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/villadesk/internal/config"
)

const keyLoginAttempt = "villadesk:login:%s:%s"

// LoginLimiter throttles login attempts per username and client address.
// Without redis every attempt is allowed.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewLoginLimiter(cfg config.Config, client *redis.Client) *LoginLimiter {
	limitCfg := cfg.LoginRateLimit
	if client == nil || limitCfg.Rate <= 0 || limitCfg.Burst <= 0 {
		return &LoginLimiter{}
	}
	return &LoginLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.Rate,
		burst:  limitCfg.Burst,
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow reports whether another attempt may proceed and, if not, how long the
// caller should wait.
func (l *LoginLimiter) Allow(ctx context.Context, username, clientIP string) (bool, time.Duration, error) {
	if !l.Enabled() {
		return true, 0, nil
	}
	key := fmt.Sprintf(keyLoginAttempt,
		strings.ToLower(strings.TrimSpace(username)),
		strings.TrimSpace(clientIP),
	)
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		return false, 0, err
	}
	return res.Allowed, res.RetryAfter, nil
}
