package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a Limiter backed by Redis, so every replica draws from
// the same buckets. Keys are namespaced with prefix.
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRedisRateLimiter creates a RedisRateLimiter using a GCRA limit of
// RequestsPerMinute with BurstSize.
func NewRedisRateLimiter(client *redis.Client, prefix string, config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit: redis_rate.Limit{
			Rate:   config.RequestsPerMinute,
			Burst:  config.BurstSize,
			Period: time.Minute,
		},
		prefix: prefix,
	}
}

// Limit returns the configured requests per minute
func (rl *RedisRateLimiter) Limit() int {
	return rl.limit.Rate
}

// Allow takes one token from key's shared bucket
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	res, err := rl.limiter.Allow(ctx, rl.prefix+key, rl.limit)
	if err != nil {
		return false, 0, fmt.Errorf("failed to check redis rate limit: %w", err)
	}
	return res.Allowed > 0, res.Remaining, nil
}
