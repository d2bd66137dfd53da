package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every replica. The first
// hit in a window creates the key with the window as its TTL.
type RedisLimiter struct {
	client redis.Cmdable
	cfg    Config
}

func NewRedisLimiter(client redis.Cmdable, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg.withDefaults()}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := l.cfg.Prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.cfg.Window)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check: %w", err)
	}

	return decide(incr.Val(), ttl.Val(), l.cfg), nil
}

func decide(count int64, ttl time.Duration, cfg Config) Decision {
	if count <= int64(cfg.Limit) {
		return Decision{Allowed: true, Remaining: cfg.Limit - int(count)}
	}
	// PTTL reports -1 or -2 when the key has no expiry or is gone
	if ttl <= 0 {
		ttl = cfg.Window
	}
	return Decision{Allowed: false, RetryAfter: ttl}
}
