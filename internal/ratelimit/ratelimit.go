package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/drawcard/drawcard/internal/config"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Limiter is a keyed, TTL-bearing counter. State lives in redis, not process
// memory, so limits hold across horizontally scaled stateless instances.
type Limiter interface {
	// Allow consumes one unit for the key and reports whether the key is
	// still within its window budget. Limiter failures fail open: the core
	// must never be blocked by the rate-limit store being down.
	Allow(ctx context.Context, key string) (bool, error)
}

type redisLimiter struct {
	client   *redis.Client
	log      *logger.Logger
	requests int
	window   time.Duration
	enabled  bool
}

// NewRedisLimiter builds a limiter from configuration.
func NewRedisLimiter(cfg *config.Configuration, log *logger.Logger) Limiter {
	var client *redis.Client
	if cfg.RateLimit.Enabled {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return &redisLimiter{
		client:   client,
		log:      log,
		requests: cfg.RateLimit.Requests,
		window:   time.Duration(cfg.RateLimit.WindowS) * time.Second,
		enabled:  cfg.RateLimit.Enabled,
	}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if !l.enabled {
		return true, nil
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warnw("rate limit store unavailable, failing open", "key", key, "error", err)
		return true, nil
	}
	if count == 1 {
		// First hit in this window: start the TTL.
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.log.Warnw("failed to set rate limit window", "key", key, "error", err)
		}
	}

	return count <= int64(l.requests), nil
}

// NoopLimiter always allows. Used in tests.
type NoopLimiter struct{}

func (NoopLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}
