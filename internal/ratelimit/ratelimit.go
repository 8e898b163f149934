// Package ratelimit implements a sliding-window request limiter on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// Limiter decides whether another request under key fits the window
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter keeps one sorted set per key, scored by request time in microseconds
type RedisLimiter struct {
	rdb    *goredis.Client
	limit  int
	window time.Duration
	prefix string
	log    *log.Logger
}

// New connects to Redis and pings it. An empty address returns (nil, nil): limiting is disabled.
func New(cfg *config.Config) (*RedisLimiter, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	l := NewWithClient(rdb, cfg.AdminGrant.RateLimit, cfg.AdminGrant.RateWindow)
	l.log.Info("Redis rate limiter connected", "addr", cfg.Redis.Addr, "limit", l.limit, "window", l.window)
	return l, nil
}

// NewWithClient wraps an existing client
func NewWithClient(rdb *goredis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "rate_limit:",
		log:    logger.Service("ratelimit"),
	}
}

// Allow records the request and reports whether it is within the limit.
// Rejected requests are recorded too, so a client hammering the endpoint stays blocked.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	k := l.prefix + key
	cutoff := now.Add(-l.window).UnixMicro()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, k, goredis.Z{Score: float64(now.UnixMicro()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, k)
	pipe.Expire(ctx, k, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed := count.Val() <= int64(l.limit)
	if !allowed {
		l.log.Warn("Rate limit exceeded", "key", key, "count", count.Val(), "limit", l.limit)
	}
	return allowed, nil
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}
