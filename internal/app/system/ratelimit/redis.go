package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fieldaudit:rl:"

// RedisLimiter is a fixed-window Counter shared across instances.
type RedisLimiter struct {
	client   *redis.Client
	name     string
	limit    int64
	duration time.Duration
}

var _ Counter = (*RedisLimiter)(nil)

// NewRedis creates a counter whose keys are namespaced by name.
func NewRedis(client *redis.Client, name string, limit int, duration time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, name: name, limit: int64(limit), duration: duration}
}

func (l *RedisLimiter) key(k string) string {
	return redisKeyPrefix + l.name + ":" + k
}

// Allow increments the window counter, starting its TTL on first use.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.duration)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit %s: %w", l.name, err)
	}
	return incr.Val() <= l.limit, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

// Connect parses url, dials and pings. An empty url returns nil, nil.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
