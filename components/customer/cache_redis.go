package customer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "customer-dashboard:"

// RedisCache stores rendered fragments in Redis hashes (one hash per key, one
// field per variant) so several server replicas share the same cache.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisCacheOption customizes RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisPrefix overrides the key prefix.
func WithRedisPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// WithRedisLogger logs cache failures.
func WithRedisLogger(logger *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRedisCache wraps a go-redis client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: defaultRedisPrefix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrRender reads through Redis. Redis failures degrade to a direct render.
func (c *RedisCache) GetOrRender(ctx context.Context, key, variant string, render func() (string, error)) (string, error) {
	if c.client == nil || c.ttl <= 0 {
		return render()
	}
	redisKey := c.prefix + key
	html, err := c.client.HGet(ctx, redisKey, variant).Result()
	switch {
	case err == nil:
		return html, nil
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "redis cache read failed", "key", redisKey, "error", err)
	}

	html, err = render()
	if err != nil {
		return "", err
	}
	if html == "" {
		return html, nil
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, redisKey, variant, html)
	pipe.Expire(ctx, redisKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "redis cache write failed", "key", redisKey, "error", err)
	}
	return html, nil
}

// Invalidate deletes the hash holding every variant of key.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}
