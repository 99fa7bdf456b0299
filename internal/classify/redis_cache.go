package classify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leefowlercu/imagedrop/internal/metrics"
)

// DefaultRedisKeyPrefix namespaces probe results in a shared Redis.
const DefaultRedisKeyPrefix = "imagedrop:probe:"

const redisOpTimeout = 250 * time.Millisecond

// RedisCache shares probe results between processes. Redis errors are
// treated as misses so a lost cache only costs extra probes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

// NewRedisCache creates a cache on client whose entries expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: DefaultRedisKeyPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached result for rawURL.
func (c *RedisCache) Get(rawURL string) (bool, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, c.key(rawURL)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("probe cache read failed", "error", err)
		}
		metrics.RecordCacheAccess("probe_redis", false)
		return false, false
	}

	metrics.RecordCacheAccess("probe_redis", true)
	return val == "1", true
}

// Put stores a result for rawURL.
func (c *RedisCache) Put(rawURL string, isImage bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val := "0"
	if isImage {
		val = "1"
	}
	if err := c.client.Set(ctx, c.key(rawURL), val, c.ttl).Err(); err != nil {
		c.logger.Debug("probe cache write failed", "error", err)
	}
}

// Ping checks that the Redis server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
