package availability

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veldclinics/booking-platform/pkg/logging"
)

// RedisCache is a Cache backed by Redis, for deployments running more than
// one API instance. Redis errors degrade to cache misses; availability never
// fails because the cache is down.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisCache creates a Redis-backed availability cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisCache {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the stored value for key, or a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("availability: redis cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("availability: redis cache set failed", "key", key, "error", err)
	}
}
