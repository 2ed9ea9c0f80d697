package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// Collection keys shared by the service layer.
const (
	KeyContracts   = "contracts"
	KeyObligations = "obligations"
	KeyCategories  = "categories"
)

// Cache stores whole collections under a key. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}) error         { return nil }
func (Noop) Invalidate(context.Context, ...string) error            { return nil }

// RedisCache stores JSON values under "<prefix><key>" with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a Redis-based cache. Prefix may be empty; ttl <= 0 defaults to one minute.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "cache:"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues(key, "miss").Inc()
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// a value we cannot decode is treated as a miss and dropped
		_ = c.client.Del(ctx, c.key(key)).Err()
		metrics.CacheLookups.WithLabelValues(key, "miss").Inc()
		return false, nil
	}
	metrics.CacheLookups.WithLabelValues(key, "hit").Inc()
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), b, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	return c.client.Del(ctx, full...).Err()
}
