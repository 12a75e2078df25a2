package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

// RedisRouteCache stores computed routes keyed by provider, mode and input points.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{client: client, ttl: ttl}
}

// OpenRedis returns a client for addr, or nil when no address is configured.
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// Fetch a cached route. A miss returns ok == false and no error.
func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.client == nil {
		return domain.RouteResult{}, false, errors.New("route cache: redis client is nil")
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RouteResult{}, false, nil
	}
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: %w", err)
	}

	res, err := decodeRoute(raw)
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: decode %q: %w", key, err)
	}

	return res, true, nil
}

// Store a computed route with the configured TTL.
func (c *RedisRouteCache) Put(ctx context.Context, key string, result domain.RouteResult) error {
	if c.client == nil {
		return errors.New("route cache: redis client is nil")
	}

	raw, err := encodeRoute(result)
	if err != nil {
		return fmt.Errorf("insert route cache: encode: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}
