package cache_test

import (
	"testing"
	"time"

	"tour-route-service/internal/adapters/cache"
	"tour-route-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRouteCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewRedisRouteCache(client, time.Hour)
	ctx := t.Context()

	t.Run("miss", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "route:osrm:fixed:nothing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		want := domain.RouteResult{
			Waypoints:       []domain.Coordinate{{Latitude: 40.4168, Longitude: -3.7038}, {Latitude: 40.4153, Longitude: -3.7074}},
			DistanceMeters:  412.5,
			DurationSeconds: 297,
			Order:           []int{0, 1},
		}

		require.NoError(t, c.Put(ctx, "route:osrm:optimize:abc", want))

		got, ok, err := c.Get(ctx, "route:osrm:optimize:abc")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
		assert.Equal(t, time.Hour, mr.TTL("route:osrm:optimize:abc"))
	})

	t.Run("expired entries miss", func(t *testing.T) {
		require.NoError(t, c.Put(ctx, "route:short", domain.RouteResult{DistanceMeters: 1}))
		mr.FastForward(2 * time.Hour)

		_, ok, err := c.Get(ctx, "route:short")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		require.NoError(t, mr.Set("route:bad", "not json"))

		_, ok, err := c.Get(ctx, "route:bad")
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestOpenRedis(t *testing.T) {
	assert.Nil(t, cache.OpenRedis("", "", 0))

	client := cache.OpenRedis("localhost:6379", "secret", 2)
	require.NotNil(t, client)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()
}
