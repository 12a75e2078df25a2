package cache_test

import (
	"regexp"
	"testing"
	"time"

	"tour-route-service/internal/adapters/cache"
	"tour-route-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectRouteCache = `FROM route_cache`
	upsertRouteCache = `INSERT INTO route_cache (cache_key, result, expires_at)`
)

func TestPostgresRouteCacheGet(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("hit", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := cache.NewPostgresRouteCache(mock, time.Hour)

		mock.ExpectQuery(regexp.QuoteMeta(selectRouteCache)).
			WithArgs("route:osrm:fixed:abc", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"result"}).
				AddRow([]byte(`{"w":[[40.4168,-3.7038],[40.4153,-3.7074]],"d":412.5,"t":297}`)))

		got, ok, err := c.Get(ctx, "route:osrm:fixed:abc")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.RouteResult{
			Waypoints:       []domain.Coordinate{{Latitude: 40.4168, Longitude: -3.7038}, {Latitude: 40.4153, Longitude: -3.7074}},
			DistanceMeters:  412.5,
			DurationSeconds: 297,
		}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := cache.NewPostgresRouteCache(mock, time.Hour)

		mock.ExpectQuery(regexp.QuoteMeta(selectRouteCache)).
			WithArgs("route:none", pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)

		_, ok, err := c.Get(ctx, "route:none")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := cache.NewPostgresRouteCache(mock, time.Hour)

		mock.ExpectQuery(regexp.QuoteMeta(selectRouteCache)).
			WithArgs("route:x", pgxmock.AnyArg()).
			WillReturnError(assert.AnError)

		_, ok, err := c.Get(ctx, "route:x")
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "query route_cache table")
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, _, err = cache.NewPostgresRouteCache(mock, time.Hour).Get(ctx, "  ")
		require.Error(t, err)
	})
}

func TestPostgresRouteCachePut(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("upsert", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := cache.NewPostgresRouteCache(mock, time.Hour)

		mock.ExpectExec(regexp.QuoteMeta(upsertRouteCache)).
			WithArgs("route:k", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, c.Put(ctx, "route:k", domain.RouteResult{DistanceMeters: 10, Order: []int{0, 1}}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		c := cache.NewPostgresRouteCache(mock, time.Hour)

		mock.ExpectExec(regexp.QuoteMeta(upsertRouteCache)).
			WithArgs("route:k", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(assert.AnError)

		err = c.Put(ctx, "route:k", domain.RouteResult{})
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
