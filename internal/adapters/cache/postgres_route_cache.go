package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/platform/db"
	"tour-route-service/internal/platform/obs"

	"github.com/jackc/pgx/v5"
)

// PostgresRouteCache keeps computed routes in the route_cache table.
// It serves deployments that run without Redis.
type PostgresRouteCache struct {
	db  db.Querier
	ttl time.Duration
	now func() time.Time
}

func NewPostgresRouteCache(q db.Querier, ttl time.Duration) *PostgresRouteCache {
	return &PostgresRouteCache{db: q, ttl: ttl, now: time.Now}
}

// Fetch a cached route that has not expired yet.
func (c *PostgresRouteCache) Get(ctx context.Context, key string) (_ domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.pg.Get")(&err)

	if c.db == nil {
		return domain.RouteResult{}, false, errors.New("route cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return domain.RouteResult{}, false, errors.New("get route cache: key must not be empty")
	}

	q := `
	SELECT result
	FROM route_cache
	WHERE cache_key = $1
		AND expires_at > $2;
	`

	var raw []byte
	err = c.db.QueryRow(ctx, q, key, c.now().UTC()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RouteResult{}, false, nil
	}
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	res, err := decodeRoute(raw)
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: decode %q: %w", key, err)
	}

	return res, true, nil
}

// Store a computed route, replacing any previous entry for the key.
func (c *PostgresRouteCache) Put(ctx context.Context, key string, result domain.RouteResult) error {
	if c.db == nil {
		return errors.New("route cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert route cache: key must not be empty")
	}

	raw, err := encodeRoute(result)
	if err != nil {
		return fmt.Errorf("insert route cache: encode: %w", err)
	}

	q := `
	INSERT INTO route_cache (cache_key, result, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE
	SET result = EXCLUDED.result,
		expires_at = EXCLUDED.expires_at;
	`

	if _, err := c.db.Exec(ctx, q, key, raw, c.now().UTC().Add(c.ttl)); err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}
