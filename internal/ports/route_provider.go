package ports

import (
	"context"

	"tour-route-service/internal/domain"
)

// Contract for requesting walking paths from a directions provider.
type RouteProvider interface {
	// Return a path visiting points in the given order.
	Route(ctx context.Context, points []domain.Coordinate) (domain.RouteResult, error)
	// Return a path over points in a provider-chosen order that keeps points[0] first.
	// The result's Order maps visiting position to input index.
	Trip(ctx context.Context, points []domain.Coordinate) (domain.RouteResult, error)
}

// Optional cache for computed routes keyed by mode and input points.
type RouteCache interface {
	Get(ctx context.Context, key string) (domain.RouteResult, bool, error)
	Put(ctx context.Context, key string, result domain.RouteResult) error
}
