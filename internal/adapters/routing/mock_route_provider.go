package routing

import (
	"context"
	"fmt"
	"sync/atomic"

	"tour-route-service/internal/domain"
)

// MockRouteProvider answers from canned functions and counts calls.
type MockRouteProvider struct {
	RouteFn func(ctx context.Context, points []domain.Coordinate) (domain.RouteResult, error)
	TripFn  func(ctx context.Context, points []domain.Coordinate) (domain.RouteResult, error)

	calls atomic.Int32
}

func (m *MockRouteProvider) Route(ctx context.Context, points []domain.Coordinate) (domain.RouteResult, error) {
	m.calls.Add(1)
	if m.RouteFn == nil {
		return domain.RouteResult{}, fmt.Errorf("mock route provider: no RouteFn for %d points", len(points))
	}
	return m.RouteFn(ctx, points)
}

func (m *MockRouteProvider) Trip(ctx context.Context, points []domain.Coordinate) (domain.RouteResult, error) {
	m.calls.Add(1)
	if m.TripFn == nil {
		return domain.RouteResult{}, fmt.Errorf("mock route provider: no TripFn for %d points", len(points))
	}
	return m.TripFn(ctx, points)
}

// Calls returns how many requests reached the provider.
func (m *MockRouteProvider) Calls() int {
	return int(m.calls.Load())
}
