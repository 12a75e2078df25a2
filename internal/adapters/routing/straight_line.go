package routing

import (
	"context"
	"slices"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
)

// Average walking speed used to estimate durations.
const walkingSpeedMetersPerSecond = 1.4

// StraightLineProvider connects points with straight segments without any network call.
// It serves offline deployments and local development.
type StraightLineProvider struct{}

func NewStraightLineProvider() *StraightLineProvider {
	return &StraightLineProvider{}
}

func (StraightLineProvider) Route(_ context.Context, points []domain.Coordinate) (domain.RouteResult, error) {
	return straightLine(slices.Clone(points)), nil
}

// Trip orders points with a nearest-neighbor walk from the first point.
func (StraightLineProvider) Trip(_ context.Context, points []domain.Coordinate) (domain.RouteResult, error) {
	order := geo.NearestNeighborOrder(points)

	ordered := make([]domain.Coordinate, 0, len(points))
	for _, i := range order {
		ordered = append(ordered, points[i])
	}

	result := straightLine(ordered)
	result.Order = order
	return result, nil
}

func straightLine(points []domain.Coordinate) domain.RouteResult {
	dist := geo.RouteLength(points)
	return domain.RouteResult{
		Waypoints:       points,
		DistanceMeters:  dist,
		DurationSeconds: dist / walkingSpeedMetersPerSecond,
	}
}
