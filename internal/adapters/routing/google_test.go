package routing_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"tour-route-service/internal/adapters/routing"
	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

type mockDirectionsClient struct {
	mock.Mock
}

func (m *mockDirectionsClient) Directions(
	ctx context.Context,
	r *maps.DirectionsRequest,
) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	args := m.Called(ctx, r)
	routes, _ := args.Get(0).([]maps.Route)
	return routes, nil, args.Error(1)
}

func TestGoogleProvider(t *testing.T) {
	points := []domain.Coordinate{
		{Latitude: 40.4168, Longitude: -3.7038},
		{Latitude: 40.4200, Longitude: -3.7100},
		{Latitude: 40.4150, Longitude: -3.7070},
		{Latitude: 40.4130, Longitude: -3.7000},
	}
	overview := maps.Polyline{Points: geo.EncodePolyline(points)}
	legs := []*maps.Leg{
		{Distance: maps.Distance{Meters: 300}, Duration: 4 * time.Minute},
		{Distance: maps.Distance{Meters: 200}, Duration: 3 * time.Minute},
		{Distance: maps.Distance{Meters: 100}, Duration: time.Minute},
	}

	t.Run("fixed order keeps waypoints as given", func(t *testing.T) {
		client := &mockDirectionsClient{}
		provider := routing.NewGoogleProvider(client, slog.Default())

		client.On("Directions", mock.Anything, mock.MatchedBy(func(r *maps.DirectionsRequest) bool {
			return r.Mode == maps.TravelModeWalking && !r.Optimize && len(r.Waypoints) == 2 &&
				r.Origin == "40.416800,-3.703800" && r.Destination == "40.413000,-3.700000"
		})).Return([]maps.Route{{OverviewPolyline: overview, Legs: legs}}, nil).Once()

		res, err := provider.Route(t.Context(), points)
		require.NoError(t, err)
		assert.InDelta(t, 600.0, res.DistanceMeters, 0)
		assert.InDelta(t, 480.0, res.DurationSeconds, 0)
		require.Len(t, res.Waypoints, len(points))
		assert.InDelta(t, points[0].Latitude, res.Waypoints[0].Latitude, 1e-5)
		assert.Nil(t, res.Order)
		client.AssertExpectations(t)
	})

	t.Run("optimize expands waypoint order", func(t *testing.T) {
		client := &mockDirectionsClient{}
		provider := routing.NewGoogleProvider(client, slog.Default())

		client.On("Directions", mock.Anything, mock.MatchedBy(func(r *maps.DirectionsRequest) bool {
			return r.Optimize
		})).Return([]maps.Route{{OverviewPolyline: overview, Legs: legs, WaypointOrder: []int{1, 0}}}, nil).Once()

		res, err := provider.Trip(t.Context(), points)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 1, 3}, res.Order)
		client.AssertExpectations(t)
	})

	t.Run("api error", func(t *testing.T) {
		client := &mockDirectionsClient{}
		provider := routing.NewGoogleProvider(client, slog.Default())

		client.On("Directions", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

		_, err := provider.Route(t.Context(), points)
		require.ErrorIs(t, err, domain.ErrRouteComputationFailed)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("empty response", func(t *testing.T) {
		client := &mockDirectionsClient{}
		provider := routing.NewGoogleProvider(client, slog.Default())

		client.On("Directions", mock.Anything, mock.Anything).Return([]maps.Route{}, nil).Once()

		_, err := provider.Trip(t.Context(), points)
		require.ErrorIs(t, err, domain.ErrRouteComputationFailed)
		assert.ErrorContains(t, err, "no route returned")
	})
}

func TestStraightLineProvider(t *testing.T) {
	provider := routing.NewStraightLineProvider()
	points := []domain.Coordinate{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 0.002}, {Latitude: 0, Longitude: 0.001}}

	res, err := provider.Route(t.Context(), points)
	require.NoError(t, err)
	assert.Equal(t, points, res.Waypoints)
	assert.InDelta(t, geo.RouteLength(points), res.DistanceMeters, 1e-9)
	assert.InDelta(t, res.DistanceMeters/1.4, res.DurationSeconds, 1e-9)

	trip, err := provider.Trip(t.Context(), points)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, trip.Order)
	assert.Equal(t, []domain.Coordinate{points[0], points[2], points[1]}, trip.Waypoints)
}

func TestNewProvider(t *testing.T) {
	t.Run("osrm by default", func(t *testing.T) {
		p, err := routing.NewProvider(routing.ProviderConfig{Logger: slog.Default()})
		require.NoError(t, err)
		assert.IsType(t, &routing.OSRMProvider{}, p)
	})

	t.Run("straight", func(t *testing.T) {
		p, err := routing.NewProvider(routing.ProviderConfig{Type: routing.ProviderTypeStraight})
		require.NoError(t, err)
		assert.IsType(t, &routing.StraightLineProvider{}, p)
	})

	t.Run("google requires key", func(t *testing.T) {
		_, err := routing.NewProvider(routing.ProviderConfig{Type: routing.ProviderTypeGoogle})
		require.ErrorContains(t, err, "API key is required")
	})

	t.Run("google", func(t *testing.T) {
		p, err := routing.NewProvider(routing.ProviderConfig{Type: routing.ProviderTypeGoogle, APIKey: "AIzaFakeKey", RateLimit: 5})
		require.NoError(t, err)
		assert.IsType(t, &routing.GoogleProvider{}, p)
	})

	t.Run("ors requires key", func(t *testing.T) {
		_, err := routing.NewProvider(routing.ProviderConfig{Type: routing.ProviderTypeORS})
		require.ErrorContains(t, err, "ORS api key is empty")
	})

	t.Run("ors", func(t *testing.T) {
		p, err := routing.NewProvider(routing.ProviderConfig{Type: routing.ProviderTypeORS, APIKey: "ors-key", Profile: "foot"})
		require.NoError(t, err)
		assert.IsType(t, &routing.ORSProvider{}, p)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := routing.NewProvider(routing.ProviderConfig{Type: "teleport"})
		require.ErrorContains(t, err, "unsupported routing provider type")
	})
}
