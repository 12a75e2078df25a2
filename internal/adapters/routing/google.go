package routing

import (
	"context"
	"fmt"
	"log/slog"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/platform/obs"

	"googlemaps.github.io/maps"
)

// DirectionsClient is the part of the Google Maps client used for walking directions.
type DirectionsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// GoogleProvider implements ports.RouteProvider with the Google Directions API.
// Directions pins both the origin and the destination, so Trip only reorders
// the intermediate points.
type GoogleProvider struct {
	client DirectionsClient
	log    *slog.Logger
}

func NewGoogleProvider(client DirectionsClient, log *slog.Logger) *GoogleProvider {
	if log == nil {
		log = slog.Default()
	}
	return &GoogleProvider{client: client, log: log}
}

func (g *GoogleProvider) Route(ctx context.Context, points []domain.Coordinate) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "google.Route")(&err)
	return g.directions(ctx, points, false)
}

func (g *GoogleProvider) Trip(ctx context.Context, points []domain.Coordinate) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "google.Trip")(&err)
	return g.directions(ctx, points, true)
}

func (g *GoogleProvider) directions(ctx context.Context, points []domain.Coordinate, optimize bool) (domain.RouteResult, error) {
	if len(points) < 2 {
		return domain.RouteResult{}, domain.ErrInsufficientPoints
	}

	middle := points[1 : len(points)-1]
	req := &maps.DirectionsRequest{
		Origin:      latLng(points[0]),
		Destination: latLng(points[len(points)-1]),
		Mode:        maps.TravelModeWalking,
		Optimize:    optimize && len(middle) > 1,
	}
	for _, p := range middle {
		req.Waypoints = append(req.Waypoints, latLng(p))
	}

	g.log.DebugContext(ctx, "Requesting walking directions from Google", "points", len(points), "optimize", optimize)

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return domain.RouteResult{}, domain.NewRouteComputationError("google directions request failed", err)
	}
	if len(routes) == 0 {
		return domain.RouteResult{}, domain.NewRouteComputationError("no route returned", nil)
	}
	route := routes[0]

	path, err := route.OverviewPolyline.Decode()
	if err != nil {
		return domain.RouteResult{}, domain.NewRouteComputationError("malformed overview polyline", err)
	}
	if len(path) == 0 {
		return domain.RouteResult{}, domain.NewRouteComputationError("empty route geometry", nil)
	}

	result := domain.RouteResult{Waypoints: make([]domain.Coordinate, 0, len(path))}
	for _, ll := range path {
		result.Waypoints = append(result.Waypoints, domain.Coordinate{Latitude: ll.Lat, Longitude: ll.Lng})
	}
	for _, leg := range route.Legs {
		result.DistanceMeters += float64(leg.Distance.Meters)
		result.DurationSeconds += leg.Duration.Seconds()
	}

	if optimize {
		order, err := googleOrder(route.WaypointOrder, len(points))
		if err != nil {
			return domain.RouteResult{}, err
		}
		result.Order = order
	}

	return result, nil
}

// googleOrder expands Google's intermediate waypoint order into a full visiting order.
func googleOrder(waypointOrder []int, n int) ([]int, error) {
	order := make([]int, 0, n)
	order = append(order, 0)

	if len(waypointOrder) == 0 {
		for i := 1; i < n-1; i++ {
			order = append(order, i)
		}
	} else {
		if len(waypointOrder) != n-2 {
			return nil, domain.NewRouteComputationError(
				fmt.Sprintf("waypoint order has %d entries for %d intermediate points", len(waypointOrder), n-2), nil)
		}
		for _, w := range waypointOrder {
			order = append(order, w+1)
		}
	}

	return append(order, n-1), nil
}

func latLng(c domain.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}
