package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/platform/obs"

	"golang.org/x/time/rate"
)

const (
	DefaultOSRMBaseURL = "https://router.project-osrm.org"
	DefaultOSRMProfile = "foot"

	userAgent = "tour-route-service/1.0"
)

// OSRMProvider implements ports.RouteProvider against an OSRM HTTP server.
//
// Fixed-order paths use the route service; optimized paths use the trip
// service with the first coordinate pinned as the source.
// The provider is safe for concurrent use.
type OSRMProvider struct {
	transport
	baseURL string
	profile string
}

func NewOSRMProvider(baseURL, profile string, requestsPerSecond int, timeout time.Duration, log *slog.Logger) *OSRMProvider {
	return NewOSRMProviderWithClient(&http.Client{Timeout: timeout}, baseURL, profile, newLimiter(requestsPerSecond), log)
}

// NewOSRMProviderWithClient allows injecting the HTTP client and limiter, mainly for tests.
func NewOSRMProviderWithClient(
	client HTTPClient,
	baseURL string,
	profile string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *OSRMProvider {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if profile == "" {
		profile = DefaultOSRMProfile
	}
	return &OSRMProvider{
		transport: newTransport("osrm", client, nil, limiter, log),
		baseURL:   strings.TrimRight(baseURL, "/"),
		profile:   profile,
	}
}

// newLimiter allows a burst of one; zero or less disables limiting.
func newLimiter(requestsPerSecond int) *rate.Limiter {
	if requestsPerSecond > 0 {
		return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return rate.NewLimiter(rate.Inf, 0)
}

type osrmGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type osrmRoute struct {
	Geometry osrmGeometry `json:"geometry"`
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
}

type osrmWaypoint struct {
	WaypointIndex int       `json:"waypoint_index"`
	TripsIndex    int       `json:"trips_index"`
	Location      []float64 `json:"location"`
}

type osrmResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Routes    []osrmRoute    `json:"routes"`
	Trips     []osrmRoute    `json:"trips"`
	Waypoints []osrmWaypoint `json:"waypoints"`
}

// Route requests a walking path through points in the given order.
func (o *OSRMProvider) Route(ctx context.Context, points []domain.Coordinate) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson",
		o.baseURL, o.profile, coordinatePath(points))

	body, err := o.fetch(ctx, url)
	if err != nil {
		return domain.RouteResult{}, err
	}

	if len(body.Routes) == 0 {
		return domain.RouteResult{}, domain.NewRouteComputationError("no route returned", nil)
	}

	return toRouteResult(body.Routes[0])
}

// Trip requests an optimized visiting order that starts at points[0] and does not return.
func (o *OSRMProvider) Trip(ctx context.Context, points []domain.Coordinate) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "osrm.Trip")(&err)

	url := fmt.Sprintf("%s/trip/v1/%s/%s?source=first&roundtrip=false&overview=full&geometries=geojson",
		o.baseURL, o.profile, coordinatePath(points))

	body, err := o.fetch(ctx, url)
	if err != nil {
		return domain.RouteResult{}, err
	}

	if len(body.Trips) == 0 {
		return domain.RouteResult{}, domain.NewRouteComputationError("no trip returned", nil)
	}
	if len(body.Waypoints) != len(points) {
		return domain.RouteResult{}, domain.NewRouteComputationError(
			fmt.Sprintf("trip returned %d waypoints for %d points", len(body.Waypoints), len(points)), nil)
	}

	result, err := toRouteResult(body.Trips[0])
	if err != nil {
		return domain.RouteResult{}, err
	}

	// waypoints are in input order; waypoint_index is the position inside the trip.
	order := make([]int, len(points))
	for i := range order {
		order[i] = -1
	}
	for inputIdx, wp := range body.Waypoints {
		if wp.WaypointIndex < 0 || wp.WaypointIndex >= len(points) || order[wp.WaypointIndex] != -1 {
			return domain.RouteResult{}, domain.NewRouteComputationError(
				fmt.Sprintf("invalid waypoint_index %d", wp.WaypointIndex), nil)
		}
		order[wp.WaypointIndex] = inputIdx
	}
	result.Order = order

	return result, nil
}

func (o *OSRMProvider) fetch(ctx context.Context, url string) (*osrmResponse, error) {
	resp, err := o.doWithRetry(ctx, http.MethodGet, url, nil)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) {
			// OSRM reports unroutable input as 400 with a JSON code/message.
			var body osrmResponse
			if jerr := json.Unmarshal([]byte(he.Body), &body); jerr == nil && body.Code != "" {
				return nil, domain.NewRouteComputationError(reason(body), nil)
			}
			return nil, domain.NewRouteComputationError(fmt.Sprintf("http status %d", he.Code), err)
		}
		return nil, domain.NewRouteComputationError("provider request failed", err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewRouteComputationError("malformed provider response", err)
	}

	if body.Code != "Ok" {
		return nil, domain.NewRouteComputationError(reason(body), nil)
	}

	return &body, nil
}

func toRouteResult(r osrmRoute) (domain.RouteResult, error) {
	waypoints := make([]domain.Coordinate, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			return domain.RouteResult{}, domain.NewRouteComputationError("malformed geometry coordinate", nil)
		}
		waypoints = append(waypoints, domain.Coordinate{Latitude: c[1], Longitude: c[0]})
	}
	if len(waypoints) == 0 {
		return domain.RouteResult{}, domain.NewRouteComputationError("empty route geometry", nil)
	}

	return domain.RouteResult{
		Waypoints:       waypoints,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}, nil
}

func reason(body osrmResponse) string {
	if body.Message != "" {
		return body.Code + ": " + body.Message
	}
	if body.Code == "" {
		return "unknown provider status"
	}
	return body.Code
}

// coordinatePath renders points as "lon,lat;lon,lat" for OSRM paths.
func coordinatePath(points []domain.Coordinate) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts,
			strconv.FormatFloat(p.Longitude, 'f', -1, 64)+","+strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	}
	return strings.Join(parts, ";")
}
