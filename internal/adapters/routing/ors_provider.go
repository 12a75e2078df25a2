package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
	"tour-route-service/internal/platform/obs"

	"golang.org/x/time/rate"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "foot-walking"
)

// ORSProvider implements ports.RouteProvider using OpenRouteService.
//
// Fixed-order paths use the directions endpoint. Optimized paths fetch a
// walking-duration matrix, order the points greedily from the first one and
// then request directions in that order.
// The provider is safe for concurrent use.
type ORSProvider struct {
	transport
	baseURL string
	profile string
}

func NewORSProvider(apiKey, baseURL, profile string, requestsPerSecond int, timeout time.Duration, log *slog.Logger) (*ORSProvider, error) {
	return NewORSProviderWithClient(&http.Client{Timeout: timeout}, apiKey, baseURL, profile, newLimiter(requestsPerSecond), log)
}

// NewORSProviderWithClient allows injecting the HTTP client and limiter, mainly for tests.
func NewORSProviderWithClient(
	client HTTPClient,
	apiKey string,
	baseURL string,
	profile string,
	limiter *rate.Limiter,
	log *slog.Logger,
) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultORSBaseURL
	}
	// "foot" is the OSRM-style default carried by the shared routing config.
	if profile == "" || profile == "foot" {
		profile = DefaultORSProfile
	}

	header := http.Header{}
	header.Set("Authorization", apiKey)

	return &ORSProvider{
		transport: newTransport("ors", client, header, limiter, log),
		baseURL:   strings.TrimRight(baseURL, "/"),
		profile:   profile,
	}, nil
}

type orsDirectionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type orsFeature struct {
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"properties"`
}

type orsDirectionsResponse struct {
	Features []orsFeature `json:"features"`
}

type orsMatrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type orsMatrixResponse struct {
	Durations [][]*float64 `json:"durations"`
}

type orsErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Route requests a walking path through points in the given order.
func (o *ORSProvider) Route(ctx context.Context, points []domain.Coordinate) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	var body orsDirectionsResponse
	if err := o.post(ctx, endpoint, orsDirectionsRequest{Coordinates: lonLatList(points)}, &body); err != nil {
		return domain.RouteResult{}, err
	}
	if len(body.Features) == 0 {
		return domain.RouteResult{}, domain.NewRouteComputationError("no route returned", nil)
	}

	f := body.Features[0]
	waypoints := make([]domain.Coordinate, 0, len(f.Geometry.Coordinates))
	for _, c := range f.Geometry.Coordinates {
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
		DistanceMeters:  f.Properties.Summary.Distance,
		DurationSeconds: f.Properties.Summary.Duration,
	}, nil
}

// Trip orders points by walking duration starting at points[0], then routes them in that order.
func (o *ORSProvider) Trip(ctx context.Context, points []domain.Coordinate) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Trip")(&err)

	durations, err := o.durationMatrix(ctx, points)
	if err != nil {
		return domain.RouteResult{}, err
	}

	order := geo.NearestNeighborOrderMatrix(durations)
	ordered := make([]domain.Coordinate, len(order))
	for k, idx := range order {
		ordered[k] = points[idx]
	}

	result, err := o.Route(ctx, ordered)
	if err != nil {
		return domain.RouteResult{}, err
	}
	result.Order = order

	return result, nil
}

// durationMatrix returns the full points x points walking-duration matrix.
// Pairs ORS cannot route are reported as -1.
func (o *ORSProvider) durationMatrix(ctx context.Context, points []domain.Coordinate) ([][]float64, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	var body orsMatrixResponse
	req := orsMatrixRequest{Locations: lonLatList(points), Metrics: []string{"duration"}}
	if err := o.post(ctx, endpoint, req, &body); err != nil {
		return nil, err
	}

	if len(body.Durations) != len(points) {
		return nil, domain.NewRouteComputationError(
			fmt.Sprintf("matrix returned %d rows for %d points", len(body.Durations), len(points)), nil)
	}

	out := make([][]float64, len(points))
	for i, row := range body.Durations {
		if len(row) != len(points) {
			return nil, domain.NewRouteComputationError(
				fmt.Sprintf("matrix row %d has %d entries for %d points", i, len(row), len(points)), nil)
		}
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = -1
				continue
			}
			out[i][j] = math.Round(*v)
		}
	}

	return out, nil
}

func (o *ORSProvider) post(ctx context.Context, endpoint string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal ORS request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) {
			var body orsErrorBody
			if jerr := json.Unmarshal([]byte(he.Body), &body); jerr == nil && body.Error.Message != "" {
				return domain.NewRouteComputationError(
					fmt.Sprintf("%d: %s", body.Error.Code, body.Error.Message), err)
			}
			return domain.NewRouteComputationError(fmt.Sprintf("http status %d", he.Code), err)
		}
		return domain.NewRouteComputationError("provider request failed", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewRouteComputationError("malformed provider response", err)
	}
	return nil
}

func lonLatList(points []domain.Coordinate) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		out = append(out, []float64{p.Longitude, p.Latitude})
	}
	return out
}
