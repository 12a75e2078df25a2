// Package routecompute turns an ordered or unordered POI list into a walkable path.
package routecompute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
	"tour-route-service/internal/metrics"
	"tour-route-service/internal/ports"

	"golang.org/x/sync/singleflight"
)

// sharedCallTimeout bounds a provider call once it no longer follows a caller's context.
const sharedCallTimeout = 2 * time.Minute

// Result of a successful computation. ReorderedPOIs is only set in Optimize mode
// and must replace the caller's POI list; Order[i] is the input index of ReorderedPOIs[i].
type Result struct {
	Waypoints       []domain.Coordinate
	DistanceMeters  float64
	DurationSeconds float64
	ReorderedPOIs   []domain.POI
	Order           []int
}

// Service validates input, calls the routing provider and maps its answer back onto POIs.
type Service struct {
	provider     ports.RouteProvider
	providerName string
	cache        ports.RouteCache
	metrics      *metrics.Metrics
	log          *slog.Logger

	// inflight collapses identical concurrent requests into one provider call.
	inflight singleflight.Group
}

// NewService builds a Service. cache may be nil.
func NewService(
	provider ports.RouteProvider,
	providerName string,
	cache ports.RouteCache,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{provider: provider, providerName: providerName, cache: cache, metrics: m, log: log}
}

// Compute requests a walking path over pois in the given mode.
// Fewer than two POIs is rejected without contacting the provider.
func (s *Service) Compute(ctx context.Context, pois []domain.POI, mode domain.ComputeMode) (Result, error) {
	if len(pois) < 2 {
		return Result{}, domain.ErrInsufficientPoints
	}
	if !mode.Valid() {
		return Result{}, fmt.Errorf("compute route: unknown mode %q", mode)
	}

	points := make([]domain.Coordinate, 0, len(pois))
	for _, p := range pois {
		points = append(points, p.Coordinate)
	}

	raw, err := s.fetch(ctx, points, mode)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Waypoints:       raw.Waypoints,
		DistanceMeters:  raw.DistanceMeters,
		DurationSeconds: raw.DurationSeconds,
	}

	if mode == domain.Optimize {
		if err := validateOrder(raw.Order, len(pois)); err != nil {
			return Result{}, err
		}
		res.Order = raw.Order
		res.ReorderedPOIs = make([]domain.POI, 0, len(pois))
		for _, idx := range raw.Order {
			res.ReorderedPOIs = append(res.ReorderedPOIs, pois[idx])
		}
	}

	return res, nil
}

func (s *Service) fetch(ctx context.Context, points []domain.Coordinate, mode domain.ComputeMode) (domain.RouteResult, error) {
	key := CacheKey(s.providerName, mode, points)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "route cache read failed", "error", err)
		case ok:
			s.metrics.RouteCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			s.metrics.RouteCache.WithLabelValues("miss").Inc()
		}
	}

	// The shared call outlives any single caller; each caller still stops waiting on its own ctx.
	ch := s.inflight.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		return s.call(callCtx, key, points, mode)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.RouteResult{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return domain.RouteResult{}, res.Err
	}
	if res.Shared {
		s.log.DebugContext(ctx, "route computation shared with a concurrent request", "key", key)
	}

	raw := res.Val.(domain.RouteResult)
	return domain.RouteResult{
		Waypoints:       slices.Clone(raw.Waypoints),
		DistanceMeters:  raw.DistanceMeters,
		DurationSeconds: raw.DurationSeconds,
		Order:           slices.Clone(raw.Order),
	}, nil
}

func (s *Service) call(ctx context.Context, key string, points []domain.Coordinate, mode domain.ComputeMode) (domain.RouteResult, error) {
	start := time.Now()
	var (
		raw domain.RouteResult
		err error
	)
	if mode == domain.Optimize {
		raw, err = s.provider.Trip(ctx, points)
	} else {
		raw, err = s.provider.Route(ctx, points)
	}
	s.metrics.RouteSeconds.WithLabelValues(s.providerName, string(mode)).Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.RouteRequests.WithLabelValues(s.providerName, string(mode), "error").Inc()
		if errors.Is(err, domain.ErrRouteComputationFailed) {
			return domain.RouteResult{}, err
		}
		return domain.RouteResult{}, domain.NewRouteComputationError("provider error", err)
	}
	s.metrics.RouteRequests.WithLabelValues(s.providerName, string(mode), "ok").Inc()

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, raw); err != nil {
			s.log.WarnContext(ctx, "route cache write failed", "error", err)
		}
	}

	return raw, nil
}

// validateOrder checks that order is a permutation of 0..n-1 starting at 0.
func validateOrder(order []int, n int) error {
	if len(order) != n {
		return domain.NewRouteComputationError(
			fmt.Sprintf("invalid visiting order: %d entries for %d points", len(order), n), nil)
	}
	if order[0] != 0 {
		return domain.NewRouteComputationError("invalid visiting order: starting point moved", nil)
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return domain.NewRouteComputationError(fmt.Sprintf("invalid visiting order: index %d", idx), nil)
		}
		seen[idx] = true
	}
	return nil
}

// CacheKey identifies a computation by provider, mode and the exact input points.
func CacheKey(provider string, mode domain.ComputeMode, points []domain.Coordinate) string {
	return fmt.Sprintf("route:%s:%s:%s", provider, mode, geo.EncodePolyline(points))
}

// Summary renders the operator-facing route information line.
func Summary(r Result) string {
	return fmt.Sprintf("Distance: %.2f km, Duration: %d min", r.DistanceMeters/1000, int(r.DurationSeconds/60+0.5))
}
