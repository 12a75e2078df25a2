package authoring

import (
	"context"
	"fmt"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/services/routecompute"
)

// ComputeRoute materializes the path from the current POIs.
//
// Only one computation may be in flight per session. Edits stay allowed meanwhile;
// if one of them changes the POI set, the response is dropped with
// ErrStaleComputationResult. On any error the snapshot is left untouched.
func (s *Session) ComputeRoute(ctx context.Context, mode domain.ComputeMode) (routecompute.Result, domain.RouteSnapshot, error) {
	s.mu.Lock()
	if err := s.allow(OpCompute); err != nil {
		defer s.mu.Unlock()
		return routecompute.Result{}, s.snapshot.Clone(), err
	}
	if s.computing {
		defer s.mu.Unlock()
		return routecompute.Result{}, s.snapshot.Clone(), domain.ErrComputeInFlight
	}
	if s.router == nil {
		defer s.mu.Unlock()
		return routecompute.Result{}, s.snapshot.Clone(), fmt.Errorf("compute route: no router configured")
	}

	token := s.revision
	pois := s.snapshot.Clone().POIs
	s.computing = true
	s.mu.Unlock()

	res, err := s.router.Compute(ctx, pois, mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.computing = false

	if err != nil {
		return routecompute.Result{}, s.snapshot.Clone(), fmt.Errorf("compute route: %w", err)
	}
	if s.revision != token {
		return routecompute.Result{}, s.snapshot.Clone(), domain.ErrStaleComputationResult
	}

	s.snapshot.Waypoints = append([]domain.Coordinate{}, res.Waypoints...)

	structural := false
	if len(res.Order) == len(s.snapshot.POIs) && len(res.Order) > 0 {
		// Reorder the live POIs rather than taking the copies sent to the router,
		// so metadata edits made while the request was in flight survive.
		reordered := make([]domain.POI, 0, len(res.Order))
		for _, idx := range res.Order {
			reordered = append(reordered, s.snapshot.POIs[idx])
		}
		s.snapshot.POIs = reordered
		res.ReorderedPOIs = cloneAll(reordered)
		structural = true
	}

	return res, s.commit(structural), nil
}

func cloneAll(pois []domain.POI) []domain.POI {
	out := make([]domain.POI, 0, len(pois))
	for _, p := range pois {
		out = append(out, p.Clone())
	}
	return out
}
