package domain

import (
	"errors"
	"fmt"
)

var (
	// Route computation requested with fewer than two POIs.
	ErrInsufficientPoints = errors.New("at least two points of interest are required")
	// Provider error or unroutable input.
	ErrRouteComputationFailed = errors.New("route computation failed")
	// Position stream reported an error; proximity checks are paused.
	ErrLocationUnavailable = errors.New("location unavailable")
	// Route response arrived after its input POIs changed.
	ErrStaleComputationResult = errors.New("stale route computation result")

	ErrPOINotFound       = errors.New("point of interest not found")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrModeNotSupported  = errors.New("operation not supported in this authoring mode")
	ErrComputeInFlight   = errors.New("route computation already in progress")
	ErrSessionNotFound   = errors.New("authoring session not found")
	ErrInvalidTour       = errors.New("invalid tour")
	ErrTourNotFound      = errors.New("tour not found")
	ErrQRCodeNotFound    = errors.New("qr code not found")
	ErrQRCodeInactive    = errors.New("qr code is inactive or expired")
	ErrVisitNotFound     = errors.New("visit not found")
)

// RouteComputationError carries the routing provider's reason for a failure.
type RouteComputationError struct {
	Reason string
	Err    error
}

func NewRouteComputationError(reason string, err error) *RouteComputationError {
	return &RouteComputationError{Reason: reason, Err: err}
}

func (e *RouteComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrRouteComputationFailed, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrRouteComputationFailed, e.Reason)
}

func (e *RouteComputationError) Is(target error) bool {
	return target == ErrRouteComputationFailed
}

func (e *RouteComputationError) Unwrap() error { return e.Err }
