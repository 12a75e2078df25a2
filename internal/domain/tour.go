package domain

import (
	"fmt"
	"strings"
	"time"
)

// A published walking tour: metadata plus the authored route.
type Tour struct {
	ID          string
	Name        string
	Description string
	Route       RouteSnapshot
	CreatedBy   string
	CreatedAt   time.Time
	IsActive    bool
}

// Validate checks the fields an operator must fill before saving.
func (t *Tour) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTour)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidTour)
	}
	for i, p := range t.Route.POIs {
		if !p.Coordinate.Valid() {
			return fmt.Errorf("%w: poi %d has invalid coordinates", ErrInvalidTour, i+1)
		}
	}
	return nil
}

// Entry ticket that starts a visit session for a tour.
// Issuance and expiry bookkeeping happen elsewhere; this service only resolves codes.
type QRCode struct {
	Code      string
	TourID    string
	IsActive  bool
	ExpiresAt *time.Time
}

// Usable reports whether the code may start a visit at the given time.
func (q QRCode) Usable(now time.Time) bool {
	if !q.IsActive {
		return false
	}
	return q.ExpiresAt == nil || now.Before(*q.ExpiresAt)
}
