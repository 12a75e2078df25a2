package ports

import (
	"context"

	"tour-route-service/internal/domain"
)

// Port: a boundary for storing and loading tours and resolving entry codes.
type TourRepository interface {
	SaveTour(ctx context.Context, tour *domain.Tour) error
	GetTour(ctx context.Context, id string) (*domain.Tour, error)
	ListTours(ctx context.Context, activeOnly bool) ([]*domain.Tour, error)
	ResolveQRCode(ctx context.Context, code string) (*domain.QRCode, error)
}
