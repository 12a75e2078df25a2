package repositories

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"tour-route-service/internal/domain"

	"github.com/google/uuid"
)

// MemoryTourRepository keeps tours and entry codes in process memory.
// It backs local runs without a database and the service tests.
type MemoryTourRepository struct {
	mu    sync.RWMutex
	tours map[string]domain.Tour
	codes map[string]domain.QRCode
}

func NewMemoryTourRepository() *MemoryTourRepository {
	return &MemoryTourRepository{
		tours: make(map[string]domain.Tour),
		codes: make(map[string]domain.QRCode),
	}
}

func (r *MemoryTourRepository) SaveTour(_ context.Context, tour *domain.Tour) error {
	if tour == nil {
		return fmt.Errorf("save tour: tour is nil")
	}
	if tour.ID == "" {
		tour.ID = uuid.NewString()
	}
	if tour.CreatedAt.IsZero() {
		tour.CreatedAt = time.Now().UTC()
	}

	t := *tour
	t.Route = tour.Route.Clone()

	r.mu.Lock()
	r.tours[t.ID] = t
	r.mu.Unlock()
	return nil
}

func (r *MemoryTourRepository) GetTour(_ context.Context, id string) (*domain.Tour, error) {
	r.mu.RLock()
	t, ok := r.tours[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("get tour %q: %w", id, domain.ErrTourNotFound)
	}
	t.Route = t.Route.Clone()
	return &t, nil
}

func (r *MemoryTourRepository) ListTours(_ context.Context, activeOnly bool) ([]*domain.Tour, error) {
	r.mu.RLock()
	out := make([]*domain.Tour, 0, len(r.tours))
	for _, t := range r.tours {
		if activeOnly && !t.IsActive {
			continue
		}
		t.Route = t.Route.Clone()
		out = append(out, &t)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.Tour) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *MemoryTourRepository) ResolveQRCode(_ context.Context, code string) (*domain.QRCode, error) {
	r.mu.RLock()
	qr, ok := r.codes[code]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("resolve qr code: %w", domain.ErrQRCodeNotFound)
	}
	return &qr, nil
}

// PutQRCode registers or replaces an entry code.
func (r *MemoryTourRepository) PutQRCode(qr domain.QRCode) {
	r.mu.Lock()
	r.codes[qr.Code] = qr
	r.mu.Unlock()
}
