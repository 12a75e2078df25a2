package tours

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
	"tour-route-service/internal/platform/obs"
	"tour-route-service/internal/ports"
)

var ErrNarrationUnavailable = errors.New("narration is not configured")

// Info summarizes a tour for listings.
type Info struct {
	POIs       int
	PathMeters float64
	Region     geo.Region
}

type Service struct {
	repo   ports.TourRepository
	speech ports.SpeechSynthesizer
	log    *slog.Logger
}

// NewService wires tour persistence. speech may be nil when narration is disabled.
func NewService(repo ports.TourRepository, speech ports.SpeechSynthesizer, log *slog.Logger) *Service {
	return &Service{repo: repo, speech: speech, log: log}
}

// Save validates and stores a tour. A tour without POIs is accepted with a warning.
func (s *Service) Save(ctx context.Context, tour *domain.Tour) (err error) {
	defer obs.Time(ctx, "tours.Save")(&err)

	if tour == nil {
		return fmt.Errorf("save tour: %w: tour is nil", domain.ErrInvalidTour)
	}

	tour.Name = strings.TrimSpace(tour.Name)
	tour.Description = strings.TrimSpace(tour.Description)
	if err := tour.Validate(); err != nil {
		return fmt.Errorf("save tour: %w", err)
	}

	if len(tour.Route.POIs) == 0 {
		s.log.WarnContext(ctx, "saving tour without points of interest", "tour_id", tour.ID, "name", tour.Name)
	}

	if err := s.repo.SaveTour(ctx, tour); err != nil {
		return fmt.Errorf("save tour: %w", err)
	}

	s.log.InfoContext(ctx, "tour saved", "tour_id", tour.ID, "pois", len(tour.Route.POIs))
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Tour, error) {
	t, err := s.repo.GetTour(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tour: %w", err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*domain.Tour, error) {
	ts, err := s.repo.ListTours(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	return ts, nil
}

// Describe computes the listing summary of a tour.
func Describe(t *domain.Tour) Info {
	return Info{
		POIs:       len(t.Route.POIs),
		PathMeters: geo.RouteLength(t.Route.Waypoints),
		Region:     geo.SnapshotViewport(t.Route),
	}
}

// Narrate synthesizes the title and description of one POI of a stored tour.
func (s *Service) Narrate(ctx context.Context, tourID, poiID string) (_ []byte, err error) {
	defer obs.Time(ctx, "tours.Narrate")(&err)

	if s.speech == nil {
		return nil, ErrNarrationUnavailable
	}

	t, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("narrate: %w", err)
	}

	for _, p := range t.Route.POIs {
		if p.ID != poiID {
			continue
		}
		audio, err := s.speech.Synthesize(ctx, NarrationText(p))
		if err != nil {
			return nil, fmt.Errorf("narrate poi %q: %w", poiID, err)
		}
		return audio, nil
	}

	return nil, fmt.Errorf("narrate: %w: %q", domain.ErrPOINotFound, poiID)
}

// NarrationText is what gets read aloud for a POI.
func NarrationText(p domain.POI) string {
	title := strings.TrimSpace(p.Title)
	desc := strings.TrimSpace(p.Description)
	switch {
	case title == "":
		return desc
	case desc == "":
		return title
	}
	return title + ". " + desc
}
