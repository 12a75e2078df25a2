// Package visits runs visitor sessions: an entry code starts a proximity engine
// over the tour's route, and position updates pushed by the client reveal POIs.
package visits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/metrics"
	"tour-route-service/internal/platform/obs"
	"tour-route-service/internal/ports"
	"tour-route-service/internal/services/proximity"

	"github.com/google/uuid"
)

const updateBuffer = 16

// Status is a point-in-time view of a visit.
type Status struct {
	VisitID   string
	TourID    string
	TourName  string
	State     proximity.State
	Error     string
	Revealed  []domain.POI
	TotalPOIs int
	StartedAt time.Time
}

type visit struct {
	id        string
	tour      *domain.Tour
	startedAt time.Time
	engine    *proximity.Engine
	updates   chan proximity.Update
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	lastSeen  atomic.Int64 // unix nanos of the last client call

	mu       sync.Mutex
	revealed []domain.POI
}

type Service struct {
	repo      ports.TourRepository
	publisher ports.EventPublisher
	threshold float64
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	visits map[string]*visit
}

// NewService builds the visit runner. A non-positive threshold selects the engine default.
func NewService(
	repo ports.TourRepository,
	publisher ports.EventPublisher,
	thresholdMeters float64,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		threshold: thresholdMeters,
		metrics:   m,
		log:       log,
		now:       time.Now,
		visits:    make(map[string]*visit),
	}
}

// Start resolves an entry code to its tour and begins tracking a new visit.
func (s *Service) Start(ctx context.Context, code string) (_ Status, err error) {
	defer obs.Time(ctx, "visits.Start")(&err)

	qr, err := s.repo.ResolveQRCode(ctx, code)
	if err != nil {
		return Status{}, fmt.Errorf("start visit: %w", err)
	}
	if !qr.Usable(s.now()) {
		return Status{}, fmt.Errorf("start visit: %w", domain.ErrQRCodeInactive)
	}

	tour, err := s.repo.GetTour(ctx, qr.TourID)
	if err != nil {
		return Status{}, fmt.Errorf("start visit: %w", err)
	}
	if !tour.IsActive {
		return Status{}, fmt.Errorf("start visit: tour %q is not active: %w", tour.ID, domain.ErrTourNotFound)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	v := &visit{
		id:        uuid.NewString(),
		tour:      tour,
		startedAt: s.now().UTC(),
		engine:    proximity.NewEngine(tour.Route, s.threshold),
		updates:   make(chan proximity.Update, updateBuffer),
		ctx:       runCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		revealed:  []domain.POI{},
	}
	s.touch(v)

	s.mu.Lock()
	s.visits[v.id] = v
	s.mu.Unlock()
	s.metrics.ActiveVisits.Inc()

	go s.run(v)

	s.log.InfoContext(ctx, "visit started",
		"visit_id", v.id, "tour_id", tour.ID, "pois", len(tour.Route.POIs), "threshold_m", v.engine.Threshold())
	return s.status(v), nil
}

func (s *Service) run(v *visit) {
	defer close(v.done)

	err := v.engine.Run(v.ctx, v.updates, proximity.Handlers{
		OnArrival: func(a proximity.Arrival) { s.arrive(v, a) },
		OnStateChange: func(state proximity.State, err error) {
			s.log.InfoContext(v.ctx, "visit tracking state changed", "visit_id", v.id, "state", state, "error", err)
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.WarnContext(v.ctx, "visit stopped", "visit_id", v.id, "error", err)
	}
}

func (s *Service) arrive(v *visit, a proximity.Arrival) {
	v.mu.Lock()
	v.revealed = append(v.revealed, a.POI)
	v.mu.Unlock()

	s.metrics.Arrivals.Inc()
	s.log.InfoContext(v.ctx, "poi reached",
		"visit_id", v.id, "poi", a.POI.Title, "distance_m", a.Distance)

	if s.publisher == nil {
		return
	}
	ev := ports.ArrivalEvent{
		VisitID:   v.id,
		TourID:    v.tour.ID,
		POI:       a.POI,
		Position:  a.Position,
		ArrivedAt: s.now().UTC(),
	}
	if err := s.publisher.PublishArrival(v.ctx, ev); err != nil {
		s.log.WarnContext(v.ctx, "arrival publish failed", "visit_id", v.id, "error", err)
	}
}

// Push queues a position fix for the visit.
func (s *Service) Push(ctx context.Context, visitID string, pos domain.Coordinate) error {
	if !pos.Valid() {
		return fmt.Errorf("push position: %w: %s", domain.ErrInvalidCoordinate, pos)
	}
	return s.send(ctx, visitID, proximity.Update{Position: pos})
}

// ReportLocationError pauses evaluation until the next good fix.
func (s *Service) ReportLocationError(ctx context.Context, visitID, reason string) error {
	if reason == "" {
		reason = "position source failed"
	}
	return s.send(ctx, visitID, proximity.Update{Err: errors.New(reason)})
}

func (s *Service) send(ctx context.Context, visitID string, u proximity.Update) error {
	v, err := s.get(visitID)
	if err != nil {
		return err
	}
	s.touch(v)

	select {
	case v.updates <- u:
		return nil
	case <-v.ctx.Done():
		return fmt.Errorf("%w: %q", domain.ErrVisitNotFound, visitID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) Status(visitID string) (Status, error) {
	v, err := s.get(visitID)
	if err != nil {
		return Status{}, err
	}
	s.touch(v)
	return s.status(v), nil
}

func (s *Service) status(v *visit) Status {
	v.mu.Lock()
	revealed := make([]domain.POI, 0, len(v.revealed))
	for _, p := range v.revealed {
		revealed = append(revealed, p.Clone())
	}
	v.mu.Unlock()

	st := Status{
		VisitID:   v.id,
		TourID:    v.tour.ID,
		TourName:  v.tour.Name,
		State:     v.engine.State(),
		Revealed:  revealed,
		TotalPOIs: len(v.tour.Route.POIs),
		StartedAt: v.startedAt,
	}
	if err := v.engine.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// Stop ends the visit and waits for its engine to exit.
func (s *Service) Stop(visitID string) error {
	s.mu.Lock()
	v, ok := s.visits[visitID]
	delete(s.visits, visitID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrVisitNotFound, visitID)
	}

	v.cancel()
	<-v.done
	s.metrics.ActiveVisits.Dec()
	s.log.Info("visit stopped", "visit_id", visitID, "revealed", v.engine.VisitedCount())
	return nil
}

// ReapIdle stops visits with no client activity since cutoff and returns how many it stopped.
func (s *Service) ReapIdle(cutoff time.Time) int {
	s.mu.Lock()
	ids := make([]string, 0)
	for id, v := range s.visits {
		if v.lastSeen.Load() < cutoff.UnixNano() {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range ids {
		// a concurrent Stop may already have removed it
		if s.Stop(id) == nil {
			n++
		}
	}
	return n
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (s *Service) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.ReapIdle(s.now().Add(-maxIdle)); n > 0 {
				s.log.InfoContext(ctx, "idle visits stopped", "count", n, "max_idle", maxIdle)
			}
		}
	}
}

// Close stops every running visit.
func (s *Service) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.visits))
	for id := range s.visits {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		_ = s.Stop(id)
	}
}

func (s *Service) touch(v *visit) {
	v.lastSeen.Store(s.now().UnixNano())
}

func (s *Service) get(visitID string) (*visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visits[visitID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrVisitNotFound, visitID)
	}
	return v, nil
}
