package authoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/metrics"
	"tour-route-service/internal/ports"

	"github.com/google/uuid"
)

type entry struct {
	session  *Session
	lastSeen atomic.Int64 // unix nanos of the last lookup
}

// Registry keeps the open authoring sessions of the HTTP API.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time

	router    Router
	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewRegistry builds a Registry. publisher may be nil.
func NewRegistry(router Router, publisher ports.EventPublisher, m *metrics.Metrics, log *slog.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*entry),
		now:       time.Now,
		router:    router,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

func (r *Registry) Create(mode Mode) (*Session, error) {
	id := uuid.NewString()

	s, err := NewSession(id, mode, r.router, r.publish)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	e := &entry{session: s}
	e.lastSeen.Store(r.now().UnixNano())

	r.mu.Lock()
	r.sessions[id] = e
	r.mu.Unlock()

	r.metrics.ActiveSessions.Inc()
	r.log.Info("authoring session created", "session_id", id, "mode", mode)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrSessionNotFound, id)
	}
	e.lastSeen.Store(r.now().UnixNano())
	return e.session, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrSessionNotFound, id)
	}
	delete(r.sessions, id)

	r.metrics.ActiveSessions.Dec()
	return nil
}

// ReapIdle drops sessions not looked up since cutoff and returns how many it dropped.
func (r *Registry) ReapIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		if e.lastSeen.Load() < cutoff.UnixNano() {
			delete(r.sessions, id)
			r.metrics.ActiveSessions.Dec()
			n++
		}
	}
	return n
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (r *Registry) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.ReapIdle(r.now().Add(-maxIdle)); n > 0 {
				r.log.InfoContext(ctx, "idle authoring sessions dropped", "count", n, "max_idle", maxIdle)
			}
		}
	}
}

func (r *Registry) publish(c Change) {
	if r.publisher == nil {
		return
	}

	ev := ports.SnapshotEvent{
		SessionID: c.SessionID,
		Mode:      string(c.Mode),
		Snapshot:  c.Snapshot,
		Revision:  c.Revision,
	}
	if err := r.publisher.PublishSnapshot(context.Background(), ev); err != nil {
		r.log.Warn("snapshot publish failed", "session_id", c.SessionID, "error", err)
	}
}
