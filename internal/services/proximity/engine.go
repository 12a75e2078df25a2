// Package proximity fires one arrival per POI as a visitor walks a tour.
package proximity

import (
	"context"
	"fmt"
	"sync"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
)

// DefaultArrivalThresholdMeters is the distance under which a visitor is at a POI.
// Smaller values trigger less on GPS noise but may miss visitors standing slightly off the marker.
const DefaultArrivalThresholdMeters = 5.0

type State string

const (
	StateTracking State = "tracking"
	StatePaused   State = "paused"
)

// Update is one sample from the position source. A non-nil Err reports a source failure.
type Update struct {
	Position domain.Coordinate
	Err      error
}

// Arrival is emitted the first time a visitor comes within range of a POI.
type Arrival struct {
	POI      domain.POI
	Position domain.Coordinate
	Distance float64
}

// Handlers receive engine output. Both are optional.
type Handlers struct {
	OnArrival     func(Arrival)
	OnStateChange func(state State, err error)
}

// Engine evaluates positions against a read-only snapshot.
// Each POI fires at most once until Reset.
type Engine struct {
	mu        sync.Mutex
	threshold float64
	pois      []domain.POI
	visited   map[string]struct{}
	state     State
	lastErr   error
}

// NewEngine copies the snapshot's POIs; a non-positive threshold selects the default.
func NewEngine(snapshot domain.RouteSnapshot, thresholdMeters float64) *Engine {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultArrivalThresholdMeters
	}
	return &Engine{
		threshold: thresholdMeters,
		pois:      snapshot.Clone().POIs,
		visited:   make(map[string]struct{}),
		state:     StateTracking,
	}
}

// Observe checks every unvisited POI against pos and returns the new arrivals in POI order.
// A good position resumes a paused engine.
func (e *Engine) Observe(pos domain.Coordinate) []Arrival {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !pos.Valid() {
		return nil
	}
	e.state = StateTracking
	e.lastErr = nil

	var arrivals []Arrival
	for _, p := range e.pois {
		key := p.VisitKey()
		if _, seen := e.visited[key]; seen {
			continue
		}

		d := geo.DistanceMeters(pos, p.Coordinate)
		if d < e.threshold {
			e.visited[key] = struct{}{}
			arrivals = append(arrivals, Arrival{POI: p.Clone(), Position: pos, Distance: d})
		}
	}

	return arrivals
}

// Fail pauses evaluation after a position source error. Visited POIs stay visited.
func (e *Engine) Fail(cause error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StatePaused
	e.lastErr = fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, cause)
	return e.lastErr
}

// Run consumes updates until ctx is done or the channel is closed.
func (e *Engine) Run(ctx context.Context, updates <-chan Update, h Handlers) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			e.handle(u, h)
		}
	}
}

func (e *Engine) handle(u Update, h Handlers) {
	prev := e.State()

	if u.Err != nil {
		err := e.Fail(u.Err)
		if h.OnStateChange != nil {
			h.OnStateChange(StatePaused, err)
		}
		return
	}

	arrivals := e.Observe(u.Position)
	if prev == StatePaused && e.State() == StateTracking && h.OnStateChange != nil {
		h.OnStateChange(StateTracking, nil)
	}
	if h.OnArrival != nil {
		for _, a := range arrivals {
			h.OnArrival(a)
		}
	}
}

// Reset starts a new visit session: nothing is visited and tracking resumes.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.visited = make(map[string]struct{})
	e.state = StateTracking
	e.lastErr = nil
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error that paused the engine, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Visited reports whether the POI has already fired in this session.
func (e *Engine) Visited(p domain.POI) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.visited[p.VisitKey()]
	return ok
}

func (e *Engine) VisitedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.visited)
}

func (e *Engine) Threshold() float64 { return e.threshold }
