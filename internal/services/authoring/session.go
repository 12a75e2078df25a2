// Package authoring implements the interactive editor that builds a RouteSnapshot.
package authoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/services/routecompute"

	"github.com/google/uuid"
)

const placeholderDescription = "Description here"

// Router computes walking paths for the session.
type Router interface {
	Compute(ctx context.Context, pois []domain.POI, mode domain.ComputeMode) (routecompute.Result, error)
}

// Change is handed to the host after every mutation.
type Change struct {
	SessionID string
	Mode      Mode
	Snapshot  domain.RouteSnapshot
	Selected  string
	Revision  uint64
}

// SnapshotSink receives every change in mutation order.
// It is called with the session locked and must not call back into the session.
type SnapshotSink func(Change)

// State is everything the session holds.
type State struct {
	ID        string
	Mode      Mode
	Snapshot  domain.RouteSnapshot
	Selected  string
	Revision  uint64
	Computing bool
}

// Session is one operator's in-progress RouteSnapshot.
//
// Revision increases whenever POI identity, position or order changes.
// A route computation is applied only if the revision it started from is still current.
type Session struct {
	mu        sync.Mutex
	id        string
	mode      Mode
	snapshot  domain.RouteSnapshot
	selected  string
	revision  uint64
	computing bool

	router Router
	sink   SnapshotSink
	newID  func() string
}

// NewSession starts an empty session. sink may be nil.
func NewSession(id string, mode Mode, router Router, sink SnapshotSink) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("new session: unknown mode %q", mode)
	}
	return &Session{
		id:       id,
		mode:     mode,
		snapshot: domain.EmptySnapshot(),
		router:   router,
		sink:     sink,
		newID:    uuid.NewString,
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Mode() Mode { return s.mode }

// Snapshot returns a copy of the current snapshot.
func (s *Session) Snapshot() domain.RouteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:        s.id,
		Mode:      s.mode,
		Snapshot:  s.snapshot.Clone(),
		Selected:  s.selected,
		Revision:  s.revision,
		Computing: s.computing,
	}
}

// PlacePOI appends a POI with placeholder content at coord.
// In single-placement mode it replaces the pending POI instead.
func (s *Session) PlacePOI(coord domain.Coordinate) (domain.POI, domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpPlace); err != nil {
		return domain.POI{}, s.snapshot.Clone(), err
	}
	if !coord.Valid() {
		return domain.POI{}, s.snapshot.Clone(), fmt.Errorf("place poi: %w: %s", domain.ErrInvalidCoordinate, coord)
	}

	if s.mode == ModeSinglePlacement {
		s.snapshot = domain.EmptySnapshot()
		s.selected = ""
	}

	p := domain.POI{
		ID:          s.newID(),
		Title:       "Point " + strconv.Itoa(len(s.snapshot.POIs)+1),
		Description: placeholderDescription,
		Images:      []string{},
		Coordinate:  coord,
	}
	s.snapshot.POIs = append(s.snapshot.POIs, p)

	return p.Clone(), s.commit(true), nil
}

// MovePOI updates a POI's position in place. The path is left as is until recomputed.
func (s *Session) MovePOI(identity string, coord domain.Coordinate) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpMove); err != nil {
		return s.snapshot.Clone(), err
	}
	if !coord.Valid() {
		return s.snapshot.Clone(), fmt.Errorf("move poi: %w: %s", domain.ErrInvalidCoordinate, coord)
	}
	i, err := s.find(identity)
	if err != nil {
		return s.snapshot.Clone(), err
	}

	s.snapshot.POIs[i].Coordinate = coord
	return s.commit(true), nil
}

// Reorder swaps the POI with its neighbour. Moving the first POI up or the last down is a no-op.
func (s *Session) Reorder(identity string, dir Direction) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpReorder); err != nil {
		return s.snapshot.Clone(), err
	}
	i, err := s.find(identity)
	if err != nil {
		return s.snapshot.Clone(), err
	}

	var j int
	switch dir {
	case Up:
		j = i - 1
	case Down:
		j = i + 1
	default:
		return s.snapshot.Clone(), fmt.Errorf("reorder: unknown direction %q", dir)
	}
	if j < 0 || j >= len(s.snapshot.POIs) {
		return s.snapshot.Clone(), nil
	}

	pois := s.snapshot.POIs
	pois[i], pois[j] = pois[j], pois[i]
	return s.commit(true), nil
}

// EditMetadata replaces the title or description.
func (s *Session) EditMetadata(identity string, field Field, value string) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpEdit); err != nil {
		return s.snapshot.Clone(), err
	}
	i, err := s.find(identity)
	if err != nil {
		return s.snapshot.Clone(), err
	}

	switch field {
	case Title:
		s.snapshot.POIs[i].Title = value
	case Description:
		s.snapshot.POIs[i].Description = value
	default:
		return s.snapshot.Clone(), fmt.Errorf("edit metadata: unknown field %q", field)
	}
	return s.commit(false), nil
}

// AddImage appends a trimmed image URL. Empty or whitespace-only URLs are ignored.
func (s *Session) AddImage(identity string, url string) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpImages); err != nil {
		return s.snapshot.Clone(), err
	}
	i, err := s.find(identity)
	if err != nil {
		return s.snapshot.Clone(), err
	}

	url = strings.TrimSpace(url)
	if url == "" {
		return s.snapshot.Clone(), nil
	}

	s.snapshot.POIs[i].Images = append(s.snapshot.POIs[i].Images, url)
	return s.commit(false), nil
}

// RemoveImage drops the image at index. Out-of-range indexes are ignored.
func (s *Session) RemoveImage(identity string, index int) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpImages); err != nil {
		return s.snapshot.Clone(), err
	}
	i, err := s.find(identity)
	if err != nil {
		return s.snapshot.Clone(), err
	}

	images := s.snapshot.POIs[i].Images
	if index < 0 || index >= len(images) {
		return s.snapshot.Clone(), nil
	}

	s.snapshot.POIs[i].Images = append(images[:index:index], images[index+1:]...)
	return s.commit(false), nil
}

// SetAudio sets or clears (empty url) the narration audio of a POI.
func (s *Session) SetAudio(identity string, url string) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpAudio); err != nil {
		return s.snapshot.Clone(), err
	}
	i, err := s.find(identity)
	if err != nil {
		return s.snapshot.Clone(), err
	}

	s.snapshot.POIs[i].AudioURL = strings.TrimSpace(url)
	return s.commit(false), nil
}

// DeletePOI removes a POI and clears the selection if it pointed at it.
func (s *Session) DeletePOI(identity string) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpDelete); err != nil {
		return s.snapshot.Clone(), err
	}
	i, err := s.find(identity)
	if err != nil {
		return s.snapshot.Clone(), err
	}

	if s.selected == s.snapshot.POIs[i].Identity(i) {
		s.selected = ""
	}
	s.snapshot.POIs = append(s.snapshot.POIs[:i:i], s.snapshot.POIs[i+1:]...)
	return s.commit(true), nil
}

// Select marks a POI as the one open in the editor; an empty identity clears the selection.
func (s *Session) Select(identity string) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpSelect); err != nil {
		return s.snapshot.Clone(), err
	}
	if identity != "" {
		i, err := s.find(identity)
		if err != nil {
			return s.snapshot.Clone(), err
		}
		identity = s.snapshot.POIs[i].Identity(i)
	}

	s.selected = identity
	return s.commit(false), nil
}

// ClearAll resets the session to an empty snapshot.
func (s *Session) ClearAll() (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpClear); err != nil {
		return s.snapshot.Clone(), err
	}

	s.snapshot = domain.EmptySnapshot()
	s.selected = ""
	return s.commit(true), nil
}

// Load replaces the session content with an existing snapshot, e.g. when editing a saved tour.
func (s *Session) Load(snapshot domain.RouteSnapshot) (domain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.allow(OpLoad); err != nil {
		return s.snapshot.Clone(), err
	}
	if s.mode == ModeSinglePlacement && len(snapshot.POIs) > 1 {
		return s.snapshot.Clone(), fmt.Errorf("load: %w: single placement holds one poi, got %d",
			domain.ErrModeNotSupported, len(snapshot.POIs))
	}
	for i, p := range snapshot.POIs {
		if !p.Coordinate.Valid() {
			return s.snapshot.Clone(), fmt.Errorf("load: poi %d: %w: %s", i+1, domain.ErrInvalidCoordinate, p.Coordinate)
		}
	}

	s.snapshot = snapshot.Clone()
	s.selected = ""
	return s.commit(true), nil
}

// allow must be called with s.mu held.
func (s *Session) allow(op Op) error {
	if !s.mode.Allows(op) {
		return fmt.Errorf("%w: %s in %s mode", domain.ErrModeNotSupported, op, s.mode)
	}
	return nil
}

// find resolves an identity (id or positional key) to an index. s.mu must be held.
func (s *Session) find(identity string) (int, error) {
	for i, p := range s.snapshot.POIs {
		if p.Identity(i) == identity {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", domain.ErrPOINotFound, identity)
}

// commit bumps the revision for structural changes and hands the new snapshot to the sink.
// s.mu must be held.
func (s *Session) commit(structural bool) domain.RouteSnapshot {
	if structural {
		s.revision++
	}
	out := s.snapshot.Clone()
	if s.sink != nil {
		s.sink(Change{
			SessionID: s.id,
			Mode:      s.mode,
			Snapshot:  s.snapshot.Clone(),
			Selected:  s.selected,
			Revision:  s.revision,
		})
	}
	return out
}
