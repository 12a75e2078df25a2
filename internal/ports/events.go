package ports

import (
	"context"
	"time"

	"tour-route-service/internal/domain"
)

// Emitted the first time a visitor comes within range of a POI.
type ArrivalEvent struct {
	VisitID   string            `json:"visit_id"`
	TourID    string            `json:"tour_id"`
	POI       domain.POI        `json:"poi"`
	Position  domain.Coordinate `json:"position"`
	ArrivedAt time.Time         `json:"arrived_at"`
}

// Emitted after every authoring mutation.
type SnapshotEvent struct {
	SessionID string               `json:"session_id"`
	Mode      string               `json:"mode"`
	Snapshot  domain.RouteSnapshot `json:"snapshot"`
	Revision  uint64               `json:"revision"`
}

// Outbound notifications consumed by presentation and persistence collaborators.
type EventPublisher interface {
	PublishArrival(ctx context.Context, ev ArrivalEvent) error
	PublishSnapshot(ctx context.Context, ev SnapshotEvent) error
}

// Text-to-speech for POI narration.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
