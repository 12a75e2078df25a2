package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tour-route-service/internal/ports"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix roots every subject this service publishes on.
const DefaultSubjectPrefix = "tours"

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implements ports.EventPublisher with core NATS subjects:
//
//	<prefix>.visits.<visitID>.arrivals
//	<prefix>.sessions.<sessionID>.snapshots
type NATSPublisher struct {
	conn   publisher
	prefix string
}

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return newPublisher(conn, prefix)
}

func newPublisher(conn publisher, prefix string) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Connect dials NATS and keeps reconnecting for the life of the process.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("tour-route-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

func (p *NATSPublisher) ArrivalSubject(visitID string) string {
	return p.prefix + ".visits." + visitID + ".arrivals"
}

func (p *NATSPublisher) SnapshotSubject(sessionID string) string {
	return p.prefix + ".sessions." + sessionID + ".snapshots"
}

func (p *NATSPublisher) PublishArrival(ctx context.Context, ev ports.ArrivalEvent) error {
	return p.publish(p.ArrivalSubject(ev.VisitID), ev)
}

func (p *NATSPublisher) PublishSnapshot(ctx context.Context, ev ports.SnapshotEvent) error {
	return p.publish(p.SnapshotSubject(ev.SessionID), ev)
}

func (p *NATSPublisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("publish %s: encode: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// LogPublisher writes events to the logger. It stands in when no broker is configured.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishArrival(ctx context.Context, ev ports.ArrivalEvent) error {
	p.log.InfoContext(ctx, "poi arrival",
		"visit_id", ev.VisitID, "tour_id", ev.TourID, "poi", ev.POI.Title, "position", ev.Position.String())
	return nil
}

func (p *LogPublisher) PublishSnapshot(ctx context.Context, ev ports.SnapshotEvent) error {
	p.log.DebugContext(ctx, "authoring snapshot",
		"session_id", ev.SessionID, "revision", ev.Revision, "pois", len(ev.Snapshot.POIs))
	return nil
}
