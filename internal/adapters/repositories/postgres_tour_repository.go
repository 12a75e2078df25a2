package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
	"tour-route-service/internal/platform/db"
	"tour-route-service/internal/platform/obs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Postgres-backed implementation of the TourRepository port.
// POIs are stored as JSONB; the drawable path is stored as an encoded polyline.
type PostgresTourRepository struct {
	db  db.Querier
	log *slog.Logger
	now func() time.Time
}

func NewPostgresTourRepository(q db.Querier, log *slog.Logger) *PostgresTourRepository {
	return &PostgresTourRepository{db: q, log: log, now: time.Now}
}

const tourColumns = `id, name, description, route_data, route_polyline, created_by, created_at, is_active`

// SaveTour inserts the tour or replaces the stored copy with the same id.
// A missing id or creation time is filled in on the passed tour.
func (r *PostgresTourRepository) SaveTour(ctx context.Context, tour *domain.Tour) (err error) {
	defer obs.Time(ctx, "tours.repo.SaveTour")(&err)

	if r.db == nil {
		return errors.New("tour repository: db is nil")
	}
	if tour == nil {
		return errors.New("save tour: tour is nil")
	}

	if tour.ID == "" {
		tour.ID = uuid.NewString()
	}
	if tour.CreatedAt.IsZero() {
		tour.CreatedAt = r.now().UTC()
	}

	pois := tour.Route.POIs
	if pois == nil {
		pois = []domain.POI{}
	}
	data, err := json.Marshal(pois)
	if err != nil {
		return fmt.Errorf("save tour %q: encode pois: %w", tour.ID, err)
	}

	query := `
	INSERT INTO tours (` + tourColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		description = EXCLUDED.description,
		route_data = EXCLUDED.route_data,
		route_polyline = EXCLUDED.route_polyline,
		is_active = EXCLUDED.is_active;
	`

	_, err = r.db.Exec(ctx, query,
		tour.ID,
		tour.Name,
		tour.Description,
		data,
		geo.EncodePolyline(tour.Route.Waypoints),
		tour.CreatedBy,
		tour.CreatedAt,
		tour.IsActive,
	)
	if err != nil {
		return fmt.Errorf("save tour %q: %w", tour.ID, err)
	}

	r.log.DebugContext(ctx, "tour saved", "tour_id", tour.ID, "pois", len(pois))
	return nil
}

// GetTour loads a tour by id, or returns ErrTourNotFound.
func (r *PostgresTourRepository) GetTour(ctx context.Context, id string) (_ *domain.Tour, err error) {
	defer obs.Time(ctx, "tours.repo.GetTour")(&err)

	if r.db == nil {
		return nil, errors.New("tour repository: db is nil")
	}

	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1;`

	tour, err := scanTour(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get tour %q: %w", id, domain.ErrTourNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tour %q: %w", id, err)
	}

	return tour, nil
}

// ListTours returns tours newest first, optionally only the active ones.
func (r *PostgresTourRepository) ListTours(ctx context.Context, activeOnly bool) (_ []*domain.Tour, err error) {
	defer obs.Time(ctx, "tours.repo.ListTours")(&err)

	if r.db == nil {
		return nil, errors.New("tour repository: db is nil")
	}

	query := `
	SELECT ` + tourColumns + `
	FROM tours
	WHERE ($1 = false OR is_active = true)
	ORDER BY created_at DESC;
	`

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list tours: query tours table: %w", err)
	}
	defer rows.Close()

	tours := make([]*domain.Tour, 0, 16)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("list tours: scan row: %w", err)
		}
		tours = append(tours, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tours: row iteration: %w", err)
	}

	return tours, nil
}

// ResolveQRCode looks up an entry code. Usability is checked by the caller.
func (r *PostgresTourRepository) ResolveQRCode(ctx context.Context, code string) (_ *domain.QRCode, err error) {
	defer obs.Time(ctx, "tours.repo.ResolveQRCode")(&err)

	if r.db == nil {
		return nil, errors.New("tour repository: db is nil")
	}

	query := `SELECT code, tour_id, is_active, expires_at FROM qr_codes WHERE code = $1;`

	var qr domain.QRCode
	var expires *time.Time
	err = r.db.QueryRow(ctx, query, code).Scan(&qr.Code, &qr.TourID, &qr.IsActive, &expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("resolve qr code: %w", domain.ErrQRCodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve qr code: %w", err)
	}
	qr.ExpiresAt = expires

	return &qr, nil
}

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var (
		t       domain.Tour
		data    []byte
		encoded string
		pois    []domain.POI
	)

	if err := row.Scan(&t.ID, &t.Name, &t.Description, &data, &encoded, &t.CreatedBy, &t.CreatedAt, &t.IsActive); err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &pois); err != nil {
			return nil, fmt.Errorf("decode route_data: %w", err)
		}
	}
	waypoints, err := geo.DecodePolyline(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode route_polyline: %w", err)
	}

	t.Route = domain.RouteSnapshot{Waypoints: waypoints, POIs: pois}.Clone()
	return &t, nil
}
