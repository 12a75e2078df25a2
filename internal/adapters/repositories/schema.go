package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
	"tour-route-service/internal/platform/db"

	"github.com/google/uuid"
)

// Initialize the Postgres schema for tours, entry codes and cached routes.
func InitSchema(ctx context.Context, q db.Querier) error {
	if q == nil {
		return errors.New("init schema: db is nil")
	}

	tx, err := q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	createToursQuery := `
	CREATE TABLE IF NOT EXISTS tours (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		route_data JSONB NOT NULL DEFAULT '[]'::jsonb,
		route_polyline TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_active BOOLEAN NOT NULL DEFAULT true
	);
	`

	createQRCodesQuery := `
	CREATE TABLE IF NOT EXISTS qr_codes (
		code TEXT PRIMARY KEY,
		tour_id TEXT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
		is_active BOOLEAN NOT NULL DEFAULT true,
		expires_at TIMESTAMPTZ
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		result JSONB NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_qr_codes_tour_id
	ON qr_codes(tour_id);
	`

	statements := []string{
		createToursQuery,
		createQRCodesQuery,
		createRouteCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type TourSeed struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	CreatedBy   string               `json:"created_by"`
	Route       domain.RouteSnapshot `json:"route"`
	QRCodes     []QRCodeSeed         `json:"qr_codes"`
}

type QRCodeSeed struct {
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Populate the database with tours and their entry codes from a JSON file.
func SeedFromJSON(ctx context.Context, q db.Querier, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed tours: read %q: %w", jsonPath, err)
	}

	var data []TourSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed tours: parse json: %w", err)
	}

	return SeedTours(ctx, q, data)
}

// SeedTours validates and upserts tours and codes in one transaction.
func SeedTours(ctx context.Context, q db.Querier, seeds []TourSeed) error {
	if q == nil {
		return errors.New("seed tours: db is nil")
	}

	tours := make([]domain.Tour, 0, len(seeds))
	for i, item := range seeds {
		t := domain.Tour{
			ID:          strings.TrimSpace(item.ID),
			Name:        strings.TrimSpace(item.Name),
			Description: strings.TrimSpace(item.Description),
			CreatedBy:   item.CreatedBy,
			Route:       item.Route.Clone(),
			IsActive:    true,
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("seed tours: item at index %d: %w", i+1, err)
		}
		for _, qr := range item.QRCodes {
			if strings.TrimSpace(qr.Code) == "" {
				return fmt.Errorf("seed tours: item at index %d: qr code cannot be empty", i+1)
			}
		}
		tours = append(tours, t)
	}

	tx, err := q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed tours: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertTour := `
	INSERT INTO tours (id, name, description, route_data, route_polyline, created_by, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, true)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		description = EXCLUDED.description,
		route_data = EXCLUDED.route_data,
		route_polyline = EXCLUDED.route_polyline;
	`

	insertCode := `
	INSERT INTO qr_codes (code, tour_id, is_active, expires_at)
	VALUES ($1, $2, true, $3)
	ON CONFLICT (code) DO UPDATE
	SET tour_id = EXCLUDED.tour_id,
		expires_at = EXCLUDED.expires_at;
	`

	for i, t := range tours {
		pois, err := json.Marshal(t.Route.POIs)
		if err != nil {
			return fmt.Errorf("seed tours: encode pois for %q: %w", t.ID, err)
		}

		if _, err := tx.Exec(ctx, insertTour, t.ID, t.Name, t.Description, pois,
			geo.EncodePolyline(t.Route.Waypoints), t.CreatedBy); err != nil {
			return fmt.Errorf("seed tours: insert tour id=%q: %w", t.ID, err)
		}

		for _, qr := range seeds[i].QRCodes {
			if _, err := tx.Exec(ctx, insertCode, strings.TrimSpace(qr.Code), t.ID, qr.ExpiresAt); err != nil {
				return fmt.Errorf("seed tours: insert qr code for %q: %w", t.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seed tours: commit tx: %w", err)
	}

	return nil
}
