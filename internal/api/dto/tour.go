package dto

import "time"

// SaveTourRequest stores a tour. When SessionID is set the route is taken from
// that authoring session and Route is ignored.
type SaveTourRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CreatedBy   string   `json:"created_by"`
	IsActive    *bool    `json:"is_active"`
	SessionID   string   `json:"session_id"`
	Route       Snapshot `json:"route"`
}

type TourResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
	POICount    int       `json:"poi_count"`
	PathMeters  float64   `json:"path_meters"`
	Route       *Snapshot `json:"route,omitempty"`
}

type ListToursResponse struct {
	Tours []TourResponse `json:"tours"`
}
