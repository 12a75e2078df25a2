package dto

import "time"

type StartVisitRequest struct {
	Code string `json:"code"`
}

type VisitResponse struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tour_id"`
	TourName  string    `json:"tour_name"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
	Revealed  []POI     `json:"revealed"`
	TotalPOIs int       `json:"total_pois"`
	StartedAt time.Time `json:"started_at"`
}

type PositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LocationErrorRequest struct {
	Reason string `json:"reason"`
}
