package dto

type CreateSessionRequest struct {
	Mode string `json:"mode"`
}

type SessionResponse struct {
	ID        string   `json:"id"`
	Mode      string   `json:"mode"`
	Selected  string   `json:"selected,omitempty"`
	Revision  uint64   `json:"revision"`
	Computing bool     `json:"computing"`
	Snapshot  Snapshot `json:"snapshot"`
	Region    Region   `json:"region"`
}

type PlacePOIRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PlacePOIResponse struct {
	POI     POI             `json:"poi"`
	Session SessionResponse `json:"session"`
}

// UpdatePOIRequest applies every field that is present.
type UpdatePOIRequest struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	AudioURL    *string  `json:"audio_url"`
	Selected    *bool    `json:"selected"`
}

type ReorderRequest struct {
	Direction string `json:"direction"`
}

type ImageRequest struct {
	URL string `json:"url"`
}

type LoadSnapshotRequest struct {
	Snapshot Snapshot `json:"snapshot"`
}

type ComputeRouteRequest struct {
	Mode string `json:"mode"`
}

type ComputeRouteResponse struct {
	Summary         string          `json:"summary"`
	DistanceMeters  float64         `json:"distance_meters"`
	DurationSeconds float64         `json:"duration_seconds"`
	Order           []int           `json:"order,omitempty"`
	Session         SessionResponse `json:"session"`
}
