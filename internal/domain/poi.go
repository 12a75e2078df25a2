package domain

import (
	"slices"
	"strconv"
)

// A content-bearing location a visitor is meant to reach.
// ID is empty until the POI has been persisted.
type POI struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	AudioURL    string   `json:"audio_url,omitempty"`
	Coordinate
}

// Identity returns the stable id, or a positional key for unsaved POIs.
func (p POI) Identity(index int) string {
	if p.ID != "" {
		return p.ID
	}
	return "idx:" + strconv.Itoa(index)
}

// VisitKey identifies the POI inside a visit session.
// POIs without an id fall back to their coordinate pair.
func (p POI) VisitKey() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Coordinate.String()
}

func (p POI) Clone() POI {
	out := p
	out.Images = slices.Clone(p.Images)
	if out.Images == nil {
		out.Images = []string{}
	}
	return out
}

func (p POI) Equal(o POI) bool {
	return p.ID == o.ID &&
		p.Title == o.Title &&
		p.Description == o.Description &&
		p.AudioURL == o.AudioURL &&
		p.Coordinate == o.Coordinate &&
		slices.Equal(p.Images, o.Images)
}
