package dto

import (
	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) Domain() domain.Coordinate {
	return domain.Coordinate{Latitude: c.Lat, Longitude: c.Lng}
}

func FromCoordinate(c domain.Coordinate) Coordinate {
	return Coordinate{Lat: c.Latitude, Lng: c.Longitude}
}

type POI struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	AudioURL    string   `json:"audio_url,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
}

func (p POI) Domain() domain.POI {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return domain.POI{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Images:      images,
		AudioURL:    p.AudioURL,
		Coordinate:  domain.Coordinate{Latitude: p.Lat, Longitude: p.Lng},
	}
}

func FromPOI(p domain.POI) POI {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return POI{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Images:      images,
		AudioURL:    p.AudioURL,
		Lat:         p.Latitude,
		Lng:         p.Longitude,
	}
}

func FromPOIs(pois []domain.POI) []POI {
	out := make([]POI, 0, len(pois))
	for _, p := range pois {
		out = append(out, FromPOI(p))
	}
	return out
}

type Snapshot struct {
	Waypoints []Coordinate `json:"waypoints"`
	POIs      []POI        `json:"pois"`
}

func (s Snapshot) Domain() domain.RouteSnapshot {
	out := domain.EmptySnapshot()
	for _, w := range s.Waypoints {
		out.Waypoints = append(out.Waypoints, w.Domain())
	}
	for _, p := range s.POIs {
		out.POIs = append(out.POIs, p.Domain())
	}
	return out
}

func FromSnapshot(s domain.RouteSnapshot) Snapshot {
	out := Snapshot{
		Waypoints: make([]Coordinate, 0, len(s.Waypoints)),
		POIs:      FromPOIs(s.POIs),
	}
	for _, w := range s.Waypoints {
		out.Waypoints = append(out.Waypoints, FromCoordinate(w))
	}
	return out
}

type Region struct {
	Center  Coordinate `json:"center"`
	SpanLat float64    `json:"span_lat"`
	SpanLng float64    `json:"span_lng"`
}

func FromRegion(r geo.Region) Region {
	return Region{Center: FromCoordinate(r.Center), SpanLat: r.SpanLat, SpanLng: r.SpanLng}
}
