package geo

import (
	"math"

	"tour-route-service/internal/domain"

	"github.com/paulmach/orb"
)

const (
	regionPadding = 1.5
	minViewSpan   = 0.01
)

// Fallback map center when a tour has no geometry yet (Madrid, Puerta del Sol).
var DefaultCenter = domain.Coordinate{Latitude: 40.416775, Longitude: -3.703790}

// Region is a center plus latitude/longitude spans in degrees.
type Region struct {
	Center  domain.Coordinate `json:"center"`
	SpanLat float64           `json:"span_lat"`
	SpanLng float64           `json:"span_lng"`
}

// Point converts a coordinate to an orb point (lon, lat).
func Point(c domain.Coordinate) orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// BoundingRegion returns the midpoint of the point set and its extent padded by 50%.
// points must be non-empty.
func BoundingRegion(points []domain.Coordinate) Region {
	if len(points) == 0 {
		panic("geo: BoundingRegion called with no points")
	}

	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, Point(p))
	}
	b := mp.Bound()

	return Region{
		Center: domain.Coordinate{
			Latitude:  (b.Min.Lat() + b.Max.Lat()) / 2,
			Longitude: (b.Min.Lon() + b.Max.Lon()) / 2,
		},
		SpanLat: (b.Max.Lat() - b.Min.Lat()) * regionPadding,
		SpanLng: (b.Max.Lon() - b.Min.Lon()) * regionPadding,
	}
}

// Viewport is BoundingRegion with spans clamped so a single point still shows its surroundings.
func Viewport(points []domain.Coordinate) Region {
	r := BoundingRegion(points)
	r.SpanLat = math.Max(r.SpanLat, minViewSpan)
	r.SpanLng = math.Max(r.SpanLng, minViewSpan)
	return r
}

// MapCenter picks where a map should open for the snapshot:
// first POI, else first waypoint, else DefaultCenter.
func MapCenter(s domain.RouteSnapshot) domain.Coordinate {
	if len(s.POIs) > 0 {
		return s.POIs[0].Coordinate
	}
	if len(s.Waypoints) > 0 {
		return s.Waypoints[0]
	}
	return DefaultCenter
}

// SnapshotViewport frames every POI and waypoint of the snapshot.
// An empty snapshot yields a minimal viewport around MapCenter.
func SnapshotViewport(s domain.RouteSnapshot) Region {
	points := append(s.POICoordinates(), s.Waypoints...)
	if len(points) == 0 {
		points = []domain.Coordinate{MapCenter(s)}
	}
	return Viewport(points)
}
