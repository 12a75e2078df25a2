// Package geo holds the pure geometry used by authoring, routing and proximity checks.
package geo

import (
	"math"

	"tour-route-service/internal/domain"
)

// mean earth radius (IUGG)
const earthRadiusMeters = 6371008.8

// DistanceMeters returns the haversine great-circle distance between a and b.
// Inputs must be valid coordinates; callers validate before invoking.
func DistanceMeters(a, b domain.Coordinate) float64 {
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RouteLength sums the distance between consecutive points.
func RouteLength(points []domain.Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceMeters(points[i-1], points[i])
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
