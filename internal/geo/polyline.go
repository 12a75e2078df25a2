package geo

import (
	"fmt"

	"tour-route-service/internal/domain"

	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes points with the Google polyline algorithm (1e-5 precision).
func EncodePolyline(points []domain.Coordinate) string {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Latitude, p.Longitude})
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline reverses EncodePolyline.
func DecodePolyline(encoded string) ([]domain.Coordinate, error) {
	if encoded == "" {
		return []domain.Coordinate{}, nil
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}

	out := make([]domain.Coordinate, 0, len(coords))
	for _, c := range coords {
		if len(c) != 2 {
			return nil, fmt.Errorf("decode polyline: unexpected dimension %d", len(c))
		}
		out = append(out, domain.Coordinate{Latitude: c[0], Longitude: c[1]})
	}
	return out, nil
}
