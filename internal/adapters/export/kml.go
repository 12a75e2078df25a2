package export

import (
	"bytes"
	"fmt"

	"tour-route-service/internal/domain"

	"github.com/twpayne/go-kml"
)

// KML renders a tour as a KML document: one LineString placemark for the
// drawable path (when present) and one Point placemark per POI, in visiting order.
func KML(tour *domain.Tour) ([]byte, error) {
	if tour == nil {
		return nil, fmt.Errorf("export kml: tour is nil")
	}

	children := []kml.Element{
		kml.Name(tour.Name),
		kml.Description(tour.Description),
	}

	if len(tour.Route.Waypoints) > 1 {
		coords := make([]kml.Coordinate, 0, len(tour.Route.Waypoints))
		for _, w := range tour.Route.Waypoints {
			coords = append(coords, kml.Coordinate{Lon: w.Longitude, Lat: w.Latitude})
		}
		children = append(children, kml.Placemark(
			kml.Name(tour.Name+" route"),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coords...),
			),
		))
	}

	for i, p := range tour.Route.POIs {
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("%d. %s", i+1, p.Title)),
			kml.Description(p.Description),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}),
			),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(children...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("export kml: write: %w", err)
	}
	return buf.Bytes(), nil
}
