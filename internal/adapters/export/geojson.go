package export

import (
	"fmt"

	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection builds the GeoJSON view of a snapshot. The path becomes a
// LineString feature with kind "route"; every POI becomes a Point feature with
// kind "poi" and its order, title and description as properties.
func FeatureCollection(s domain.RouteSnapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if len(s.Waypoints) > 1 {
		line := make(orb.LineString, 0, len(s.Waypoints))
		for _, w := range s.Waypoints {
			line = append(line, geo.Point(w))
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "route"
		fc.Append(f)
	}

	for i, p := range s.POIs {
		f := geojson.NewFeature(geo.Point(p.Coordinate))
		f.Properties["kind"] = "poi"
		f.Properties["order"] = i + 1
		f.Properties["title"] = p.Title
		f.Properties["description"] = p.Description
		if p.ID != "" {
			f.ID = p.ID
			f.Properties["id"] = p.ID
		}
		if len(p.Images) > 0 {
			f.Properties["images"] = p.Images
		}
		if p.AudioURL != "" {
			f.Properties["audio_url"] = p.AudioURL
		}
		fc.Append(f)
	}

	return fc
}

// GeoJSON encodes FeatureCollection(s).
func GeoJSON(s domain.RouteSnapshot) ([]byte, error) {
	b, err := FeatureCollection(s).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export geojson: %w", err)
	}
	return b, nil
}
