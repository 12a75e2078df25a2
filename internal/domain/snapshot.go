package domain

import "slices"

// Full geometry state of a tour at one point in time.
// Waypoints is the dense drawable path; it is independent of POIs and may be empty.
type RouteSnapshot struct {
	Waypoints []Coordinate `json:"waypoints"`
	POIs      []POI        `json:"pois"`
}

// EmptySnapshot returns a snapshot with non-nil, empty sequences.
func EmptySnapshot() RouteSnapshot {
	return RouteSnapshot{Waypoints: []Coordinate{}, POIs: []POI{}}
}

// Clone returns a deep copy so callers never share slices with the owner.
func (s RouteSnapshot) Clone() RouteSnapshot {
	out := RouteSnapshot{
		Waypoints: slices.Clone(s.Waypoints),
		POIs:      make([]POI, 0, len(s.POIs)),
	}
	if out.Waypoints == nil {
		out.Waypoints = []Coordinate{}
	}
	for _, p := range s.POIs {
		out.POIs = append(out.POIs, p.Clone())
	}
	return out
}

func (s RouteSnapshot) Equal(o RouteSnapshot) bool {
	if !slices.Equal(s.Waypoints, o.Waypoints) {
		return false
	}
	return slices.EqualFunc(s.POIs, o.POIs, POI.Equal)
}

// POICoordinates returns the POI positions in visiting order.
func (s RouteSnapshot) POICoordinates() []Coordinate {
	out := make([]Coordinate, 0, len(s.POIs))
	for _, p := range s.POIs {
		out = append(out, p.Coordinate)
	}
	return out
}
