package cache

import (
	"encoding/json"

	"tour-route-service/internal/domain"
)

type cachedRoute struct {
	Waypoints       [][2]float64 `json:"w"`
	DistanceMeters  float64      `json:"d"`
	DurationSeconds float64      `json:"t"`
	Order           []int        `json:"o,omitempty"`
}

func encodeRoute(r domain.RouteResult) ([]byte, error) {
	cr := cachedRoute{
		Waypoints:       make([][2]float64, 0, len(r.Waypoints)),
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		Order:           r.Order,
	}
	for _, w := range r.Waypoints {
		cr.Waypoints = append(cr.Waypoints, [2]float64{w.Latitude, w.Longitude})
	}
	return json.Marshal(cr)
}

func decodeRoute(raw []byte) (domain.RouteResult, error) {
	var cr cachedRoute
	if err := json.Unmarshal(raw, &cr); err != nil {
		return domain.RouteResult{}, err
	}

	res := domain.RouteResult{
		Waypoints:       make([]domain.Coordinate, 0, len(cr.Waypoints)),
		DistanceMeters:  cr.DistanceMeters,
		DurationSeconds: cr.DurationSeconds,
		Order:           cr.Order,
	}
	for _, w := range cr.Waypoints {
		res.Waypoints = append(res.Waypoints, domain.Coordinate{Latitude: w[0], Longitude: w[1]})
	}
	return res, nil
}
