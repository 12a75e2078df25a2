package api

import (
	"log/slog"
	"net/http"

	"tour-route-service/internal/api/handlers"
	"tour-route-service/internal/metrics"
	"tour-route-service/internal/services/authoring"
	"tour-route-service/internal/services/tours"
	"tour-route-service/internal/services/visits"
)

// Deps are the services the API exposes. MetricsHandler may be nil.
type Deps struct {
	Sessions       *authoring.Registry
	Tours          *tours.Service
	Visits         *visits.Service
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Log            *slog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	sessions := &handlers.SessionHandler{Sessions: d.Sessions, Log: d.Log}
	tourH := &handlers.TourHandler{Tours: d.Tours, Sessions: d.Sessions, Log: d.Log}
	visitH := &handlers.VisitHandler{Visits: d.Visits, Log: d.Log}

	mux.HandleFunc("GET /health", handlers.Health)
	if d.MetricsHandler != nil {
		mux.Handle("GET /metrics", d.MetricsHandler)
	}

	mux.HandleFunc("POST /sessions", sessions.Create)
	mux.HandleFunc("GET /sessions/{id}", sessions.Get)
	mux.HandleFunc("DELETE /sessions/{id}", sessions.Delete)
	mux.HandleFunc("PUT /sessions/{id}/snapshot", sessions.Load)
	mux.HandleFunc("POST /sessions/{id}/clear", sessions.Clear)
	mux.HandleFunc("POST /sessions/{id}/route", sessions.ComputeRoute)
	mux.HandleFunc("POST /sessions/{id}/pois", sessions.PlacePOI)
	mux.HandleFunc("PATCH /sessions/{id}/pois/{poiID}", sessions.UpdatePOI)
	mux.HandleFunc("DELETE /sessions/{id}/pois/{poiID}", sessions.DeletePOI)
	mux.HandleFunc("POST /sessions/{id}/pois/{poiID}/reorder", sessions.Reorder)
	mux.HandleFunc("POST /sessions/{id}/pois/{poiID}/images", sessions.AddImage)
	mux.HandleFunc("DELETE /sessions/{id}/pois/{poiID}/images", sessions.RemoveImage)

	mux.HandleFunc("POST /tours", tourH.Save)
	mux.HandleFunc("GET /tours", tourH.List)
	mux.HandleFunc("GET /tours/{id}", tourH.Get)
	mux.HandleFunc("GET /tours/{id}/region", tourH.Region)
	mux.HandleFunc("GET /tours/{id}/export.kml", tourH.ExportKML)
	mux.HandleFunc("GET /tours/{id}/export.geojson", tourH.ExportGeoJSON)
	mux.HandleFunc("POST /tours/{id}/pois/{poiID}/narration", tourH.Narration)

	mux.HandleFunc("POST /visits", visitH.Start)
	mux.HandleFunc("GET /visits/{id}", visitH.Get)
	mux.HandleFunc("DELETE /visits/{id}", visitH.Stop)
	mux.HandleFunc("POST /visits/{id}/positions", visitH.Position)
	mux.HandleFunc("POST /visits/{id}/location-errors", visitH.LocationError)

	return requestID(loggingMiddleware(d.Log, d.Metrics, mux))
}
