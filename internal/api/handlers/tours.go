package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tour-route-service/internal/adapters/export"
	"tour-route-service/internal/api/dto"
	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
	"tour-route-service/internal/services/authoring"
	"tour-route-service/internal/services/tours"
)

// TourHandler stores published tours and serves their exports.
type TourHandler struct {
	Tours    *tours.Service
	Sessions *authoring.Registry
	Log      *slog.Logger
}

func tourResponse(t *domain.Tour, withRoute bool) dto.TourResponse {
	info := tours.Describe(t)
	res := dto.TourResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		IsActive:    t.IsActive,
		POICount:    info.POIs,
		PathMeters:  info.PathMeters,
	}
	if withRoute {
		route := dto.FromSnapshot(t.Route)
		res.Route = &route
	}
	return res
}

func (h *TourHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveTourRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tour := &domain.Tour{
		ID:          strings.TrimSpace(req.ID),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Route:       req.Route.Domain(),
		IsActive:    true,
	}
	if req.IsActive != nil {
		tour.IsActive = *req.IsActive
	}

	if req.SessionID != "" {
		s, err := h.Sessions.Get(req.SessionID)
		if err != nil {
			writeServiceError(w, r, h.Log, "save tour", err)
			return
		}
		tour.Route = s.Snapshot()
	}

	if err := h.Tours.Save(r.Context(), tour); err != nil {
		writeServiceError(w, r, h.Log, "save tour", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, tourResponse(tour, true))
}

func (h *TourHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "active must be a boolean")
			return
		}
		activeOnly = b
	}

	ts, err := h.Tours.List(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, h.Log, "list tours", err)
		return
	}

	res := dto.ListToursResponse{Tours: make([]dto.TourResponse, 0, len(ts))}
	for _, t := range ts {
		res.Tours = append(res.Tours, tourResponse(t, false))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tours.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Log, "get tour", err)
		return
	}
	writeJSON(w, r, http.StatusOK, tourResponse(t, true))
}

// Region returns the map viewport that frames the whole tour.
func (h *TourHandler) Region(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tours.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Log, "tour region", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromRegion(geo.SnapshotViewport(t.Route)))
}

func (h *TourHandler) ExportKML(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tours.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Log, "export kml", err)
		return
	}

	b, err := export.KML(t)
	if err != nil {
		writeServiceError(w, r, h.Log, "export kml", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+t.ID+`.kml"`)
	_, _ = w.Write(b)
}

func (h *TourHandler) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tours.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Log, "export geojson", err)
		return
	}

	b, err := export.GeoJSON(t.Route)
	if err != nil {
		writeServiceError(w, r, h.Log, "export geojson", err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(b)
}

// Narration returns the spoken version of a POI as audio/mpeg.
func (h *TourHandler) Narration(w http.ResponseWriter, r *http.Request) {
	audio, err := h.Tours.Narrate(r.Context(), r.PathValue("id"), r.PathValue("poiID"))
	if err != nil {
		writeServiceError(w, r, h.Log, "narrate poi", err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	_, _ = w.Write(audio)
}
