package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"tour-route-service/internal/api/dto"
	"tour-route-service/internal/domain"
	"tour-route-service/internal/services/visits"
)

// VisitHandler drives visitor sessions: scan a code, then stream positions.
type VisitHandler struct {
	Visits *visits.Service
	Log    *slog.Logger
}

func visitResponse(st visits.Status) dto.VisitResponse {
	return dto.VisitResponse{
		ID:        st.VisitID,
		TourID:    st.TourID,
		TourName:  st.TourName,
		State:     string(st.State),
		Error:     st.Error,
		Revealed:  dto.FromPOIs(st.Revealed),
		TotalPOIs: st.TotalPOIs,
		StartedAt: st.StartedAt,
	}
}

func (h *VisitHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartVisitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		writeError(w, r, http.StatusBadRequest, "code is required")
		return
	}

	st, err := h.Visits.Start(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, h.Log, "start visit", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, visitResponse(st))
}

func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.Visits.Status(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Log, "get visit", err)
		return
	}
	writeJSON(w, r, http.StatusOK, visitResponse(st))
}

// Position queues a fix; arrivals are evaluated asynchronously.
func (h *VisitHandler) Position(w http.ResponseWriter, r *http.Request) {
	var req dto.PositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pos := domain.Coordinate{Latitude: req.Lat, Longitude: req.Lng}
	if err := h.Visits.Push(r.Context(), r.PathValue("id"), pos); err != nil {
		writeServiceError(w, r, h.Log, "push position", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *VisitHandler) LocationError(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationErrorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Visits.ReportLocationError(r.Context(), r.PathValue("id"), req.Reason); err != nil {
		writeServiceError(w, r, h.Log, "report location error", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *VisitHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.Visits.Stop(r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.Log, "stop visit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
