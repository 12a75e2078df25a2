package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tour-route-service/internal/api/dto"
	"tour-route-service/internal/domain"
	"tour-route-service/internal/geo"
	"tour-route-service/internal/services/authoring"
	"tour-route-service/internal/services/routecompute"
)

// SessionHandler exposes the map authoring state machine.
type SessionHandler struct {
	Sessions *authoring.Registry
	Log      *slog.Logger
}

func sessionResponse(st authoring.State) dto.SessionResponse {
	return dto.SessionResponse{
		ID:        st.ID,
		Mode:      string(st.Mode),
		Selected:  st.Selected,
		Revision:  st.Revision,
		Computing: st.Computing,
		Snapshot:  dto.FromSnapshot(st.Snapshot),
		Region:    dto.FromRegion(geo.SnapshotViewport(st.Snapshot)),
	}
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*authoring.Session, bool) {
	s, err := h.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Log, "get session", err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	mode := authoring.Mode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = authoring.ModeRoute
	}
	if !mode.Valid() {
		writeError(w, r, http.StatusBadRequest, "mode must be route or single")
		return
	}

	s, err := h.Sessions.Create(mode)
	if err != nil {
		writeServiceError(w, r, h.Log, "create session", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sessionResponse(s.State()))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Delete(r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.Log, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) PlacePOI(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.PlacePOIRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	poi, _, err := s.PlacePOI(domain.Coordinate{Latitude: req.Lat, Longitude: req.Lng})
	if err != nil {
		writeServiceError(w, r, h.Log, "place poi", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.PlacePOIResponse{
		POI:     dto.FromPOI(poi),
		Session: sessionResponse(s.State()),
	})
}

// UpdatePOI moves, edits, or selects a POI depending on which fields are present.
func (h *SessionHandler) UpdatePOI(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.UpdatePOIRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		writeError(w, r, http.StatusBadRequest, "lat and lng must be provided together")
		return
	}

	poiID := r.PathValue("poiID")
	var err error
	if req.Lat != nil {
		_, err = s.MovePOI(poiID, domain.Coordinate{Latitude: *req.Lat, Longitude: *req.Lng})
	}
	if err == nil && req.Title != nil {
		_, err = s.EditMetadata(poiID, authoring.Title, *req.Title)
	}
	if err == nil && req.Description != nil {
		_, err = s.EditMetadata(poiID, authoring.Description, *req.Description)
	}
	if err == nil && req.AudioURL != nil {
		_, err = s.SetAudio(poiID, *req.AudioURL)
	}
	if err == nil && req.Selected != nil && *req.Selected {
		_, err = s.Select(poiID)
	}
	if err != nil {
		writeServiceError(w, r, h.Log, "update poi", err)
		return
	}

	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

func (h *SessionHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dir := authoring.Direction(strings.ToLower(strings.TrimSpace(req.Direction)))
	if dir != authoring.Up && dir != authoring.Down {
		writeError(w, r, http.StatusBadRequest, "direction must be up or down")
		return
	}

	if _, err := s.Reorder(r.PathValue("poiID"), dir); err != nil {
		writeServiceError(w, r, h.Log, "reorder poi", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

func (h *SessionHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.ImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.AddImage(r.PathValue("poiID"), req.URL); err != nil {
		writeServiceError(w, r, h.Log, "add image", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

func (h *SessionHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "index query parameter must be an integer")
		return
	}

	if _, err := s.RemoveImage(r.PathValue("poiID"), index); err != nil {
		writeServiceError(w, r, h.Log, "remove image", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

func (h *SessionHandler) DeletePOI(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := s.DeletePOI(r.PathValue("poiID")); err != nil {
		writeServiceError(w, r, h.Log, "delete poi", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := s.ClearAll(); err != nil {
		writeServiceError(w, r, h.Log, "clear session", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

// Load replaces the session content, e.g. to edit a stored tour.
func (h *SessionHandler) Load(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.LoadSnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.Load(req.Snapshot.Domain()); err != nil {
		writeServiceError(w, r, h.Log, "load snapshot", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s.State()))
}

func (h *SessionHandler) ComputeRoute(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.ComputeRouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	mode := domain.ComputeMode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = domain.FixedOrder
	}
	if !mode.Valid() {
		writeError(w, r, http.StatusBadRequest, "mode must be fixed or optimize")
		return
	}

	res, _, err := s.ComputeRoute(r.Context(), mode)
	if err != nil {
		writeServiceError(w, r, h.Log, "compute route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ComputeRouteResponse{
		Summary:         routecompute.Summary(res),
		DistanceMeters:  res.DistanceMeters,
		DurationSeconds: res.DurationSeconds,
		Order:           res.Order,
		Session:         sessionResponse(s.State()),
	})
}
