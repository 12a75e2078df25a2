package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"tour-route-service/internal/adapters/speech"
	"tour-route-service/internal/domain"
	"tour-route-service/internal/services/tours"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object with no unknown fields.
// It writes the 400 response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// writeServiceError maps domain errors to HTTP statuses. Anything unknown is logged
// and reported as a 500 without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrInvalidTour),
		errors.Is(err, speech.ErrEmptyText):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrModeNotSupported):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPOINotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrTourNotFound),
		errors.Is(err, domain.ErrQRCodeNotFound),
		errors.Is(err, domain.ErrVisitNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrQRCodeInactive):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrComputeInFlight),
		errors.Is(err, domain.ErrStaleComputationResult):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRouteComputationFailed):
		status = http.StatusBadGateway
	case errors.Is(err, tours.ErrNarrationUnavailable),
		errors.Is(err, speech.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), op+" failed", "error", err)
		writeError(w, r, status, "internal server error")
		return
	}

	log.InfoContext(r.Context(), op+" rejected", "status", status, "error", err)
	writeError(w, r, status, err.Error())
}
