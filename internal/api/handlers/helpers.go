package handlers

import (
	"encoding/json"
	"errors"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/obs"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Request bodies larger than this are rejected before decoding.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().
			Str("req_id", obs.RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Err(err).
			Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into dst and rejects unknown fields.
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

// statusFor maps a service error onto the HTTP status and the message the
// client is allowed to see.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var in *domain.InputError
		if errors.As(err, &in) {
			return http.StatusBadRequest, in.Error()
		}
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInfeasibleTrip):
		var inf *domain.InfeasibleError
		if errors.As(err, &inf) {
			return http.StatusUnprocessableEntity, inf.Error()
		}
		return http.StatusUnprocessableEntity, domain.ErrInfeasibleTrip.Error()
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "routing provider unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Str("req_id", obs.RequestID(r.Context())).Str("op", op).Err(err).Msg("request failed")
	}
	writeError(w, r, status, msg)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
