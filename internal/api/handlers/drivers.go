package handlers

import (
	"hos-trip-planner/internal/api/dto"
	"hos-trip-planner/internal/services"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type DriverHandler struct {
	Planner *services.TripPlanner
}

// Compliance reports the driver's HOS position now, or at the RFC 3339
// instant given in the "at" query parameter.
func (h *DriverHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	driverID := strings.TrimSpace(chi.URLParam(r, "id"))
	if driverID == "" {
		writeError(w, r, http.StatusBadRequest, "driver id is required")
		return
	}

	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "at must be an RFC 3339 timestamp")
			return
		}
		at = t
	}

	report, err := h.Planner.Compliance(r.Context(), driverID, at)
	if err != nil {
		writeServiceError(w, r, "driver compliance", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewComplianceResponse(report))
}

// Logs returns the driver's log sheet for the YYYY-MM-DD "date" query
// parameter in the planner's time zone, or for today.
func (h *DriverHandler) Logs(w http.ResponseWriter, r *http.Request) {
	driverID := strings.TrimSpace(chi.URLParam(r, "id"))
	if driverID == "" {
		writeError(w, r, http.StatusBadRequest, "driver id is required")
		return
	}

	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, h.Planner.Location)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = t
	}

	log, err := h.Planner.DriverLog(r.Context(), driverID, day)
	if err != nil {
		writeServiceError(w, r, "driver logs", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewDriverLogResponse(log))
}
