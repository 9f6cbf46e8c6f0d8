package handlers

import (
	"fmt"
	"hos-trip-planner/internal/api/dto"
	"hos-trip-planner/internal/services"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// TripHandler plans trips: routing, HOS scheduling and log sheets.
type TripHandler struct {
	Planner *services.TripPlanner
	// Concurrent plans per batch request.
	BatchLimit int
}

func (h *TripHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, err := h.Planner.Plan(r.Context(), toTripRequest(req))
	if err != nil {
		writeServiceError(w, r, "plan trip", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.NewTripResponse(plan))
}

// Get returns a saved trip with its log sheets rebuilt from stored records.
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	tripID := strings.TrimSpace(chi.URLParam(r, "id"))
	if tripID == "" {
		writeError(w, r, http.StatusBadRequest, "trip id is required")
		return
	}

	plan, err := h.Planner.Trip(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, "get trip", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewTripResponse(plan))
}

// PlanBatch plans up to services.MaxBatchTrips trips concurrently. Failed
// trips are reported per index; the batch itself still succeeds.
func (h *TripHandler) PlanBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reqs := make([]services.TripRequest, 0, len(req.Trips))
	for _, t := range req.Trips {
		reqs = append(reqs, toTripRequest(t))
	}

	results, err := h.Planner.PlanTrips(r.Context(), reqs, h.BatchLimit)
	if err != nil {
		writeServiceError(w, r, "plan batch", err)
		return
	}

	res := dto.PlanBatchResponse{Results: make([]dto.BatchResult, 0, len(results))}
	for _, tr := range results {
		item := dto.BatchResult{Index: tr.Index}
		if tr.Err != nil {
			status, msg := statusFor(tr.Err)
			item.Error = fmt.Sprintf("%d: %s", status, msg)
		} else {
			t := dto.NewTripResponse(tr.Plan)
			item.Trip = &t
		}
		res.Results = append(res.Results, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}
