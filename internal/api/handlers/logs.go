package handlers

import (
	"hos-trip-planner/internal/api/dto"
	"hos-trip-planner/internal/services"
	"net/http"
	"time"
)

// LogHandler judges duty-status records supplied by the caller, such as
// logs a dispatcher edited after the fact.
type LogHandler struct {
	Location *time.Location
}

func (h *LogHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req dto.EvaluateLogsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	evalReq, err := toEvaluateRequest(req)
	if err != nil {
		writeServiceError(w, r, "evaluate logs", err)
		return
	}

	eval, err := services.EvaluateLogs(evalReq, h.Location)
	if err != nil {
		writeServiceError(w, r, "evaluate logs", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewEvaluateLogsResponse(eval))
}
