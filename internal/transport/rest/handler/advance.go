package handler

import (
	"encoding/json"
	"net/http"

	"wolfden/internal/model"
	"wolfden/internal/service"
)

// AdvanceHandler exposes the out-of-band advance trigger
type AdvanceHandler struct {
	advanceSvc *service.AdvanceService
}

// NewAdvanceHandler creates a new advance handler
func NewAdvanceHandler(advanceSvc *service.AdvanceService) *AdvanceHandler {
	return &AdvanceHandler{
		advanceSvc: advanceSvc,
	}
}

// AdvanceRequest is the request body for an administrative advance
type AdvanceRequest struct {
	MatchID string        `json:"matchId"`
	Trigger model.Trigger `json:"trigger"`
}

// Advance handles POST /v1/advance. Only the timeout trigger may be
// forced from outside: disconnect and action advances carry their own
// upstream validation, and a raw retried POST with either of those
// would move the match twice. A timeout advance is idempotent per
// deadline, so calling this twice is harmless.
func (h *AdvanceHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MatchID == "" {
		writeError(w, http.StatusBadRequest, "matchId is required")
		return
	}

	switch req.Trigger {
	case "", model.TriggerTimeout:
	default:
		writeError(w, http.StatusBadRequest, "only the timeout trigger can be forced")
		return
	}

	if err := h.advanceSvc.Advance(r.Context(), req.MatchID, model.TriggerTimeout); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
