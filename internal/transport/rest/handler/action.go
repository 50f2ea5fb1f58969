package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"wolfden/internal/model"
	"wolfden/internal/service"
)

// ActionHandler handles player-action submission
type ActionHandler struct {
	actionSvc *service.ActionService
}

// NewActionHandler creates a new action handler
func NewActionHandler(actionSvc *service.ActionService) *ActionHandler {
	return &ActionHandler{
		actionSvc: actionSvc,
	}
}

// PlayerActionRequest is the request body for submitting an action
type PlayerActionRequest struct {
	MatchID    string           `json:"matchId"`
	PlayerID   string           `json:"playerId"`
	ActionKind model.ActionKind `json:"actionKind"`
	Target     int              `json:"target,omitempty"`
}

// Submit handles POST /v1/player-action
func (h *ActionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req PlayerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MatchID == "" || req.PlayerID == "" || req.ActionKind == "" {
		writeError(w, http.StatusBadRequest, "matchId, playerId and actionKind are required")
		return
	}

	err := h.actionSvc.Submit(r.Context(), req.MatchID, req.PlayerID, req.ActionKind, req.Target)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case service.IsIneligible(err):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
