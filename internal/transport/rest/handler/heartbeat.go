package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"wolfden/internal/service"
)

// HeartbeatHandler handles liveness pings
type HeartbeatHandler struct {
	hbSvc *service.HeartbeatService
}

// NewHeartbeatHandler creates a new heartbeat handler
func NewHeartbeatHandler(hbSvc *service.HeartbeatService) *HeartbeatHandler {
	return &HeartbeatHandler{
		hbSvc: hbSvc,
	}
}

// HeartbeatRequest is the request body for a liveness ping
type HeartbeatRequest struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
}

// Beat handles POST /v1/heartbeat
func (h *HeartbeatHandler) Beat(w http.ResponseWriter, r *http.Request) {
	var req HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MatchID == "" || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "matchId and playerId are required")
		return
	}

	if err := h.hbSvc.Beat(r.Context(), req.MatchID, req.PlayerID); err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotSeated):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
