package handler

import (
	"encoding/json"
	"net/http"

	"wolfden/internal/service"

	"github.com/gorilla/mux"
)

// MatchHandler handles match endpoints
type MatchHandler struct {
	matchSvc *service.MatchService
	authSvc  *service.AuthService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchSvc *service.MatchService, authSvc *service.AuthService) *MatchHandler {
	return &MatchHandler{
		matchSvc: matchSvc,
		authSvc:  authSvc,
	}
}

// CreateMatchRequest is the request body for creating a match
type CreateMatchRequest struct {
	Players []service.PlayerEntry `json:"players"`
}

// Create handles POST /v1/matches
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, p := range req.Players {
		if p.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "playerId is required for every seat")
			return
		}
	}

	m, err := h.matchSvc.CreateMatch(r.Context(), req.Players)
	if err != nil {
		if err == service.ErrBadPlayerCount {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// Get handles GET /v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	m, err := h.matchSvc.GetMatch(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// Token handles GET /v1/matches/{id}/token?playerId=...
func (h *MatchHandler) Token(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "playerId is required")
		return
	}

	m, err := h.matchSvc.GetMatch(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if m.SeatOf(playerID) == nil {
		writeError(w, http.StatusForbidden, "player is not seated in this match")
		return
	}

	resp, err := h.authSvc.IssueSeatToken(id, playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
