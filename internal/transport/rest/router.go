package rest

import (
	"net/http"
	"os"
	"time"

	"wolfden/internal/service"
	"wolfden/internal/transport/rest/handler"
	"wolfden/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	MatchService     *service.MatchService
	ActionService    *service.ActionService
	HeartbeatService *service.HeartbeatService
	AdvanceService   *service.AdvanceService
	WSHub            *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	matchHandler := handler.NewMatchHandler(c.MatchService, c.AuthService)
	actionHandler := handler.NewActionHandler(c.ActionService)
	hbHandler := handler.NewHeartbeatHandler(c.HeartbeatService)
	advanceHandler := handler.NewAdvanceHandler(c.AdvanceService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/matches", matchHandler.Create).Methods("POST", "OPTIONS")
	v1.HandleFunc("/matches/{id}", matchHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/matches/{id}/token", matchHandler.Token).Methods("GET", "OPTIONS")

	v1.HandleFunc("/heartbeat", hbHandler.Beat).Methods("POST", "OPTIONS")
	v1.HandleFunc("/player-action", actionHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/advance", advanceHandler.Advance).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/matches/{id}", wsHandler.MatchWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	}).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
