package model

import "github.com/golang-jwt/jwt/v5"

// SeatClaims identifies one seated player on the websocket stream
type SeatClaims struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}

// SeatTokenResponse is returned when a seat token is issued
type SeatTokenResponse struct {
	Token    string `json:"token"`
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
}
