package service

import (
	"errors"
	"os"
	"time"

	"wolfden/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates seat tokens: short JWTs binding a
// player to a match for the websocket state stream. Accounts and login
// live outside this service.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super-secret-key-change-in-production"
	}
	return &AuthService{
		jwtSecret: []byte(secret),
	}
}

// IssueSeatToken signs a token for one seated player
func (s *AuthService) IssueSeatToken(matchID, playerID string) (*model.SeatTokenResponse, error) {
	claims := &model.SeatClaims{
		MatchID:  matchID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(6 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.SeatTokenResponse{
		Token:    tokenString,
		MatchID:  matchID,
		PlayerID: playerID,
	}, nil
}

// ValidateSeatToken validates a seat token and returns its claims
func (s *AuthService) ValidateSeatToken(tokenString string) (*model.SeatClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SeatClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SeatClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
