package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"wolfden/internal/model"
	"wolfden/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrBadPlayerCount = errors.New("matches need between 6 and 20 players")
)

// PlayerEntry is one player joining a new match
type PlayerEntry struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

// MatchService creates matches and serves their flow state
type MatchService struct {
	matchRepo repository.MatchRepo
	nodeRepo  repository.NodeRepo
}

// NewMatchService creates a new match service
func NewMatchService(matchRepo repository.MatchRepo, nodeRepo repository.NodeRepo) *MatchService {
	return &MatchService{
		matchRepo: matchRepo,
		nodeRepo:  nodeRepo,
	}
}

// CreateMatch seats the players, deals roles for the board size and
// starts the flow on the first night step
func (s *MatchService) CreateMatch(ctx context.Context, players []PlayerEntry) (*model.MatchFlowState, error) {
	if len(players) < 6 || len(players) > 20 {
		return nil, ErrBadPlayerCount
	}

	first, err := s.nodeRepo.GetByCode(ctx, nightSteps[0])
	if err != nil {
		return nil, fmt.Errorf("failed to load entry node: %w", err)
	}
	if first == nil {
		return nil, fmt.Errorf("entry node %q not seeded", nightSteps[0])
	}

	roles := dealRoles(len(players))
	rand.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	seats := make([]model.Seat, len(players))
	for i, p := range players {
		seats[i] = model.Seat{
			Seat:     i + 1,
			PlayerID: p.PlayerID,
			Nickname: p.Nickname,
			Role:     roles[i],
			Alive:    true,
		}
	}

	now := time.Now()
	dur := time.Duration(first.DurationSec) * time.Second
	m := &model.MatchFlowState{
		ID:            uuid.New().String(),
		NodeCode:      first.Code,
		NodeStartedAt: now,
		Deadline:      now.Add(dur),
		RemainingSec:  first.DurationSec,
		LastBeatAt:    now,
		Round:         1,
		Seats:         seats,
		CreatedAt:     now,
	}

	if err := s.matchRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return m, nil
}

// GetMatch returns the current flow state, nil when unknown
func (s *MatchService) GetMatch(ctx context.Context, id string) (*model.MatchFlowState, error) {
	return s.matchRepo.GetByID(ctx, id)
}

// dealRoles picks the role board for a player count. Wolves scale with
// the table; the four gods come in above nine seats.
func dealRoles(n int) []model.Role {
	roles := []model.Role{model.RoleSeer, model.RoleWitch}
	wolves := 2
	switch {
	case n >= 12:
		wolves = 4
		roles = append(roles, model.RoleGuard, model.RoleHunter)
	case n >= 9:
		wolves = 3
		roles = append(roles, model.RoleGuard, model.RoleHunter)
	}
	for i := 0; i < wolves; i++ {
		roles = append(roles, model.RoleWolf)
	}
	for len(roles) < n {
		roles = append(roles, model.RoleVillager)
	}
	return roles
}
