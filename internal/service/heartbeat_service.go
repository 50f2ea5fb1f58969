package service

import (
	"context"
	"fmt"

	"wolfden/internal/cache"
	"wolfden/internal/model"
	"wolfden/internal/repository"
)

// HeartbeatService tracks player liveness and forces an advance when
// the one player who must act on the current node has gone offline.
// Idle onlookers never trigger anything.
type HeartbeatService struct {
	matchRepo  repository.MatchRepo
	liveness   cache.LivenessCache
	advanceSvc *AdvanceService
}

// NewHeartbeatService creates a new heartbeat service
func NewHeartbeatService(matchRepo repository.MatchRepo, liveness cache.LivenessCache, advanceSvc *AdvanceService) *HeartbeatService {
	return &HeartbeatService{
		matchRepo:  matchRepo,
		liveness:   liveness,
		advanceSvc: advanceSvc,
	}
}

// Beat refreshes a player's liveness window
func (s *HeartbeatService) Beat(ctx context.Context, matchID, playerID string) error {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}
	if m == nil {
		return ErrMatchNotFound
	}
	if m.SeatOf(playerID) == nil {
		return ErrNotSeated
	}
	return s.liveness.Beat(ctx, matchID, playerID)
}

// CheckDisconnect advances with trigger=disconnect when the node's sole
// eligible actor is offline. Called by the scheduler once per match per
// tick; the flow must not stall forever on a player who left.
func (s *HeartbeatService) CheckDisconnect(ctx context.Context, m *model.MatchFlowState, node *model.FlowNode) error {
	if node.Actor.Kind != model.ActorPlayer {
		return nil
	}
	playerID := m.ActorPlayerID(node.Actor)
	if playerID == "" {
		return nil
	}

	online, err := s.liveness.IsOnline(ctx, m.ID, playerID)
	if err != nil {
		return fmt.Errorf("failed to check liveness: %w", err)
	}
	if online {
		return nil
	}
	return s.advanceSvc.Advance(ctx, m.ID, model.TriggerDisconnect)
}
