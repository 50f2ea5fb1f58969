package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wolfden/internal/cache"
	"wolfden/internal/model"
	"wolfden/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchOver     = errors.New("match is not in progress")
	ErrNotSeated     = errors.New("player is not seated in this match")
	ErrDeadActor     = errors.New("dead players cannot act")
	ErrWrongPhase    = errors.New("action not allowed in the current phase")
	ErrWrongActor    = errors.New("player is not the eligible actor")
	ErrAlreadyVoted  = errors.New("player already voted this window")
	ErrBadTarget     = errors.New("target seat is not alive")
	ErrCandidateVote = errors.New("candidates cannot vote in their own election")
)

// IsIneligible reports whether an error is an eligibility rejection
// (403) rather than a server fault
func IsIneligible(err error) bool {
	return errors.Is(err, ErrMatchOver) ||
		errors.Is(err, ErrNotSeated) ||
		errors.Is(err, ErrDeadActor) ||
		errors.Is(err, ErrWrongPhase) ||
		errors.Is(err, ErrWrongActor) ||
		errors.Is(err, ErrAlreadyVoted) ||
		errors.Is(err, ErrBadTarget) ||
		errors.Is(err, ErrCandidateVote)
}

// ActionService validates and records player actions. The checks here
// are the authoritative ones; the client mirror only pre-screens.
type ActionService struct {
	matchRepo  repository.MatchRepo
	nodeRepo   repository.NodeRepo
	actionRepo repository.ActionRepo
	ballots    cache.BallotCache
	advanceSvc *AdvanceService
}

// NewActionService creates a new action service
func NewActionService(
	matchRepo repository.MatchRepo,
	nodeRepo repository.NodeRepo,
	actionRepo repository.ActionRepo,
	ballots cache.BallotCache,
	advanceSvc *AdvanceService,
) *ActionService {
	return &ActionService{
		matchRepo:  matchRepo,
		nodeRepo:   nodeRepo,
		actionRepo: actionRepo,
		ballots:    ballots,
		advanceSvc: advanceSvc,
	}
}

// Submit validates an action against the current node's allowed actions
// and eligible-actor spec, appends it to the log, and advances the flow
// when the node reacts to that action kind
func (s *ActionService) Submit(ctx context.Context, matchID, playerID string, kind model.ActionKind, target int) error {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}
	if m == nil {
		return ErrMatchNotFound
	}
	if !m.Active() {
		return ErrMatchOver
	}

	node, err := s.nodeRepo.GetByCode(ctx, m.NodeCode)
	if err != nil {
		return fmt.Errorf("failed to load node: %w", err)
	}
	if node == nil {
		return fmt.Errorf("node %q not configured", m.NodeCode)
	}

	seat := m.SeatOf(playerID)
	if seat == nil {
		return ErrNotSeated // spectators cannot act
	}
	if !node.Allows(kind) {
		return ErrWrongPhase
	}
	if err := s.checkActor(m, node, seat, playerID); err != nil {
		return err
	}
	if target != 0 {
		t := m.SeatByNumber(target)
		if t == nil || !t.Alive {
			return ErrBadTarget
		}
	}

	balloted := false
	ballotTarget := target
	if kind == model.ActionVote || kind == model.ActionSkipVote {
		if kind == model.ActionSkipVote {
			ballotTarget = 0 // recorded as participation, counts for no one
		}
		if err := s.castBallot(ctx, m, node, seat, kind, ballotTarget); err != nil {
			return err
		}
		balloted = true
	}

	rec := &model.ActionRecord{
		ID:        uuid.New().String(),
		MatchID:   m.ID,
		PlayerID:  playerID,
		Seat:      seat.Seat,
		Round:     m.Round,
		Kind:      kind,
		Target:    target,
		CreatedAt: time.Now(),
	}
	if err := s.actionRepo.Append(ctx, rec); err != nil {
		// a ballot with no audit record must not lock the voter out
		if balloted {
			if rerr := s.ballots.Retract(ctx, m.ID, m.Round, voteStage(node.Code), seat.Seat, ballotTarget); rerr != nil {
				log.Printf("match %s: failed to unwind ballot for seat %d: %v", m.ID, seat.Seat, rerr)
			}
		}
		return fmt.Errorf("failed to record action: %w", err)
	}

	if node.AdvancesOn(kind) {
		return s.advanceSvc.Advance(ctx, m.ID, model.TriggerAction)
	}
	return nil
}

// checkActor enforces the node's eligible-actor spec. The specific
// named player may act even while dead (last words, the hunter's shot);
// everyone else must be alive.
func (s *ActionService) checkActor(m *model.MatchFlowState, node *model.FlowNode, seat *model.Seat, playerID string) error {
	switch node.Actor.Kind {
	case model.ActorPlayer:
		if m.ActorPlayerID(node.Actor) != playerID {
			return ErrWrongActor
		}
		return nil
	case model.ActorRoles:
		if !seat.Alive {
			return ErrDeadActor
		}
		for _, r := range node.Actor.Roles {
			if seat.Role == r {
				return nil
			}
		}
		return ErrWrongActor
	default: // anyone seated and alive
		if !seat.Alive {
			return ErrDeadActor
		}
		return nil
	}
}

// castBallot applies the voting-specific rules for the current window.
// The cast itself is the duplicate gate: the cache counts the vote only
// when this voter was not yet in the window's voter set, so concurrent
// duplicates cannot both land.
func (s *ActionService) castBallot(ctx context.Context, m *model.MatchFlowState, node *model.FlowNode, seat *model.Seat, kind model.ActionKind, target int) error {
	// candidates are exactly the ineligible voters in their own election
	switch node.Code {
	case NodeCampaignVote:
		if containsSeat(m.Candidates, seat.Seat) {
			return ErrCandidateVote
		}
	case NodeCampaignPKVote, NodePKVote:
		if containsSeat(m.PKSeats, seat.Seat) {
			return ErrCandidateVote
		}
	}
	// PK windows only accept votes for the tied seats
	if (node.Code == NodePKVote || node.Code == NodeCampaignPKVote) &&
		kind == model.ActionVote && !containsSeat(m.PKSeats, target) {
		return ErrBadTarget
	}
	// campaign votes must point at a candidate
	if node.Code == NodeCampaignVote && kind == model.ActionVote && !containsSeat(m.Candidates, target) {
		return ErrBadTarget
	}

	added, err := s.ballots.Cast(ctx, m.ID, m.Round, voteStage(node.Code), seat.Seat, target)
	if err != nil {
		return fmt.Errorf("failed to cast ballot: %w", err)
	}
	if !added {
		return ErrAlreadyVoted
	}
	return nil
}

// voteStage maps a voting node to its ballot namespace
func voteStage(code string) string {
	switch code {
	case NodeDayVote:
		return "day"
	case NodePKVote:
		return "pk"
	case NodeCampaignVote:
		return "campaign"
	case NodeCampaignPKVote:
		return "campaignPK"
	}
	return "day"
}

func containsSeat(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}
