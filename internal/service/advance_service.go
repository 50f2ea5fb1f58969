package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"wolfden/internal/model"
	"wolfden/internal/repository"
)

// AdvanceService owns every node transition. Any number of callers (the
// tick loop, action submissions, the disconnect monitor, the admin
// endpoint) may attempt an advance concurrently; the deadline-guarded
// conditional write in the match repo serializes them, so losing the
// claim simply means someone else already moved the match.
type AdvanceService struct {
	matchRepo   repository.MatchRepo
	nodeRepo    repository.NodeRepo
	actionRepo  repository.ActionRepo
	engine      *PhaseEngine
	lease       time.Duration
	broadcaster Broadcaster
	now         func() time.Time
}

// NewAdvanceService creates a new advance service
func NewAdvanceService(
	matchRepo repository.MatchRepo,
	nodeRepo repository.NodeRepo,
	actionRepo repository.ActionRepo,
	engine *PhaseEngine,
	leaseWindow time.Duration,
) *AdvanceService {
	return &AdvanceService{
		matchRepo:  matchRepo,
		nodeRepo:   nodeRepo,
		actionRepo: actionRepo,
		engine:     engine,
		lease:      leaseWindow,
		now:        time.Now,
	}
}

// SetBroadcaster injects the WebSocket hub
func (s *AdvanceService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Advance attempts exactly one transition of the match. It is safe to
// call from any number of places with any trigger: the stored deadline
// is read, then swapped for a short lease only if unchanged. A lost
// swap is not an error. If the holder crashes mid-transition the lease
// deadline itself expires and the ordinary tick path re-claims it
// through the same swap, so no separate recovery job exists.
func (s *AdvanceService) Advance(ctx context.Context, matchID string, trigger model.Trigger) error {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("match %s not found", matchID)
	}
	if !m.Active() {
		return nil // already archived, nothing to advance
	}
	if trigger == model.TriggerTimeout && s.now().Before(m.Deadline) {
		return nil // not due yet; duplicate calls land here after the first one fires
	}

	oldDeadline := m.Deadline
	lease := s.now().Add(s.lease)
	claimed, err := s.matchRepo.ClaimAdvance(ctx, m.ID, oldDeadline, lease)
	if err != nil {
		return fmt.Errorf("failed to claim advance: %w", err)
	}
	if !claimed {
		return nil // another caller advanced this deadline already
	}
	m.Deadline = lease

	node, err := s.nodeRepo.GetByCode(ctx, m.NodeCode)
	if err != nil {
		return fmt.Errorf("failed to load node: %w", err)
	}
	if node == nil {
		return fmt.Errorf("node %q not configured for match %s", m.NodeCode, m.ID)
	}

	tr, err := s.resolve(ctx, m, node, trigger)
	if err != nil {
		// leave the lease in place: it expires and the tick retries
		return fmt.Errorf("failed to resolve transition from %q: %w", node.Code, err)
	}

	if tr.End || tr.Next == "" {
		return s.finish(ctx, m, tr, lease, trigger)
	}

	next, err := s.nodeRepo.GetByCode(ctx, tr.Next)
	if err != nil {
		return fmt.Errorf("failed to load next node: %w", err)
	}
	if next == nil {
		return fmt.Errorf("next node %q not configured", tr.Next)
	}

	s.engine.OnEnter(m, next)

	dur := time.Duration(tr.DurationSec) * time.Second
	if tr.DurationSec == 0 {
		dur = s.engine.DurationFor(m, next)
	}

	now := s.now()
	m.NodeCode = next.Code
	m.NodeStartedAt = now
	m.Deadline = now.Add(dur)
	m.RemainingSec = int(dur / time.Second)
	m.LastBeatAt = now

	committed, err := s.matchRepo.CommitTransition(ctx, m, lease)
	if err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	if !committed {
		return nil // lease expired and was re-claimed; the retry wins
	}

	log.Printf("match %s: %s -> %s (round %d, trigger %s)", m.ID, node.Code, next.Code, m.Round, trigger)
	s.announce(m, next, tr, trigger)
	return nil
}

// finish archives the match through the same conditional-write path
func (s *AdvanceService) finish(ctx context.Context, m *model.MatchFlowState, tr *Transition, lease time.Time, trigger model.Trigger) error {
	now := s.now()
	m.NodeCode = ""
	m.RemainingSec = 0
	m.EndedAt = &now
	m.Outcome = tr.Outcome

	committed, err := s.matchRepo.CommitTransition(ctx, m, lease)
	if err != nil {
		return fmt.Errorf("failed to archive match: %w", err)
	}
	if !committed {
		return nil
	}

	log.Printf("match %s ended: %s wins (trigger %s)", m.ID, tr.Outcome, trigger)
	if s.broadcaster != nil {
		for _, d := range tr.Deaths {
			s.broadcaster.BroadcastToMatch(m.ID, MsgSeatDied, d)
		}
		s.broadcaster.BroadcastToMatch(m.ID, MsgMatchEnded, model.MatchEndedEvent{
			MatchID: m.ID,
			Outcome: tr.Outcome,
		})
	}
	return nil
}

// resolve dispatches on the node's transition-rule variant, delegating
// engine-ruled nodes to the phase engine
func (s *AdvanceService) resolve(ctx context.Context, m *model.MatchFlowState, node *model.FlowNode, trigger model.Trigger) (*Transition, error) {
	rule := node.Rule
	switch rule.Kind {
	case model.RuleEngine:
		return s.engine.Next(ctx, m, node, trigger)

	case model.RuleFixed:
		return &Transition{Next: rule.Next}, nil

	case model.RuleByTrigger:
		if next, ok := rule.ByTrigger[trigger]; ok {
			return &Transition{Next: next}, nil
		}
		return &Transition{Next: rule.Next}, nil

	case model.RuleByState:
		for _, cs := range rule.Cases {
			val, ok := m.Metric(cs.Cond.Metric)
			if ok && condHolds(val, cs.Cond.Op, cs.Cond.Value) {
				return &Transition{Next: cs.Next}, nil
			}
		}
		return &Transition{Next: rule.Next}, nil

	case model.RuleByLastAction:
		last, err := s.actionRepo.Last(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load last action: %w", err)
		}
		if last != nil {
			if next, ok := rule.ByAction[last.Kind]; ok {
				return &Transition{Next: next}, nil
			}
		}
		return &Transition{Next: rule.Next}, nil
	}
	return nil, fmt.Errorf("unknown rule kind %q", rule.Kind)
}

// announce pushes the committed transition to connected clients
func (s *AdvanceService) announce(m *model.MatchFlowState, next *model.FlowNode, tr *Transition, trigger model.Trigger) {
	if s.broadcaster == nil {
		return
	}
	for _, d := range tr.Deaths {
		s.broadcaster.BroadcastToMatch(m.ID, MsgSeatDied, d)
	}
	actorSeat := 0
	if next.Actor.Kind == model.ActorPlayer {
		if seat := m.SeatOf(m.ActorPlayerID(next.Actor)); seat != nil {
			actorSeat = seat.Seat
		}
	}
	s.broadcaster.BroadcastToMatch(m.ID, MsgPhaseChanged, model.PhaseChangedEvent{
		MatchID:      m.ID,
		NodeCode:     m.NodeCode,
		NodeKind:     next.Kind,
		Round:        m.Round,
		Deadline:     m.Deadline,
		RemainingSec: m.RemainingSec,
		Speaker:      m.Speech.Speaker,
		ActorSeat:    actorSeat,
		MarshalSeat:  m.MarshalSeat,
		Campaign:     m.Campaign,
		AliveSeats:   m.AliveSeats(),
		Trigger:      trigger,
	})
}

func condHolds(val int, op string, ref int) bool {
	switch op {
	case "gt":
		return val > ref
	case "ge":
		return val >= ref
	case "eq":
		return val == ref
	case "lt":
		return val < ref
	case "le":
		return val <= ref
	}
	return false
}
