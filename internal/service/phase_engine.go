package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wolfden/internal/cache"
	"wolfden/internal/config"
	"wolfden/internal/model"
	"wolfden/internal/repository"
)

// Node codes of the seeded werewolf graph
const (
	NodeNightGuard       = "night.guard"
	NodeNightWolf        = "night.wolf"
	NodeNightSeer        = "night.seer"
	NodeNightWitch       = "night.witch"
	NodeCampaignSignup   = "campaign.signup"
	NodeCampaignSpeech   = "campaign.speech"
	NodeCampaignVote     = "campaign.vote"
	NodeCampaignPKSpeech = "campaign.pk_speech"
	NodeCampaignPKVote   = "campaign.pk_vote"
	NodeDayAnnounce      = "day.announce"
	NodeDaySpeech        = "day.speech"
	NodeDayVote          = "day.vote"
	NodePKSpeech         = "pk.speech"
	NodePKVote           = "pk.vote"
	NodeLastWords        = "day.lastwords"
	NodeHunterShoot      = "hunter.shoot"
)

// nightSteps is the ordered role-activation sequence of one night
var nightSteps = []string{NodeNightGuard, NodeNightWolf, NodeNightSeer, NodeNightWitch}

// Transition is the phase engine's answer to "what comes next". An
// empty Next with End set archives the match. DurationSec zero means
// the target node's template duration applies.
type Transition struct {
	Next        string
	DurationSec int
	End         bool
	Outcome     model.Faction
	Deaths      []model.SeatDiedEvent
}

// PhaseEngine computes game-specific next-node transitions for the
// advance resolver. It owns the night sequence, the day speech
// rotation, the marshal campaign sub-flow and vote resolution. It never
// runs its own loop; the resolver consults it while holding the lease.
type PhaseEngine struct {
	actionRepo repository.ActionRepo
	ballots    cache.BallotCache
	cfg        *config.Config
}

// NewPhaseEngine creates a new phase engine
func NewPhaseEngine(actionRepo repository.ActionRepo, ballots cache.BallotCache, cfg *config.Config) *PhaseEngine {
	return &PhaseEngine{
		actionRepo: actionRepo,
		ballots:    ballots,
		cfg:        cfg,
	}
}

// Next resolves the transition out of an engine-ruled node, mutating
// the match's sub-state (round counters, rotations, eliminations) as a
// side effect. The caller holds the advance lease and commits the match
// afterwards, so these mutations are never visible unless the commit wins.
func (e *PhaseEngine) Next(ctx context.Context, m *model.MatchFlowState, node *model.FlowNode, trigger model.Trigger) (*Transition, error) {
	switch node.Code {
	case NodeNightGuard, NodeNightWolf, NodeNightSeer, NodeNightWitch:
		return e.nextNight(ctx, m)
	case NodeDaySpeech, NodeCampaignSpeech, NodeCampaignPKSpeech, NodePKSpeech:
		return e.nextSpeech(m, node.Code), nil
	case NodeDayVote:
		return e.resolveDayVote(ctx, m)
	case NodePKVote:
		return e.resolvePKVote(ctx, m)
	case NodeCampaignSignup:
		return e.resolveSignup(ctx, m)
	case NodeCampaignVote:
		return e.resolveCampaignVote(ctx, m, "campaign", NodeCampaignPKSpeech)
	case NodeCampaignPKVote:
		return e.resolveCampaignVote(ctx, m, "campaignPK", "")
	case NodeHunterShoot:
		return e.resolveShot(ctx, m)
	}
	return nil, fmt.Errorf("phase engine: no rule for node %q", node.Code)
}

// OnEnter applies entry effects for the committed target node. It runs
// for every transition, whichever rule kind produced it, so re-entering
// the night from a generic by-trigger rule still opens a new round.
func (e *PhaseEngine) OnEnter(m *model.MatchFlowState, next *model.FlowNode) {
	switch next.Code {
	case NodeNightGuard:
		m.Round++
		m.NightStep = 0
		m.Speech = model.SpeechRotation{}
		m.Campaign = model.CampaignNone
		m.Candidates = nil
		m.PKSeats = nil
		m.PendingDeath = 0
		m.AfterShoot = ""
	case NodeDaySpeech:
		if m.Speech.Speaker == 0 {
			seats := m.AliveSeats()
			m.Speech = model.SpeechRotation{Seats: seats, Index: 0}
			if len(seats) > 0 {
				m.Speech.Speaker = seats[0]
			}
		}
	case NodeCampaignSignup:
		m.Campaign = model.CampaignSignup
	}
}

// DurationFor returns the wall duration of a node entry for this match.
// The elected marshal's speaking slots run longer than everyone else's.
func (e *PhaseEngine) DurationFor(m *model.MatchFlowState, node *model.FlowNode) time.Duration {
	sec := node.DurationSec
	switch node.Code {
	case NodeDaySpeech, NodeCampaignSpeech, NodeCampaignPKSpeech, NodePKSpeech:
		if m.MarshalSeat != 0 && m.Speech.Speaker == m.MarshalSeat {
			sec += e.cfg.MarshalBonusSec
		}
	}
	return time.Duration(sec) * time.Second
}

// nextNight advances the ordered night sequence, resolving deaths when
// the last step is done
func (e *PhaseEngine) nextNight(ctx context.Context, m *model.MatchFlowState) (*Transition, error) {
	if m.NightStep+1 < len(nightSteps) {
		m.NightStep++
		return &Transition{Next: nightSteps[m.NightStep]}, nil
	}
	return e.exitNight(ctx, m)
}

// exitNight applies the night's recorded actions and picks the day entry
func (e *PhaseEngine) exitNight(ctx context.Context, m *model.MatchFlowState) (*Transition, error) {
	recs, err := e.actionRepo.ListByRound(ctx, m.ID, m.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to load night actions: %w", err)
	}

	var guardT, killT, saveT, poisonT int
	for _, rec := range recs {
		switch rec.Kind {
		case model.ActionGuardProtect:
			guardT = rec.Target
		case model.ActionWolfKill:
			killT = rec.Target
		case model.ActionWitchSave:
			saveT = rec.Target
		case model.ActionWitchPoison:
			poisonT = rec.Target
		}
	}

	var deaths []model.SeatDiedEvent
	if killT != 0 && killT != guardT && killT != saveT {
		if s := m.SeatByNumber(killT); s != nil && s.Alive {
			s.Alive = false
			deaths = append(deaths, model.SeatDiedEvent{MatchID: m.ID, Seat: killT, Cause: "night"})
		}
	}
	if poisonT != 0 {
		if s := m.SeatByNumber(poisonT); s != nil && s.Alive {
			s.Alive = false
			deaths = append(deaths, model.SeatDiedEvent{MatchID: m.ID, Seat: poisonT, Cause: "poison"})
		}
	}

	if outcome, over := EvaluateWin(m); over {
		return &Transition{End: true, Outcome: outcome, Deaths: deaths}, nil
	}

	dayEntry := NodeDayAnnounce
	if m.Round == 1 && len(m.AliveSeats()) >= e.cfg.CampaignMinPlayers {
		dayEntry = NodeCampaignSignup
	}

	// A hunter killed by the wolves fires before the day opens. A
	// poisoned hunter keeps his gun holstered.
	for _, d := range deaths {
		s := m.SeatByNumber(d.Seat)
		if s != nil && s.Role == model.RoleHunter && d.Cause == "night" {
			m.PendingDeath = d.Seat
			m.AfterShoot = dayEntry
			return &Transition{Next: NodeHunterShoot, Deaths: deaths}, nil
		}
	}

	return &Transition{Next: dayEntry, Deaths: deaths}, nil
}

// nextSpeech moves a speech rotation forward or exits it
func (e *PhaseEngine) nextSpeech(m *model.MatchFlowState, code string) *Transition {
	exit := map[string]string{
		NodeDaySpeech:        NodeDayVote,
		NodeCampaignSpeech:   NodeCampaignVote,
		NodeCampaignPKSpeech: NodeCampaignPKVote,
		NodePKSpeech:         NodePKVote,
	}[code]

	m.Speech.Index++
	if m.Speech.Index < len(m.Speech.Seats) {
		m.Speech.Speaker = m.Speech.Seats[m.Speech.Index]
		return &Transition{Next: code}
	}
	m.Speech.Speaker = 0
	return &Transition{Next: exit}
}

// resolveDayVote tallies the day ballot: strict plurality eliminates,
// a tie enters the PK sub-flow, an all-skip round goes back to night
func (e *PhaseEngine) resolveDayVote(ctx context.Context, m *model.MatchFlowState) (*Transition, error) {
	tally, err := e.ballots.Tally(ctx, m.ID, m.Round, "day")
	if err != nil {
		return nil, fmt.Errorf("failed to tally day vote: %w", err)
	}
	defer e.ballots.Clear(ctx, m.ID, m.Round, "day")

	top, tied := topTargets(tally)
	switch {
	case top == 0:
		// nobody voted a target: round ends with no elimination
		return &Transition{Next: NodeNightGuard}, nil
	case len(tied) > 1:
		m.PKSeats = tied
		m.Speech = model.SpeechRotation{Seats: tied, Index: 0, Speaker: tied[0]}
		return &Transition{Next: NodePKSpeech}, nil
	}
	return e.eliminateByVote(m, top)
}

// resolvePKVote tallies the runoff; a second tie eliminates nobody
func (e *PhaseEngine) resolvePKVote(ctx context.Context, m *model.MatchFlowState) (*Transition, error) {
	tally, err := e.ballots.Tally(ctx, m.ID, m.Round, "pk")
	if err != nil {
		return nil, fmt.Errorf("failed to tally pk vote: %w", err)
	}
	defer e.ballots.Clear(ctx, m.ID, m.Round, "pk")

	top, tied := topTargets(tally)
	if top == 0 || len(tied) > 1 {
		m.PKSeats = nil
		return &Transition{Next: NodeNightGuard}, nil
	}
	m.PKSeats = nil
	return e.eliminateByVote(m, top)
}

// eliminateByVote kills the plurality target and routes to the death
// detour (hunter shot or last words) unless the game is over
func (e *PhaseEngine) eliminateByVote(m *model.MatchFlowState, seat int) (*Transition, error) {
	s := m.SeatByNumber(seat)
	if s == nil || !s.Alive {
		return &Transition{Next: NodeNightGuard}, nil
	}
	s.Alive = false
	deaths := []model.SeatDiedEvent{{MatchID: m.ID, Seat: seat, Cause: "vote"}}

	if outcome, over := EvaluateWin(m); over {
		return &Transition{End: true, Outcome: outcome, Deaths: deaths}, nil
	}

	m.PendingDeath = seat
	if s.Role == model.RoleHunter {
		m.AfterShoot = NodeNightGuard
		return &Transition{Next: NodeHunterShoot, Deaths: deaths}, nil
	}
	return &Transition{Next: NodeLastWords, Deaths: deaths}, nil
}

// resolveSignup closes the campaign signup window
func (e *PhaseEngine) resolveSignup(ctx context.Context, m *model.MatchFlowState) (*Transition, error) {
	cands, err := e.campaignCandidates(ctx, m)
	if err != nil {
		return nil, err
	}
	m.Candidates = cands

	if len(cands) < 2 {
		if len(cands) == 1 {
			m.MarshalSeat = cands[0]
		}
		m.Campaign = model.CampaignNone
		return &Transition{Next: NodeDayAnnounce}, nil
	}

	m.Campaign = model.CampaignSpeech
	m.Speech = model.SpeechRotation{Seats: cands, Index: 0, Speaker: cands[0]}
	return &Transition{Next: NodeCampaignSpeech}, nil
}

// resolveCampaignVote tallies a campaign stage; stage "campaign" may
// enter the PK runoff, the runoff itself ends with or without a marshal
func (e *PhaseEngine) resolveCampaignVote(ctx context.Context, m *model.MatchFlowState, stage, pkNode string) (*Transition, error) {
	tally, err := e.ballots.Tally(ctx, m.ID, m.Round, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to tally %s vote: %w", stage, err)
	}
	defer e.ballots.Clear(ctx, m.ID, m.Round, stage)

	top, tied := topTargets(tally)
	if len(tied) > 1 && pkNode != "" {
		m.Campaign = model.CampaignPKSpeech
		m.PKSeats = tied
		m.Speech = model.SpeechRotation{Seats: tied, Index: 0, Speaker: tied[0]}
		return &Transition{Next: pkNode}, nil
	}
	if top != 0 && len(tied) == 1 {
		m.MarshalSeat = top
	}
	m.Campaign = model.CampaignNone
	m.Candidates = nil
	m.PKSeats = nil
	return &Transition{Next: NodeDayAnnounce}, nil
}

// resolveShot applies the hunter's shot and resumes the stored path
func (e *PhaseEngine) resolveShot(ctx context.Context, m *model.MatchFlowState) (*Transition, error) {
	next := m.AfterShoot
	if next == "" {
		next = NodeDayAnnounce
	}
	m.PendingDeath = 0
	m.AfterShoot = ""

	last, err := e.actionRepo.Last(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last action: %w", err)
	}
	if last == nil || last.Kind != model.ActionHunterShoot || last.Target == 0 {
		return &Transition{Next: next}, nil // gun never fired
	}

	s := m.SeatByNumber(last.Target)
	if s == nil || !s.Alive {
		return &Transition{Next: next}, nil
	}
	s.Alive = false
	deaths := []model.SeatDiedEvent{{MatchID: m.ID, Seat: last.Target, Cause: "shot"}}

	if outcome, over := EvaluateWin(m); over {
		return &Transition{End: true, Outcome: outcome, Deaths: deaths}, nil
	}
	return &Transition{Next: next, Deaths: deaths}, nil
}

// campaignCandidates reads this round's signup actions, honoring withdrawals
func (e *PhaseEngine) campaignCandidates(ctx context.Context, m *model.MatchFlowState) ([]int, error) {
	recs, err := e.actionRepo.ListByRound(ctx, m.ID, m.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to load signup actions: %w", err)
	}
	in := make(map[int]bool)
	for _, rec := range recs {
		switch rec.Kind {
		case model.ActionCampaignSignup:
			in[rec.Seat] = true
		case model.ActionWithdraw:
			delete(in, rec.Seat)
		}
	}
	var cands []int
	for seat := range in {
		if s := m.SeatByNumber(seat); s != nil && s.Alive {
			cands = append(cands, seat)
		}
	}
	sort.Ints(cands)
	return cands, nil
}

// topTargets returns the seat with the strictly highest count, plus the
// full set of seats sharing that count (len > 1 means a tie). Seat 0 is
// the abstention bucket and never competes; a zero top means nobody
// voted a real target.
func topTargets(tally map[int]int) (top int, tied []int) {
	best := 0
	for seat, n := range tally {
		if seat != 0 && n > best {
			best = n
			top = seat
		}
	}
	if best == 0 {
		return 0, nil
	}
	for seat, n := range tally {
		if seat != 0 && n == best {
			tied = append(tied, seat)
		}
	}
	sort.Ints(tied)
	return top, tied
}

// EvaluateWin checks the win conditions in order. First match ends the
// match; no match means play continues.
func EvaluateWin(m *model.MatchFlowState) (model.Faction, bool) {
	offense, defense := m.CountAlive()
	switch {
	case offense > 0 && defense == 0:
		return model.FactionOffense, true
	case offense > 0 && offense >= defense:
		return model.FactionOffense, true
	case offense > 0 && m.GodsAlive() == 0:
		return model.FactionOffense, true
	case offense == 0:
		return model.FactionDefense, true
	}
	return "", false
}
