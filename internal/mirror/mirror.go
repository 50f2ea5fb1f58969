// Package mirror keeps a client-side projection of a match's flow
// state, fed by the websocket events the server pushes. It lets a
// client reject obviously illegal actions before submitting them; the
// server re-checks everything, so nothing here is authoritative.
package mirror

import (
	"time"

	"wolfden/internal/model"
)

// Mirror is one client's local copy of the match flow state
type Mirror struct {
	MatchID     string
	NodeCode    string
	NodeKind    model.NodeKind
	Round       int
	Deadline    time.Time
	Speaker     int
	ActorSeat   int
	MarshalSeat int
	Campaign    model.CampaignStage
	Ended       bool
	Outcome     model.Faction

	selfSeat int
	selfRole model.Role
	alive    map[int]bool
	acted    map[model.ActionKind]bool // kinds submitted in the current window
	nodes    map[string]*model.FlowNode
}

// New creates a mirror for one seated player. Pass selfSeat 0 for a
// spectator. The node templates come from the server once at join time.
func New(matchID string, selfSeat int, selfRole model.Role, aliveSeats []int, nodes []*model.FlowNode) *Mirror {
	m := &Mirror{
		MatchID:  matchID,
		selfSeat: selfSeat,
		selfRole: selfRole,
		alive:    make(map[int]bool),
		acted:    make(map[model.ActionKind]bool),
		nodes:    make(map[string]*model.FlowNode),
	}
	for _, s := range aliveSeats {
		m.alive[s] = true
	}
	for _, n := range nodes {
		m.nodes[n.Code] = n
	}
	return m
}

// ApplyPhase ingests a phase_changed event. Entering a new node opens a
// fresh action window.
func (m *Mirror) ApplyPhase(ev model.PhaseChangedEvent) {
	m.NodeCode = ev.NodeCode
	m.NodeKind = ev.NodeKind
	m.Round = ev.Round
	m.Deadline = ev.Deadline
	m.Speaker = ev.Speaker
	m.ActorSeat = ev.ActorSeat
	m.MarshalSeat = ev.MarshalSeat
	m.Campaign = ev.Campaign
	m.acted = make(map[model.ActionKind]bool)

	seen := make(map[int]bool)
	for _, s := range ev.AliveSeats {
		seen[s] = true
	}
	for s := range m.alive {
		m.alive[s] = seen[s]
	}
	for s := range seen {
		m.alive[s] = true
	}
}

// ApplyDeath ingests a seat_died event
func (m *Mirror) ApplyDeath(ev model.SeatDiedEvent) {
	m.alive[ev.Seat] = false
}

// ApplyEnd ingests the terminal match_ended event
func (m *Mirror) ApplyEnd(ev model.MatchEndedEvent) {
	m.Ended = true
	m.Outcome = ev.Outcome
}

// Acted marks a kind as submitted so double-acting is caught locally
func (m *Mirror) Acted(kind model.ActionKind) {
	m.acted[kind] = true
}

// ValidateAction pre-screens an action. An empty reason means the
// action looks legal; any reason is advisory and the server decides.
func (m *Mirror) ValidateAction(kind model.ActionKind, target int) (bool, string) {
	if m.Ended {
		return false, "match is over"
	}
	if m.selfSeat == 0 {
		return false, "spectators cannot act"
	}
	if m.acted[kind] {
		return false, "already acted this window"
	}

	node := m.nodes[m.NodeCode]
	if node == nil {
		return true, "" // unknown node, let the server decide
	}
	if !node.Allows(kind) {
		return false, "not your eligible phase"
	}

	switch node.Actor.Kind {
	case model.ActorPlayer:
		if m.ActorSeat != m.selfSeat {
			return false, "another player's turn"
		}
	case model.ActorRoles:
		if !m.alive[m.selfSeat] {
			return false, "dead players cannot act"
		}
		if !m.holdsRole(node.Actor.Roles) {
			return false, "your role cannot act now"
		}
	default:
		if !m.alive[m.selfSeat] {
			return false, "dead players cannot act"
		}
	}

	if target != 0 && !m.alive[target] {
		return false, "target is dead"
	}
	return true, ""
}

func (m *Mirror) holdsRole(roles []model.Role) bool {
	for _, r := range roles {
		if r == m.selfRole {
			return true
		}
	}
	return false
}
