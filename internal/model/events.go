package model

import "time"

// Websocket event payloads pushed to connected clients so their mirror
// state machine stays current without polling.

// PhaseChangedEvent announces a committed node transition
type PhaseChangedEvent struct {
	MatchID      string        `json:"matchId"`
	NodeCode     string        `json:"nodeCode"`
	NodeKind     NodeKind      `json:"nodeKind"`
	Round        int           `json:"round"`
	Deadline     time.Time     `json:"deadline"`
	RemainingSec int           `json:"remainingSec"`
	Speaker      int           `json:"speaker,omitempty"`
	ActorSeat    int           `json:"actorSeat,omitempty"` // resolved sole eligible actor, 0 when anyone/roles
	MarshalSeat  int           `json:"marshalSeat,omitempty"`
	Campaign     CampaignStage `json:"campaign,omitempty"`
	AliveSeats   []int         `json:"aliveSeats"`
	Trigger      Trigger       `json:"trigger"`
}

// SeatDiedEvent announces an elimination
type SeatDiedEvent struct {
	MatchID string `json:"matchId"`
	Seat    int    `json:"seat"`
	Cause   string `json:"cause"` // "vote", "night", "poison", "shot"
}

// MatchEndedEvent announces the terminal transition
type MatchEndedEvent struct {
	MatchID string  `json:"matchId"`
	Outcome Faction `json:"outcome"`
}
