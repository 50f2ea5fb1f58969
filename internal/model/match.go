package model

import "time"

// CampaignStage tracks progress through the marshal campaign sub-flow
type CampaignStage string

const (
	CampaignNone     CampaignStage = ""
	CampaignSignup   CampaignStage = "signup"
	CampaignSpeech   CampaignStage = "speech"
	CampaignVote     CampaignStage = "vote"
	CampaignPKSpeech CampaignStage = "pkSpeech"
	CampaignPKVote   CampaignStage = "pkVote"
)

// SpeechRotation is an ordered seat list with a cursor. Speaker is the
// seat currently holding the floor, 0 when nobody does.
type SpeechRotation struct {
	Seats   []int `json:"seats" bson:"seats"`
	Index   int   `json:"index" bson:"index"`
	Speaker int   `json:"speaker" bson:"speaker"`
}

// MatchFlowState is the per-match pointer into the flow graph plus the
// game-specific sub-state the phase engine sequences over. It is written
// only by the advance resolver (node/deadline fields) and read by
// everything else; Deadline is the compare-and-swap guard value.
type MatchFlowState struct {
	ID            string         `json:"id" bson:"_id"`
	NodeCode      string         `json:"nodeCode" bson:"nodeCode"` // "" = not started or finished
	NodeStartedAt time.Time      `json:"nodeStartedAt" bson:"nodeStartedAt"`
	Deadline      time.Time      `json:"deadline" bson:"deadline"`
	RemainingSec  int            `json:"remainingSec" bson:"remainingSec"`
	LastBeatAt    time.Time      `json:"lastBeatAt" bson:"lastBeatAt"`
	Round         int            `json:"round" bson:"round"`
	NightStep     int            `json:"nightStep" bson:"nightStep"`
	Speech        SpeechRotation `json:"speech" bson:"speech"`
	MarshalSeat   int            `json:"marshalSeat" bson:"marshalSeat"` // 0 = none elected
	Campaign      CampaignStage  `json:"campaign" bson:"campaign"`
	Candidates    []int          `json:"candidates,omitempty" bson:"candidates,omitempty"`
	PKSeats       []int          `json:"pkSeats,omitempty" bson:"pkSeats,omitempty"`
	PendingDeath  int            `json:"pendingDeath,omitempty" bson:"pendingDeath,omitempty"` // seat whose death detour is in flight
	AfterShoot    string         `json:"afterShoot,omitempty" bson:"afterShoot,omitempty"`     // node to resume after a hunter shot
	Seats         []Seat         `json:"seats" bson:"seats"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	EndedAt       *time.Time     `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
	Outcome       Faction        `json:"outcome,omitempty" bson:"outcome,omitempty"`
}

// SeatOf returns the seat entry for a player, nil if not seated
func (m *MatchFlowState) SeatOf(playerID string) *Seat {
	for i := range m.Seats {
		if m.Seats[i].PlayerID == playerID {
			return &m.Seats[i]
		}
	}
	return nil
}

// SeatByNumber returns the seat entry by seat number, nil if absent
func (m *MatchFlowState) SeatByNumber(n int) *Seat {
	for i := range m.Seats {
		if m.Seats[i].Seat == n {
			return &m.Seats[i]
		}
	}
	return nil
}

// AliveSeats returns the seat numbers of living players, in seat order
func (m *MatchFlowState) AliveSeats() []int {
	var out []int
	for _, s := range m.Seats {
		if s.Alive {
			out = append(out, s.Seat)
		}
	}
	return out
}

// CountAlive returns living offense and defense headcounts
func (m *MatchFlowState) CountAlive() (offense, defense int) {
	for _, s := range m.Seats {
		if !s.Alive {
			continue
		}
		if FactionOf(s.Role) == FactionOffense {
			offense++
		} else {
			defense++
		}
	}
	return
}

// GodsAlive returns the number of living special defensive roles
func (m *MatchFlowState) GodsAlive() int {
	n := 0
	for _, s := range m.Seats {
		if s.Alive && IsGod(s.Role) {
			n++
		}
	}
	return n
}

// Metric evaluates a by-state rule metric against the match
func (m *MatchFlowState) Metric(name string) (int, bool) {
	offense, defense := m.CountAlive()
	switch name {
	case "wolvesAlive":
		return offense, true
	case "alive":
		return offense + defense, true
	case "round":
		return m.Round, true
	case "godsAlive":
		return m.GodsAlive(), true
	}
	return 0, false
}

// ActorPlayerID resolves an ActorPlayer spec's concrete player for this
// match. Empty when the referenced seat is unset.
func (m *MatchFlowState) ActorPlayerID(spec ActorSpec) string {
	if spec.Kind != ActorPlayer {
		return ""
	}
	var seat int
	switch spec.PlayerField {
	case "speaker":
		seat = m.Speech.Speaker
	case "pendingDeath":
		seat = m.PendingDeath
	}
	if seat == 0 {
		return ""
	}
	if s := m.SeatByNumber(seat); s != nil {
		return s.PlayerID
	}
	return ""
}

// Active reports whether the match is started and not yet archived
func (m *MatchFlowState) Active() bool {
	return m.NodeCode != "" && m.EndedAt == nil
}
