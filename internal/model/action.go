package model

import "time"

// ActionKind classifies a player action
type ActionKind string

const (
	ActionGuardProtect   ActionKind = "guard_protect"
	ActionWolfKill       ActionKind = "wolf_kill"
	ActionSeerInspect    ActionKind = "seer_inspect"
	ActionWitchSave      ActionKind = "witch_save"
	ActionWitchPoison    ActionKind = "witch_poison"
	ActionEndSpeech      ActionKind = "end_speech"
	ActionVote           ActionKind = "vote"
	ActionSkipVote       ActionKind = "skip_vote"
	ActionCampaignSignup ActionKind = "campaign_signup"
	ActionWithdraw       ActionKind = "campaign_withdraw"
	ActionHunterShoot    ActionKind = "hunter_shoot"
)

// ActionRecord is one append-only log entry. Target carries the seat
// number the action points at, 0 for untargeted actions.
type ActionRecord struct {
	ID        string     `json:"id" bson:"_id"`
	MatchID   string     `json:"matchId" bson:"matchId"`
	PlayerID  string     `json:"playerId" bson:"playerId"`
	Seat      int        `json:"seat" bson:"seat"`
	Round     int        `json:"round" bson:"round"`
	Kind      ActionKind `json:"kind" bson:"kind"`
	Target    int        `json:"target,omitempty" bson:"target,omitempty"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}
