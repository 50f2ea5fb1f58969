package model

// NodeKind classifies a flow node for the phase engine
type NodeKind string

const (
	NodeKindNight    NodeKind = "night"    // one night role-activation step
	NodeKindDay      NodeKind = "day"      // day announcement / speech rotation
	NodeKindVote     NodeKind = "vote"     // ballot collection window
	NodeKindCampaign NodeKind = "campaign" // marshal campaign sub-flow stage
	NodeKindAction   NodeKind = "action"   // atomic single-actor step (e.g. hunter shot)
)

// Trigger identifies what caused an advance attempt
type Trigger string

const (
	TriggerTimeout    Trigger = "timeout"
	TriggerDisconnect Trigger = "disconnect"
	TriggerAction     Trigger = "action"
)

// ActorKind is the eligible-actor discriminator
type ActorKind string

const (
	ActorAnyone ActorKind = "anyone"
	ActorPlayer ActorKind = "player" // one specific seated player
	ActorRoles  ActorKind = "roles"  // any alive player holding one of Roles
)

// ActorSpec says who may act on a node. For ActorPlayer the concrete
// player is resolved per match (e.g. the current speaker, the dying
// hunter), so PlayerField names a match-state field rather than an ID.
type ActorSpec struct {
	Kind        ActorKind `json:"kind" bson:"kind"`
	Roles       []Role    `json:"roles,omitempty" bson:"roles,omitempty"`
	PlayerField string    `json:"playerField,omitempty" bson:"playerField,omitempty"` // "speaker" | "pendingDeath"
}

// RuleKind discriminates the transition-rule variant
type RuleKind string

const (
	RuleFixed        RuleKind = "fixed"
	RuleByTrigger    RuleKind = "byTrigger"
	RuleByState      RuleKind = "byState"
	RuleByLastAction RuleKind = "byLastAction"
	RuleEngine       RuleKind = "engine" // game-specific sequencing, resolved by the phase engine
)

// StateCond is one boolean condition for a by-state rule, evaluated
// against a numeric metric of the match (wolvesAlive, alive, round)
type StateCond struct {
	Metric string `json:"metric" bson:"metric"`
	Op     string `json:"op" bson:"op"` // "gt", "ge", "eq", "lt", "le"
	Value  int    `json:"value" bson:"value"`
}

// StateCase pairs a condition with its target node code
type StateCase struct {
	Cond StateCond `json:"cond" bson:"cond"`
	Next string    `json:"next" bson:"next"`
}

// TransitionRule is a closed tagged variant. Exactly one payload is
// meaningful per Kind; Next doubles as the fixed target and as the
// fallback for the lookup kinds. An empty resolved target ends the match.
type TransitionRule struct {
	Kind      RuleKind              `json:"kind" bson:"kind"`
	Next      string                `json:"next,omitempty" bson:"next,omitempty"`
	ByTrigger map[Trigger]string    `json:"byTrigger,omitempty" bson:"byTrigger,omitempty"`
	Cases     []StateCase           `json:"cases,omitempty" bson:"cases,omitempty"`
	ByAction  map[ActionKind]string `json:"byAction,omitempty" bson:"byAction,omitempty"`
}

// FlowNode is a reusable node template shared across matches
type FlowNode struct {
	Code         string         `json:"code" bson:"code"` // unique machine code, e.g. "night.wolf"
	Label        string         `json:"label" bson:"label"`
	Kind         NodeKind       `json:"kind" bson:"kind"`
	DurationSec  int            `json:"durationSec" bson:"durationSec"`
	Allowed      []ActionKind   `json:"allowed" bson:"allowed"`
	Actor        ActorSpec      `json:"actor" bson:"actor"`
	AutoAdvance  bool           `json:"autoAdvance" bson:"autoAdvance"` // advance on timeout
	AdvanceOn    []ActionKind   `json:"advanceOn,omitempty" bson:"advanceOn,omitempty"`
	Rule         TransitionRule `json:"rule" bson:"rule"`
}

// AdvancesOn reports whether recording this action kind should trigger
// an immediate advance (e.g. a speaker yielding the floor early)
func (n *FlowNode) AdvancesOn(kind ActionKind) bool {
	for _, a := range n.AdvanceOn {
		if a == kind {
			return true
		}
	}
	return false
}

// Allows reports whether the action kind is permitted on this node
func (n *FlowNode) Allows(kind ActionKind) bool {
	for _, a := range n.Allowed {
		if a == kind {
			return true
		}
	}
	return false
}
