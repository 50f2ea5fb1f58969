package service

import "wolfden/internal/model"

// DefaultGraph is the werewolf flow graph seeded into the node store.
// Nodes are shared templates: every match points into this same set.
func DefaultGraph() []*model.FlowNode {
	return []*model.FlowNode{
		{
			Code:        NodeNightGuard,
			Label:       "Night: guard protects",
			Kind:        model.NodeKindNight,
			DurationSec: 30,
			Allowed:     []model.ActionKind{model.ActionGuardProtect},
			Actor:       model.ActorSpec{Kind: model.ActorRoles, Roles: []model.Role{model.RoleGuard}},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionGuardProtect},
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeNightWolf,
			Label:       "Night: wolves hunt",
			Kind:        model.NodeKindNight,
			DurationSec: 40,
			Allowed:     []model.ActionKind{model.ActionWolfKill},
			Actor:       model.ActorSpec{Kind: model.ActorRoles, Roles: []model.Role{model.RoleWolf}},
			AutoAdvance: true,
			// no AdvanceOn: the pack may re-point until the window closes
			Rule: model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeNightSeer,
			Label:       "Night: seer inspects",
			Kind:        model.NodeKindNight,
			DurationSec: 30,
			Allowed:     []model.ActionKind{model.ActionSeerInspect},
			Actor:       model.ActorSpec{Kind: model.ActorRoles, Roles: []model.Role{model.RoleSeer}},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionSeerInspect},
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeNightWitch,
			Label:       "Night: witch decides",
			Kind:        model.NodeKindNight,
			DurationSec: 30,
			Allowed:     []model.ActionKind{model.ActionWitchSave, model.ActionWitchPoison},
			Actor:       model.ActorSpec{Kind: model.ActorRoles, Roles: []model.Role{model.RoleWitch}},
			AutoAdvance: true,
			// no AdvanceOn: the witch may use both potions in one night
			Rule: model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeCampaignSignup,
			Label:       "Marshal campaign: signup",
			Kind:        model.NodeKindCampaign,
			DurationSec: 15,
			Allowed:     []model.ActionKind{model.ActionCampaignSignup, model.ActionWithdraw},
			Actor:       model.ActorSpec{Kind: model.ActorAnyone},
			AutoAdvance: true,
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeCampaignSpeech,
			Label:       "Marshal campaign: candidate speech",
			Kind:        model.NodeKindCampaign,
			DurationSec: 30,
			Allowed:     []model.ActionKind{model.ActionEndSpeech, model.ActionWithdraw},
			Actor:       model.ActorSpec{Kind: model.ActorPlayer, PlayerField: "speaker"},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionEndSpeech},
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeCampaignVote,
			Label:       "Marshal campaign: vote",
			Kind:        model.NodeKindVote,
			DurationSec: 25,
			Allowed:     []model.ActionKind{model.ActionVote, model.ActionSkipVote},
			Actor:       model.ActorSpec{Kind: model.ActorAnyone},
			AutoAdvance: true,
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeCampaignPKSpeech,
			Label:       "Marshal campaign: runoff speech",
			Kind:        model.NodeKindCampaign,
			DurationSec: 20,
			Allowed:     []model.ActionKind{model.ActionEndSpeech},
			Actor:       model.ActorSpec{Kind: model.ActorPlayer, PlayerField: "speaker"},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionEndSpeech},
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeCampaignPKVote,
			Label:       "Marshal campaign: runoff vote",
			Kind:        model.NodeKindVote,
			DurationSec: 20,
			Allowed:     []model.ActionKind{model.ActionVote, model.ActionSkipVote},
			Actor:       model.ActorSpec{Kind: model.ActorAnyone},
			AutoAdvance: true,
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeDayAnnounce,
			Label:       "Day: dawn announcement",
			Kind:        model.NodeKindDay,
			DurationSec: 10,
			Actor:       model.ActorSpec{Kind: model.ActorAnyone},
			AutoAdvance: true,
			Rule:        model.TransitionRule{Kind: model.RuleFixed, Next: NodeDaySpeech},
		},
		{
			Code:        NodeDaySpeech,
			Label:       "Day: speech",
			Kind:        model.NodeKindDay,
			DurationSec: 45,
			Allowed:     []model.ActionKind{model.ActionEndSpeech},
			Actor:       model.ActorSpec{Kind: model.ActorPlayer, PlayerField: "speaker"},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionEndSpeech},
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeDayVote,
			Label:       "Day: vote",
			Kind:        model.NodeKindVote,
			DurationSec: 30,
			Allowed:     []model.ActionKind{model.ActionVote, model.ActionSkipVote},
			Actor:       model.ActorSpec{Kind: model.ActorAnyone},
			AutoAdvance: true,
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodePKSpeech,
			Label:       "Runoff: speech",
			Kind:        model.NodeKindDay,
			DurationSec: 30,
			Allowed:     []model.ActionKind{model.ActionEndSpeech},
			Actor:       model.ActorSpec{Kind: model.ActorPlayer, PlayerField: "speaker"},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionEndSpeech},
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodePKVote,
			Label:       "Runoff: vote",
			Kind:        model.NodeKindVote,
			DurationSec: 20,
			Allowed:     []model.ActionKind{model.ActionVote, model.ActionSkipVote},
			Actor:       model.ActorSpec{Kind: model.ActorAnyone},
			AutoAdvance: true,
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
		{
			Code:        NodeLastWords,
			Label:       "Day: last words",
			Kind:        model.NodeKindAction,
			DurationSec: 15,
			Allowed:     []model.ActionKind{model.ActionEndSpeech},
			Actor:       model.ActorSpec{Kind: model.ActorPlayer, PlayerField: "pendingDeath"},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionEndSpeech},
			Rule: model.TransitionRule{
				Kind: model.RuleByTrigger,
				ByTrigger: map[model.Trigger]string{
					model.TriggerAction:     NodeNightGuard,
					model.TriggerDisconnect: NodeNightGuard,
				},
				Next: NodeNightGuard,
			},
		},
		{
			Code:        NodeHunterShoot,
			Label:       "Hunter: revenge shot",
			Kind:        model.NodeKindAction,
			DurationSec: 20,
			Allowed:     []model.ActionKind{model.ActionHunterShoot},
			Actor:       model.ActorSpec{Kind: model.ActorPlayer, PlayerField: "pendingDeath"},
			AutoAdvance: true,
			AdvanceOn:   []model.ActionKind{model.ActionHunterShoot},
			Rule:        model.TransitionRule{Kind: model.RuleEngine},
		},
	}
}
