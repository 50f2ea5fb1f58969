package mirror

import (
	"testing"
	"time"

	"wolfden/internal/model"
	"wolfden/internal/service"
)

func wolfMirror(selfSeat int, selfRole model.Role) *Mirror {
	return New("m1", selfSeat, selfRole, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, service.DefaultGraph())
}

func phaseEvent(code string, kind model.NodeKind) model.PhaseChangedEvent {
	return model.PhaseChangedEvent{
		MatchID:    "m1",
		NodeCode:   code,
		NodeKind:   kind,
		Round:      1,
		Deadline:   time.Now().Add(30 * time.Second),
		AliveSeats: []int{1, 2, 3, 4, 5, 6, 7, 8, 9},
		Trigger:    model.TriggerTimeout,
	}
}

func TestValidateActionPhaseAndRole(t *testing.T) {
	m := wolfMirror(1, model.RoleWolf)
	m.ApplyPhase(phaseEvent(service.NodeNightWolf, model.NodeKindNight))

	if ok, _ := m.ValidateAction(model.ActionWolfKill, 8); !ok {
		t.Fatal("legal wolf kill rejected")
	}
	if ok, reason := m.ValidateAction(model.ActionVote, 8); ok {
		t.Fatal("vote accepted during the night")
	} else if reason == "" {
		t.Fatal("rejection carried no reason")
	}

	seer := wolfMirror(4, model.RoleSeer)
	seer.ApplyPhase(phaseEvent(service.NodeNightWolf, model.NodeKindNight))
	if ok, _ := seer.ValidateAction(model.ActionWolfKill, 8); ok {
		t.Fatal("seer allowed to act in the wolf step")
	}
}

func TestValidateActionSpectatorAndDead(t *testing.T) {
	watcher := wolfMirror(0, "")
	watcher.ApplyPhase(phaseEvent(service.NodeDayVote, model.NodeKindVote))
	if ok, _ := watcher.ValidateAction(model.ActionVote, 8); ok {
		t.Fatal("spectator allowed to vote")
	}

	m := wolfMirror(8, model.RoleVillager)
	m.ApplyPhase(phaseEvent(service.NodeDayVote, model.NodeKindVote))
	m.ApplyDeath(model.SeatDiedEvent{MatchID: "m1", Seat: 8, Cause: "night"})
	if ok, _ := m.ValidateAction(model.ActionVote, 1); ok {
		t.Fatal("dead player allowed to vote")
	}
}

func TestValidateActionDeadTarget(t *testing.T) {
	m := wolfMirror(1, model.RoleWolf)
	m.ApplyPhase(phaseEvent(service.NodeNightWolf, model.NodeKindNight))
	m.ApplyDeath(model.SeatDiedEvent{MatchID: "m1", Seat: 9, Cause: "vote"})

	if ok, _ := m.ValidateAction(model.ActionWolfKill, 9); ok {
		t.Fatal("kill on a dead seat accepted")
	}
}

func TestValidateActionDoubleActWindow(t *testing.T) {
	m := wolfMirror(8, model.RoleVillager)
	m.ApplyPhase(phaseEvent(service.NodeDayVote, model.NodeKindVote))

	if ok, _ := m.ValidateAction(model.ActionVote, 1); !ok {
		t.Fatal("first vote rejected")
	}
	m.Acted(model.ActionVote)
	if ok, _ := m.ValidateAction(model.ActionVote, 1); ok {
		t.Fatal("second vote in the same window accepted")
	}

	// a new phase opens a fresh window
	m.ApplyPhase(phaseEvent(service.NodeDayVote, model.NodeKindVote))
	if ok, _ := m.ValidateAction(model.ActionVote, 1); !ok {
		t.Fatal("vote rejected after the window reset")
	}
}

func TestValidateActionSoleActorTurn(t *testing.T) {
	ev := phaseEvent(service.NodeDaySpeech, model.NodeKindDay)
	ev.Speaker = 8
	ev.ActorSeat = 8

	speaker := wolfMirror(8, model.RoleVillager)
	speaker.ApplyPhase(ev)
	if ok, _ := speaker.ValidateAction(model.ActionEndSpeech, 0); !ok {
		t.Fatal("the speaker's own yield rejected")
	}

	other := wolfMirror(9, model.RoleVillager)
	other.ApplyPhase(ev)
	if ok, _ := other.ValidateAction(model.ActionEndSpeech, 0); ok {
		t.Fatal("another seat allowed to end the speech")
	}
}

func TestValidateActionAfterMatchEnd(t *testing.T) {
	m := wolfMirror(1, model.RoleWolf)
	m.ApplyPhase(phaseEvent(service.NodeDayVote, model.NodeKindVote))
	m.ApplyEnd(model.MatchEndedEvent{MatchID: "m1", Outcome: model.FactionOffense})

	if ok, _ := m.ValidateAction(model.ActionVote, 8); ok {
		t.Fatal("action accepted after the match ended")
	}
	if m.Outcome != model.FactionOffense {
		t.Fatalf("outcome = %q, want offense", m.Outcome)
	}
}

func TestValidateActionUnknownNodeDefersToServer(t *testing.T) {
	m := wolfMirror(1, model.RoleWolf)
	m.ApplyPhase(phaseEvent("brand.new.node", model.NodeKindDay))

	if ok, reason := m.ValidateAction(model.ActionVote, 8); !ok {
		t.Fatalf("unknown node rejected locally (%q); the server decides", reason)
	}
}

func TestApplyPhaseReconcilesAliveSeats(t *testing.T) {
	m := wolfMirror(1, model.RoleWolf)
	ev := phaseEvent(service.NodeDayAnnounce, model.NodeKindDay)
	ev.AliveSeats = []int{1, 2, 3, 4, 5, 6, 7, 8} // seat 9 fell overnight
	m.ApplyPhase(ev)

	next := phaseEvent(service.NodeNightWolf, model.NodeKindNight)
	next.AliveSeats = []int{1, 2, 3, 4, 5, 6, 7, 8}
	m.ApplyPhase(next)
	if ok, _ := m.ValidateAction(model.ActionWolfKill, 9); ok {
		t.Fatal("kill on a seat the server reported dead accepted")
	}
}
