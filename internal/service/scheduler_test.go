package service

import (
	"context"
	"testing"
	"time"

	"wolfden/internal/model"
)

func newTestScheduler(env *testEnv, at time.Time) *Scheduler {
	hb := NewHeartbeatService(env.matches, env.liveness, env.advance)
	s := NewScheduler(env.matches, env.nodes, env.advance, hb, time.Second)
	s.now = func() time.Time { return at }
	env.freeze(at)
	return s
}

func TestTickPersistsRemainingTime(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.matches.Create(ctx, startedMatch("m1", nineSeats(), NodeNightGuard, base.Add(12*time.Second)))
	sched := newTestScheduler(env, base)

	sched.Tick(ctx)

	got, _ := env.matches.GetByID(ctx, "m1")
	if got.RemainingSec != 12 {
		t.Fatalf("remaining = %d, want 12", got.RemainingSec)
	}
	if got.NodeCode != NodeNightGuard {
		t.Fatalf("node moved to %q before its deadline", got.NodeCode)
	}
}

func TestTickClampsRemainingAtZero(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// a manual node never auto-advances, so a long-expired deadline
	// must still read as zero, not negative
	env.nodes.Upsert(ctx, &model.FlowNode{
		Code: "t.manual", Kind: model.NodeKindDay, DurationSec: 10,
		Rule: model.TransitionRule{Kind: model.RuleFixed, Next: "t.manual"},
	})
	env.matches.Create(ctx, startedMatch("m1", nineSeats(), "t.manual", base.Add(-time.Hour)))
	sched := newTestScheduler(env, base)

	sched.Tick(ctx)

	got, _ := env.matches.GetByID(ctx, "m1")
	if got.RemainingSec != 0 {
		t.Fatalf("remaining = %d, want 0", got.RemainingSec)
	}
	if got.NodeCode != "t.manual" {
		t.Fatalf("manual node advanced to %q", got.NodeCode)
	}
}

func TestTickAdvancesExpiredNodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.matches.Create(ctx, startedMatch("m1", nineSeats(), NodeNightGuard, base))
	sched := newTestScheduler(env, base.Add(time.Second))

	sched.Tick(ctx)

	got, _ := env.matches.GetByID(ctx, "m1")
	if got.NodeCode != NodeNightWolf {
		t.Fatalf("node = %q, want %q after the deadline passed", got.NodeCode, NodeNightWolf)
	}
}

func TestTickRecoversAnExpiredLease(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// a crashed resolver leaves the deadline sitting at its lease value;
	// once that passes, the ordinary tick re-claims and finishes the move
	m := startedMatch("m1", nineSeats(), NodeNightGuard, base)
	env.matches.Create(ctx, m)
	claimed, _ := env.matches.ClaimAdvance(ctx, "m1", base, base.Add(15*time.Second))
	if !claimed {
		t.Fatal("setup claim failed")
	}

	sched := newTestScheduler(env, base.Add(16*time.Second))
	sched.Tick(ctx)

	got, _ := env.matches.GetByID(ctx, "m1")
	if got.NodeCode != NodeNightWolf {
		t.Fatalf("node = %q, want %q after the stale lease expired", got.NodeCode, NodeNightWolf)
	}
	if n := env.matches.commitCount(); n != 1 {
		t.Fatalf("committed %d transitions, want 1", n)
	}
}

func TestTickSkipsBrokenMatches(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	broken := startedMatch("a-broken", nineSeats(), "no.such.node", base)
	healthy := startedMatch("b-healthy", nineSeats(), NodeNightGuard, base)
	env.matches.Create(ctx, broken)
	env.matches.Create(ctx, healthy)

	sched := newTestScheduler(env, base.Add(time.Second))
	sched.Tick(ctx)

	got, _ := env.matches.GetByID(ctx, "b-healthy")
	if got.NodeCode != NodeNightWolf {
		t.Fatalf("healthy match stuck at %q; a broken sibling must not abort the scan", got.NodeCode)
	}
}

func TestCheckDisconnectForcesAdvance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	m := startedMatch("m1", nineSeats(), NodeDaySpeech, base.Add(time.Minute))
	m.Speech = model.SpeechRotation{Seats: []int{8, 9}, Index: 0, Speaker: 8}
	env.matches.Create(ctx, m)
	env.freeze(base)
	hb := NewHeartbeatService(env.matches, env.liveness, env.advance)

	// seat 9 is online, seat 8 (the speaker) never beat
	env.liveness.Beat(ctx, "m1", "p9")

	node, _ := env.nodes.GetByCode(ctx, NodeDaySpeech)
	if err := hb.CheckDisconnect(ctx, m, node); err != nil {
		t.Fatalf("check: %v", err)
	}

	got, _ := env.matches.GetByID(ctx, "m1")
	if got.Speech.Speaker != 9 {
		t.Fatalf("speaker = %d, want the floor passed to seat 9", got.Speech.Speaker)
	}
}

func TestCheckDisconnectIgnoresOnlineActor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	m := startedMatch("m1", nineSeats(), NodeDaySpeech, base.Add(time.Minute))
	m.Speech = model.SpeechRotation{Seats: []int{8, 9}, Index: 0, Speaker: 8}
	env.matches.Create(ctx, m)
	env.freeze(base)
	hb := NewHeartbeatService(env.matches, env.liveness, env.advance)

	env.liveness.Beat(ctx, "m1", "p8")

	node, _ := env.nodes.GetByCode(ctx, NodeDaySpeech)
	if err := hb.CheckDisconnect(ctx, m, node); err != nil {
		t.Fatalf("check: %v", err)
	}
	if n := env.matches.commitCount(); n != 0 {
		t.Fatalf("committed %d transitions for an online speaker", n)
	}
}

func TestCheckDisconnectIgnoresOpenNodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// the day vote is open to everyone; offline players never stall it,
	// so the monitor must not fire no matter who is away
	m := startedMatch("m1", nineSeats(), NodeDayVote, base.Add(time.Minute))
	env.matches.Create(ctx, m)
	env.freeze(base)
	hb := NewHeartbeatService(env.matches, env.liveness, env.advance)

	node, _ := env.nodes.GetByCode(ctx, NodeDayVote)
	if err := hb.CheckDisconnect(ctx, m, node); err != nil {
		t.Fatalf("check: %v", err)
	}
	if n := env.matches.commitCount(); n != 0 {
		t.Fatalf("committed %d transitions on an open node", n)
	}
}

func TestBeatValidatesSeating(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.matches.Create(ctx, startedMatch("m1", nineSeats(), NodeNightGuard, base))
	hb := NewHeartbeatService(env.matches, env.liveness, env.advance)

	if err := hb.Beat(ctx, "m1", "p3"); err != nil {
		t.Fatalf("beat: %v", err)
	}
	online, _ := env.liveness.IsOnline(ctx, "m1", "p3")
	if !online {
		t.Fatal("player not online after a beat")
	}

	if err := hb.Beat(ctx, "m1", "stranger"); err != ErrNotSeated {
		t.Fatalf("stranger beat error = %v, want ErrNotSeated", err)
	}
	if err := hb.Beat(ctx, "nope", "p3"); err != ErrMatchNotFound {
		t.Fatalf("unknown match error = %v, want ErrMatchNotFound", err)
	}
}
