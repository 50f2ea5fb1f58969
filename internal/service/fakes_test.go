package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wolfden/internal/config"
	"wolfden/internal/model"
)

// In-memory doubles for the Mongo repos and Redis caches. memMatchRepo
// reproduces the conditional deadline writes so the claim/commit race
// behaves the same as against the real store.

type memMatchRepo struct {
	mu      sync.Mutex
	matches map[string]*model.MatchFlowState
	commits int
}

func newMemMatchRepo() *memMatchRepo {
	return &memMatchRepo{matches: make(map[string]*model.MatchFlowState)}
}

func cloneMatch(m *model.MatchFlowState) *model.MatchFlowState {
	c := *m
	c.Seats = append([]model.Seat(nil), m.Seats...)
	c.Speech.Seats = append([]int(nil), m.Speech.Seats...)
	c.Candidates = append([]int(nil), m.Candidates...)
	c.PKSeats = append([]int(nil), m.PKSeats...)
	if m.EndedAt != nil {
		t := *m.EndedAt
		c.EndedAt = &t
	}
	return &c
}

func (r *memMatchRepo) Create(_ context.Context, m *model.MatchFlowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *memMatchRepo) GetByID(_ context.Context, id string) (*model.MatchFlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, nil
	}
	return cloneMatch(m), nil
}

func (r *memMatchRepo) ListActive(_ context.Context) ([]*model.MatchFlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MatchFlowState
	for _, m := range r.matches {
		if m.Active() {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMatchRepo) UpdateRemaining(_ context.Context, id string, remaining int, beatAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return fmt.Errorf("match %s not stored", id)
	}
	m.RemainingSec = remaining
	m.LastBeatAt = beatAt
	return nil
}

func (r *memMatchRepo) ClaimAdvance(_ context.Context, id string, oldDeadline, leaseUntil time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || !m.Deadline.Equal(oldDeadline) {
		return false, nil
	}
	m.Deadline = leaseUntil
	return true, nil
}

func (r *memMatchRepo) CommitTransition(_ context.Context, m *model.MatchFlowState, lease time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.matches[m.ID]
	if !ok || !cur.Deadline.Equal(lease) {
		return false, nil
	}
	r.matches[m.ID] = cloneMatch(m)
	r.commits++
	return true, nil
}

func (r *memMatchRepo) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

type memNodeRepo struct {
	mu    sync.Mutex
	nodes map[string]*model.FlowNode
}

func newMemNodeRepo(nodes ...*model.FlowNode) *memNodeRepo {
	r := &memNodeRepo{nodes: make(map[string]*model.FlowNode)}
	for _, n := range nodes {
		r.nodes[n.Code] = n
	}
	return r
}

func (r *memNodeRepo) GetByCode(_ context.Context, code string) (*model.FlowNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nodes[code], nil
}

func (r *memNodeRepo) ListAll(_ context.Context) ([]*model.FlowNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.FlowNode
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (r *memNodeRepo) Upsert(_ context.Context, node *model.FlowNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.Code] = node
	return nil
}

type memActionRepo struct {
	mu   sync.Mutex
	recs []*model.ActionRecord
}

func newMemActionRepo() *memActionRepo {
	return &memActionRepo{}
}

func (r *memActionRepo) Append(_ context.Context, rec *model.ActionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *memActionRepo) Last(_ context.Context, matchID string) (*model.ActionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.recs) - 1; i >= 0; i-- {
		if r.recs[i].MatchID == matchID {
			return r.recs[i], nil
		}
	}
	return nil, nil
}

func (r *memActionRepo) ListByRound(_ context.Context, matchID string, round int) ([]*model.ActionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ActionRecord
	for _, rec := range r.recs {
		if rec.MatchID == matchID && rec.Round == round {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memBallots struct {
	mu     sync.Mutex
	tally  map[string]map[int]int
	voters map[string]map[int]bool
}

func newMemBallots() *memBallots {
	return &memBallots{
		tally:  make(map[string]map[int]int),
		voters: make(map[string]map[int]bool),
	}
}

func ballotKey(matchID string, round int, stage string) string {
	return fmt.Sprintf("%s/%d/%s", matchID, round, stage)
}

func (b *memBallots) Cast(_ context.Context, matchID string, round int, stage string, voter, target int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := ballotKey(matchID, round, stage)
	if b.tally[k] == nil {
		b.tally[k] = make(map[int]int)
		b.voters[k] = make(map[int]bool)
	}
	if b.voters[k][voter] {
		return false, nil
	}
	b.voters[k][voter] = true
	b.tally[k][target]++
	return true, nil
}

func (b *memBallots) Retract(_ context.Context, matchID string, round int, stage string, voter, target int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := ballotKey(matchID, round, stage)
	if b.voters[k] == nil || !b.voters[k][voter] {
		return nil
	}
	delete(b.voters[k], voter)
	b.tally[k][target]--
	if b.tally[k][target] == 0 {
		delete(b.tally[k], target)
	}
	return nil
}

func (b *memBallots) Tally(_ context.Context, matchID string, round int, stage string) (map[int]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[int]int)
	for seat, n := range b.tally[ballotKey(matchID, round, stage)] {
		out[seat] = n
	}
	return out, nil
}

func (b *memBallots) Clear(_ context.Context, matchID string, round int, stage string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := ballotKey(matchID, round, stage)
	delete(b.tally, k)
	delete(b.voters, k)
	return nil
}

type memLiveness struct {
	mu    sync.Mutex
	beats map[string]time.Time
}

func newMemLiveness() *memLiveness {
	return &memLiveness{beats: make(map[string]time.Time)}
}

func livenessKey(matchID, playerID string) string {
	return matchID + "/" + playerID
}

func (l *memLiveness) Beat(_ context.Context, matchID, playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.beats[livenessKey(matchID, playerID)] = time.Now()
	return nil
}

func (l *memLiveness) IsOnline(_ context.Context, matchID, playerID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.beats[livenessKey(matchID, playerID)]
	return ok, nil
}

func (l *memLiveness) LastBeat(_ context.Context, matchID, playerID string) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.beats[livenessKey(matchID, playerID)], nil
}

type broadcastMsg struct {
	matchID string
	msgType string
	payload interface{}
}

type memBroadcaster struct {
	mu   sync.Mutex
	msgs []broadcastMsg
}

func (b *memBroadcaster) BroadcastToMatch(matchID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, broadcastMsg{matchID: matchID, msgType: msgType, payload: payload})
}

func (b *memBroadcaster) BroadcastToPlayer(matchID, playerID string, msgType string, payload interface{}) {
	b.BroadcastToMatch(matchID, msgType, payload)
}

func (b *memBroadcaster) byType(msgType string) []broadcastMsg {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastMsg
	for _, m := range b.msgs {
		if m.msgType == msgType {
			out = append(out, m)
		}
	}
	return out
}

// testEnv wires the services against the in-memory doubles
type testEnv struct {
	cfg      *config.Config
	matches  *memMatchRepo
	nodes    *memNodeRepo
	actions  *memActionRepo
	ballots  *memBallots
	liveness *memLiveness
	hub      *memBroadcaster
	engine   *PhaseEngine
	advance  *AdvanceService
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		TickIntervalMS:     1000,
		LeaseWindowSec:     15,
		HeartbeatTTLSec:    10,
		CampaignMinPlayers: 9,
		MarshalBonusSec:    30,
	}
	env := &testEnv{
		cfg:      cfg,
		matches:  newMemMatchRepo(),
		nodes:    newMemNodeRepo(DefaultGraph()...),
		actions:  newMemActionRepo(),
		ballots:  newMemBallots(),
		liveness: newMemLiveness(),
		hub:      &memBroadcaster{},
	}
	env.engine = NewPhaseEngine(env.actions, env.ballots, cfg)
	env.advance = NewAdvanceService(env.matches, env.nodes, env.actions, env.engine, 15*time.Second)
	env.advance.SetBroadcaster(env.hub)
	return env
}

// freeze pins the advance service clock
func (e *testEnv) freeze(t time.Time) {
	e.advance.now = func() time.Time { return t }
}

// nineSeats deals a fixed nine-player layout: wolves in seats 1-3, seer
// 4, witch 5, guard 6, hunter 7, villagers 8-9
func nineSeats() []model.Seat {
	roles := []model.Role{
		model.RoleWolf, model.RoleWolf, model.RoleWolf,
		model.RoleSeer, model.RoleWitch, model.RoleGuard, model.RoleHunter,
		model.RoleVillager, model.RoleVillager,
	}
	seats := make([]model.Seat, len(roles))
	for i, role := range roles {
		seats[i] = model.Seat{
			Seat:     i + 1,
			PlayerID: fmt.Sprintf("p%d", i+1),
			Nickname: fmt.Sprintf("player-%d", i+1),
			Role:     role,
			Alive:    true,
		}
	}
	return seats
}

// startedMatch builds an in-progress match sitting on the given node
// with the given deadline
func startedMatch(id string, seats []model.Seat, node string, deadline time.Time) *model.MatchFlowState {
	return &model.MatchFlowState{
		ID:            id,
		NodeCode:      node,
		NodeStartedAt: deadline.Add(-30 * time.Second),
		Deadline:      deadline,
		RemainingSec:  0,
		LastBeatAt:    deadline.Add(-30 * time.Second),
		Round:         1,
		Seats:         seats,
		CreatedAt:     deadline.Add(-time.Minute),
	}
}

func kill(m *model.MatchFlowState, seats ...int) {
	for _, n := range seats {
		if s := m.SeatByNumber(n); s != nil {
			s.Alive = false
		}
	}
}
