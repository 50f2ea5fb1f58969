package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"wolfden/internal/model"
	"wolfden/internal/repository"
)

// Scheduler is the recurring tick loop driving timeouts. Once per
// second it rescans every active match, persists the remaining time and
// fires a timeout advance when a node's deadline has passed. A broken
// match is logged and skipped; the scan never aborts.
type Scheduler struct {
	matchRepo  repository.MatchRepo
	nodeRepo   repository.NodeRepo
	advanceSvc *AdvanceService
	hbSvc      *HeartbeatService
	interval   time.Duration
	now        func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(
	matchRepo repository.MatchRepo,
	nodeRepo repository.NodeRepo,
	advanceSvc *AdvanceService,
	hbSvc *HeartbeatService,
	interval time.Duration,
) *Scheduler {
	return &Scheduler{
		matchRepo:  matchRepo,
		nodeRepo:   nodeRepo,
		advanceSvc: advanceSvc,
		hbSvc:      hbSvc,
		interval:   interval,
		now:        time.Now,
	}
}

// Run ticks until the context is canceled
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("scheduler started (interval %s)", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes one scan of all active matches
func (s *Scheduler) Tick(ctx context.Context) {
	matches, err := s.matchRepo.ListActive(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list active matches: %v", err)
		return
	}

	for _, m := range matches {
		if err := s.tickMatch(ctx, m); err != nil {
			log.Printf("scheduler: match %s: %v", m.ID, err)
		}
	}
}

func (s *Scheduler) tickMatch(ctx context.Context, m *model.MatchFlowState) error {
	node, err := s.nodeRepo.GetByCode(ctx, m.NodeCode)
	if err != nil {
		return fmt.Errorf("failed to load node %q: %w", m.NodeCode, err)
	}
	if node == nil {
		return fmt.Errorf("node %q not configured", m.NodeCode)
	}

	now := s.now()
	remaining := int(m.Deadline.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	if err := s.matchRepo.UpdateRemaining(ctx, m.ID, remaining, now); err != nil {
		return fmt.Errorf("failed to persist remaining time: %w", err)
	}

	if remaining == 0 && node.AutoAdvance {
		if err := s.advanceSvc.Advance(ctx, m.ID, model.TriggerTimeout); err != nil {
			return err
		}
	}

	return s.hbSvc.CheckDisconnect(ctx, m, node)
}
