package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dbsmedya/accmirror/internal/lock"
	"github.com/dbsmedya/accmirror/internal/logger"
)

// Scheduler owns the single recurring timer that re-runs the sync
// orchestrator at a fixed period. Start and Stop are idempotent. Stopping
// clears all stored snapshots, so the next start treats every row as new;
// it never interrupts a pass already in flight.
type Scheduler struct {
	orch     *Orchestrator
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler creates an idle scheduler.
func NewScheduler(orch *Orchestrator, interval time.Duration, log *logger.Logger) (*Scheduler, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator is nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Scheduler{
		orch:     orch,
		interval: interval,
		logger:   log,
	}, nil
}

// Start begins the recurring timer. A second start while running is a
// no-op. Ticks that fire while a pass is still in flight are skipped, not
// queued.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Debugw("Scheduler already running, start ignored")
		return nil
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule recurring sync: %w", err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Infow("Scheduler started", "interval", s.interval)
	return nil
}

// tick runs one scheduled pass. Background-tick failures are logged only,
// never propagated out of the timer.
func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.orch.TryRunPass(ctx); err != nil {
		if errors.Is(err, lock.ErrPassInFlight) {
			s.logger.Infow("Previous pass still in flight, tick skipped")
			return
		}
		s.logger.Errorw("Scheduled pass failed", "error", err)
	}
}

// Stop cancels the timer and clears all stored snapshots. Stopping an idle
// scheduler is a no-op. An in-flight pass is allowed to finish; only future
// ticks are prevented.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Debugw("Scheduler already idle, stop ignored")
		return
	}

	s.cron.Stop()
	s.cron = nil
	s.running = false
	s.orch.Store().Clear()
	s.logger.Infow("Scheduler stopped, snapshot baseline cleared")
}

// Running reports whether the recurring timer is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
