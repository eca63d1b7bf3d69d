package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dbsmedya/accmirror/internal/config"
	"github.com/dbsmedya/accmirror/internal/database"
	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/notify"
	"github.com/dbsmedya/accmirror/internal/source"
	"github.com/dbsmedya/accmirror/internal/types"
	"github.com/dbsmedya/accmirror/internal/verifier"
)

// ServiceStatus is the externally observable state of a mirror service.
type ServiceStatus struct {
	Connected        bool              `json:"connected"`
	SchedulerRunning bool              `json:"schedulerRunning"`
	LastPass         *types.PassResult `json:"lastPass,omitempty"`
}

// Service is the facade exposed to the HTTP layer and the CLI. It owns the
// database connections and builds the sync pipeline lazily on the first
// trigger, optionally with request-supplied connection info merged over the
// configured defaults.
type Service struct {
	baseCfg  *config.Config
	baseCtx  context.Context
	notifier notify.Notifier
	logger   *logger.Logger

	mu      sync.Mutex
	manager *database.Manager
	orch    *Orchestrator
	sched   *Scheduler
}

// NewService creates an unconnected service. baseCtx bounds all background
// work; canceling it prevents future scheduler ticks.
func NewService(baseCtx context.Context, cfg *config.Config, notifier notify.Notifier, log *logger.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Service{
		baseCfg:  cfg,
		baseCtx:  baseCtx,
		notifier: notifier,
		logger:   log,
	}
}

// StartOrRunSync connects (if not yet connected), starts the recurring
// scheduler (idempotent), and kicks off an immediate pass in the
// background. It returns a human-readable status message.
func (s *Service) StartOrRunSync(ctx context.Context, src config.SourceConfig, dest config.DestinationConfig) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConnectedLocked(ctx, src, dest); err != nil {
		return "", err
	}

	if err := s.sched.Start(s.baseCtx); err != nil {
		return "", fmt.Errorf("failed to start scheduler: %w", err)
	}

	// The triggered pass queues behind any in-flight pass instead of
	// failing; the HTTP call returns immediately.
	go func() {
		if _, err := s.orch.RunPass(s.baseCtx); err != nil {
			s.logger.Errorw("Triggered pass failed", "error", err)
		}
	}()

	interval := time.Duration(s.baseCfg.Sync.IntervalSeconds) * time.Second
	return fmt.Sprintf("sync started, recurring every %s", interval), nil
}

// RunOnce connects (if needed) and runs a single synchronous pass.
// Used by the one-shot CLI path.
func (s *Service) RunOnce(ctx context.Context) (*types.PassResult, error) {
	s.mu.Lock()
	if err := s.ensureConnectedLocked(ctx, config.SourceConfig{}, config.DestinationConfig{}); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	orch := s.orch
	s.mu.Unlock()

	return orch.RunPass(ctx)
}

// StopScheduler cancels the recurring timer and clears the snapshot
// baseline. Stopping an idle service is a successful no-op.
func (s *Service) StopScheduler() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sched == nil || !s.sched.Running() {
		return "scheduler already idle", nil
	}

	s.sched.Stop()
	return "scheduler stopped", nil
}

// Status reports the externally observable service state.
func (s *Service) Status() ServiceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := ServiceStatus{Connected: s.manager != nil}
	if s.sched != nil {
		status.SchedulerRunning = s.sched.Running()
	}
	if s.orch != nil {
		status.LastPass = s.orch.LastResult()
	}
	return status
}

// Close stops the scheduler and closes both database connections.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sched != nil && s.sched.Running() {
		s.sched.Stop()
	}
	if s.manager != nil {
		err := s.manager.Close()
		s.manager = nil
		return err
	}
	return nil
}

// ensureConnectedLocked builds the whole pipeline on first use. Caller
// holds s.mu. Connection info supplied with the request overrides the
// configured defaults; once connected, later overrides are ignored.
func (s *Service) ensureConnectedLocked(ctx context.Context, src config.SourceConfig, dest config.DestinationConfig) error {
	if s.manager != nil {
		return nil
	}

	cfg := s.baseCfg.Merge(src, dest)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	manager := database.NewManager(cfg)
	if err := manager.Connect(ctx); err != nil {
		return err
	}
	s.notifier.Notify("connected to source and destination")

	accessSource, err := source.NewAccessSource(manager.Source, cfg.Source.Tables, s.logger)
	if err != nil {
		manager.Close()
		return err
	}

	reconciler, err := NewReconciler(manager.Destination, s.logger)
	if err != nil {
		manager.Close()
		return err
	}

	applier, err := NewApplier(manager.Destination, s.logger)
	if err != nil {
		manager.Close()
		return err
	}

	var ver *verifier.Verifier
	if !cfg.Sync.SkipVerify {
		if ver, err = verifier.NewVerifier(manager.Destination, s.logger); err != nil {
			manager.Close()
			return err
		}
	}

	store := NewSnapshotStore()
	migrator, err := NewMigrator(accessSource, reconciler, applier, ver, store, s.notifier, s.logger, cfg.Sync.SkipPrefix)
	if err != nil {
		manager.Close()
		return err
	}

	orch, err := NewOrchestrator(accessSource, migrator, store, s.notifier, s.logger)
	if err != nil {
		manager.Close()
		return err
	}

	interval := time.Duration(cfg.Sync.IntervalSeconds) * time.Second
	sched, err := NewScheduler(orch, interval, s.logger)
	if err != nil {
		manager.Close()
		return err
	}

	s.manager = manager
	s.orch = orch
	s.sched = sched
	s.baseCfg = cfg
	return nil
}
