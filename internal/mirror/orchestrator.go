package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/accmirror/internal/lock"
	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/notify"
	"github.com/dbsmedya/accmirror/internal/source"
	"github.com/dbsmedya/accmirror/internal/types"
)

// Orchestrator runs complete sync passes: it enumerates all source tables
// and migrates each in turn. Both the on-demand trigger and the recurring
// timer route through the same run lock, so passes never interleave.
type Orchestrator struct {
	source   source.Source
	migrator *Migrator
	store    *SnapshotStore
	notifier notify.Notifier
	logger   *logger.Logger
	runLock  *lock.RunLock

	mu         sync.Mutex
	lastResult *types.PassResult
}

// NewOrchestrator wires a sync orchestrator.
func NewOrchestrator(
	src source.Source,
	migrator *Migrator,
	store *SnapshotStore,
	notifier notify.Notifier,
	log *logger.Logger,
) (*Orchestrator, error) {
	if src == nil {
		return nil, fmt.Errorf("source is nil")
	}
	if migrator == nil {
		return nil, fmt.Errorf("migrator is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store is nil")
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Orchestrator{
		source:   src,
		migrator: migrator,
		store:    store,
		notifier: notifier,
		logger:   log,
		runLock:  lock.NewRunLock(),
	}, nil
}

// RunPass executes one complete pass, waiting for any in-flight pass to
// finish first. Use this for on-demand triggers.
func (o *Orchestrator) RunPass(ctx context.Context) (*types.PassResult, error) {
	var result *types.PassResult
	err := o.runLock.WithLock(func() error {
		result = o.runPassLocked(ctx)
		return nil
	})
	return result, err
}

// TryRunPass executes one pass unless another is already in flight, in
// which case the tick is skipped rather than queued. Use this from the
// recurring timer.
func (o *Orchestrator) TryRunPass(ctx context.Context) (*types.PassResult, error) {
	var result *types.PassResult
	err := o.runLock.TryWithLock(func() error {
		result = o.runPassLocked(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runPassLocked does the work. Caller must hold the run lock.
func (o *Orchestrator) runPassLocked(ctx context.Context) *types.PassResult {
	result := &types.PassResult{
		PassID:    uuid.New().String(),
		StartedAt: time.Now(),
	}
	log := o.logger.WithPass(result.PassID)

	tables, err := o.source.Tables(ctx)
	if err != nil {
		// Source unreachable: abort this pass, report, retry next cycle.
		log.Errorw("Failed to list source tables", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("list tables: %v", err))
		o.finishPass(result, log)
		return result
	}

	log.Infow("Starting sync pass", "tables", len(tables))
	o.notifier.Notify(fmt.Sprintf("sync pass started (%d tables)", len(tables)))

	// Tables are processed sequentially to bound concurrent load on both
	// databases. A failure in one table never halts the loop.
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pass interrupted: %v", err))
			break
		}

		summary := o.migrateIsolated(ctx, table, result)
		result.Tables = append(result.Tables, summary)
	}

	o.finishPass(result, log)
	return result
}

// migrateIsolated runs one table migration, converting a panic into a
// recorded error so the loop continues with the next table.
func (o *Orchestrator) migrateIsolated(ctx context.Context, table string, result *types.PassResult) (summary types.ChangeSummary) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorw("Table migration panicked", "table", table, "panic", r)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", table, r))
			summary = types.ChangeSummary{Table: table}
		}
	}()
	return o.migrator.MigrateTable(ctx, table)
}

// finishPass stamps the result, records it, and emits the terminal
// pass-complete signal regardless of per-table outcomes.
func (o *Orchestrator) finishPass(result *types.PassResult, log *logger.Logger) {
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	o.mu.Lock()
	o.lastResult = result
	o.mu.Unlock()

	log.Infow("Sync pass complete",
		"duration", result.Duration,
		"tables", len(result.Tables),
		"changes", result.TotalChanges(),
		"errors", len(result.Errors),
	)
	o.notifier.Notify(fmt.Sprintf("sync pass complete: %d tables, %d changes",
		len(result.Tables), result.TotalChanges()))
}

// LastResult returns the most recently completed pass, or nil if no pass
// has run yet.
func (o *Orchestrator) LastResult() *types.PassResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastResult
}

// Store returns the snapshot store owned by this orchestrator.
func (o *Orchestrator) Store() *SnapshotStore {
	return o.store
}
