package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/notify"
	"github.com/dbsmedya/accmirror/internal/source"
	"github.com/dbsmedya/accmirror/internal/types"
	"github.com/dbsmedya/accmirror/internal/verifier"
)

// Migrator syncs one table per call: fetch, diff against the stored
// snapshot, reconcile schema, apply the delta, record the new snapshot.
type Migrator struct {
	source     source.Source
	reconciler *Reconciler
	applier    *Applier
	verifier   *verifier.Verifier // nil when verification is disabled
	store      *SnapshotStore
	notifier   notify.Notifier
	logger     *logger.Logger
	skipPrefix string
}

// NewMigrator wires a table migrator. verifier may be nil to skip the
// post-apply count check.
func NewMigrator(
	src source.Source,
	reconciler *Reconciler,
	applier *Applier,
	ver *verifier.Verifier,
	store *SnapshotStore,
	notifier Notifier,
	log *logger.Logger,
	skipPrefix string,
) (*Migrator, error) {
	if src == nil {
		return nil, fmt.Errorf("source is nil")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler is nil")
	}
	if applier == nil {
		return nil, fmt.Errorf("applier is nil")
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
	if skipPrefix == "" {
		skipPrefix = "~"
	}

	return &Migrator{
		source:     src,
		reconciler: reconciler,
		applier:    applier,
		verifier:   ver,
		store:      store,
		notifier:   notifier,
		logger:     log,
		skipPrefix: skipPrefix,
	}, nil
}

// Notifier is re-exported here so callers constructing a Migrator do not
// need to import the notify package for the common case.
type Notifier = notify.Notifier

// MigrateTable runs one sync cycle for a single table. Fetch failures are
// treated as an empty snapshot and logged; they are never returned. The new
// snapshot is always stored afterwards, changed or not.
func (m *Migrator) MigrateTable(ctx context.Context, table string) types.ChangeSummary {
	log := m.logger.WithTable(table)

	if strings.HasPrefix(table, m.skipPrefix) {
		log.Debugw("Skipping temporary table")
		return types.ChangeSummary{Table: table, Skipped: true}
	}

	current, err := m.source.FetchRows(ctx, table)
	if err != nil {
		// A missing or unreadable table yields an empty snapshot; the next
		// pass gets another chance.
		log.Warnw("Fetch failed, treating as empty snapshot", "error", err)
		m.notifier.Notify(fmt.Sprintf("fetch of %s failed: %v", table, err))
		current = types.Snapshot{}
	} else {
		m.notifier.Notify(fmt.Sprintf("fetched %d rows from %s", len(current), table))
	}

	previous, hadPrevious := m.store.Get(table)

	if hadPrevious && previous.Equal(current) {
		log.Infow("No changes detected", "rows", len(current))
		m.notifier.Notify(fmt.Sprintf("%s: no changes (%d rows)", table, len(current)))
		m.store.Put(table, current)
		return types.ChangeSummary{Table: table, Skipped: true}
	}

	// The destination schema is derived lazily from the first non-empty
	// snapshot. With an empty current snapshot there is nothing to ensure;
	// any deletes below target a table that must already exist.
	if len(current) > 0 {
		if err := m.reconciler.EnsureTable(ctx, table, current[0]); err != nil {
			// Not fatal: if the table truly does not exist, the apply step
			// will surface the real problem row by row.
			log.Errorw("Schema reconcile failed", "error", err)
			m.notifier.Notify(fmt.Sprintf("ensure table %s failed: %v", table, err))
		}
	}

	delta := ComputeDelta(previous, current)
	summary, err := m.applier.ApplyDelta(ctx, table, delta)
	if err != nil {
		log.Errorw("Apply failed", "error", err)
		m.notifier.Notify(fmt.Sprintf("apply to %s failed: %v", table, err))
	} else {
		log.Infow("Applied delta",
			"inserted", summary.Inserted,
			"updated", summary.Updated,
			"deleted", summary.Deleted,
			"failed", summary.Failed,
		)
		m.notifier.Notify(fmt.Sprintf("%s: %d inserted, %d updated, %d deleted",
			table, summary.Inserted, summary.Updated, summary.Deleted))
	}

	if m.verifier != nil {
		if destTable, nameErr := destinationTableName(table); nameErr == nil {
			if _, verr := m.verifier.VerifyCount(ctx, destTable, int64(len(current))); verr != nil {
				log.Warnw("Verification failed", "error", verr)
			}
		}
	}

	m.store.Put(table, current)
	return summary
}
