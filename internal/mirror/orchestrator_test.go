package mirror

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/accmirror/internal/notify"
	"github.com/dbsmedya/accmirror/internal/types"
)

// recordingNotifier collects every message for assertion.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNotifier) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func newTestOrchestrator(t *testing.T, src *fakeSource, notifier notify.Notifier) (*Orchestrator, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reconciler, err := NewReconciler(db, nil)
	require.NoError(t, err)
	applier, err := NewApplier(db, nil)
	require.NoError(t, err)

	store := NewSnapshotStore()
	migrator, err := NewMigrator(src, reconciler, applier, nil, store, notifier, nil, "~")
	require.NoError(t, err)

	orch, err := NewOrchestrator(src, migrator, store, notifier, nil)
	require.NoError(t, err)
	return orch, mock
}

func TestRunPass_ProcessesTablesInOrder(t *testing.T) {
	src := &fakeSource{
		tables: []string{"Orders", "Customers"},
		snapshots: map[string]types.Snapshot{
			"Orders":    {rowOf("id", 1, "total", "10")},
			"Customers": {rowOf("id", 1, "name", "A")},
		},
	}
	orch, mock := newTestOrchestrator(t, src, nil)

	for _, table := range []string{"Orders", "Customers"} {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "` + table + `"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO "` + table + `"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	result, err := orch.RunPass(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.PassID)
	require.Len(t, result.Tables, 2)
	assert.Equal(t, "Orders", result.Tables[0].Table)
	assert.Equal(t, "Customers", result.Tables[1].Table)
	assert.Equal(t, 2, result.TotalChanges())
	assert.Empty(t, result.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunPass_TableFailureDoesNotHaltPass(t *testing.T) {
	src := &fakeSource{
		tables: []string{"Broken", "Healthy"},
		snapshots: map[string]types.Snapshot{
			"Healthy": {rowOf("id", 1, "name", "A")},
		},
		errs: map[string]error{"Broken": assert.AnError},
	}
	orch, mock := newTestOrchestrator(t, src, nil)

	// Broken fetch degrades to an empty snapshot with nothing to apply, so
	// only Healthy touches the destination.
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "Healthy"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "Healthy"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := orch.RunPass(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Tables, 2)
	assert.Equal(t, 1, result.Tables[1].Inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunPass_ListTablesFailureAbortsPass(t *testing.T) {
	src := &fakeSource{}
	orch, mock := newTestOrchestrator(t, src, nil)

	// fakeSource with no tables returns an empty list without error, so
	// wrap it to fail.
	failing := &listFailSource{inner: src}
	orch.source = failing

	result, err := orch.RunPass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "list tables")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type listFailSource struct {
	inner *fakeSource
}

func (l *listFailSource) Tables(_ context.Context) ([]string, error) {
	return nil, assert.AnError
}

func (l *listFailSource) FetchRows(ctx context.Context, table string) (types.Snapshot, error) {
	return l.inner.FetchRows(ctx, table)
}

func TestRunPass_EmitsPassCompleteNotification(t *testing.T) {
	src := &fakeSource{tables: []string{}}
	notifier := &recordingNotifier{}
	orch, _ := newTestOrchestrator(t, src, notifier)

	_, err := orch.RunPass(context.Background())
	require.NoError(t, err)

	msgs := notifier.messages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1], "sync pass complete")
}

func TestRunPass_CancelledContextStopsLoop(t *testing.T) {
	src := &fakeSource{
		tables: []string{"a", "b", "c"},
		snapshots: map[string]types.Snapshot{
			"a": {}, "b": {}, "c": {},
		},
	}
	orch, _ := newTestOrchestrator(t, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := orch.RunPass(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "pass interrupted")
}

func TestLastResult(t *testing.T) {
	src := &fakeSource{tables: []string{}}
	orch, _ := newTestOrchestrator(t, src, nil)

	assert.Nil(t, orch.LastResult())

	result, err := orch.RunPass(context.Background())
	require.NoError(t, err)
	assert.Same(t, result, orch.LastResult())
}

func TestTryRunPass_SkipsWhileInFlight(t *testing.T) {
	blockFetch := make(chan struct{})
	started := make(chan struct{})
	src := &blockingSource{block: blockFetch, started: started}
	orch, mock := newTestOrchestrator(t, src, nil)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "t"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "t"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = orch.RunPass(context.Background())
	}()

	<-started
	_, err := orch.TryRunPass(context.Background())
	assert.Error(t, err, "overlapping pass must be refused, not queued")

	close(blockFetch)
	<-done
	assert.NoError(t, mock.ExpectationsWereMet())
}

// blockingSource parks FetchRows until released, to hold a pass in flight.
type blockingSource struct {
	block   chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingSource) Tables(_ context.Context) ([]string, error) {
	return []string{"t"}, nil
}

func (b *blockingSource) FetchRows(_ context.Context, _ string) (types.Snapshot, error) {
	b.once.Do(func() { close(b.started) })
	<-b.block
	return types.Snapshot{rowOf("id", 1, "name", "A")}, nil
}
