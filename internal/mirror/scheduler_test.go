package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/accmirror/internal/types"
)

func newTestScheduler(t *testing.T, interval time.Duration) (*Scheduler, *Orchestrator) {
	t.Helper()
	src := &fakeSource{tables: []string{}}
	orch, _ := newTestOrchestrator(t, src, nil)
	sched, err := NewScheduler(orch, interval, nil)
	require.NoError(t, err)
	t.Cleanup(sched.Stop)
	return sched, orch
}

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler(nil, time.Minute, nil)
	assert.Error(t, err)

	src := &fakeSource{}
	orch, _ := newTestOrchestrator(t, src, nil)
	_, err = NewScheduler(orch, 0, nil)
	assert.Error(t, err)
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	sched, _ := newTestScheduler(t, time.Minute)

	require.NoError(t, sched.Start(context.Background()))
	assert.True(t, sched.Running())

	// A second start must not spin up a second timer.
	require.NoError(t, sched.Start(context.Background()))
	assert.True(t, sched.Running())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	sched, _ := newTestScheduler(t, time.Minute)

	sched.Stop()
	assert.False(t, sched.Running())

	require.NoError(t, sched.Start(context.Background()))
	sched.Stop()
	assert.False(t, sched.Running())
	sched.Stop()
	assert.False(t, sched.Running())
}

func TestScheduler_StopClearsSnapshots(t *testing.T) {
	sched, orch := newTestScheduler(t, time.Minute)

	orch.Store().Put("t", types.Snapshot{rowOf("id", 1)})
	require.NoError(t, sched.Start(context.Background()))
	sched.Stop()

	_, ok := orch.Store().Get("t")
	assert.False(t, ok, "stopping must reset the snapshot baseline")
}

func TestScheduler_TicksRunPasses(t *testing.T) {
	sched, orch := newTestScheduler(t, 50*time.Millisecond)

	require.NoError(t, sched.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return orch.LastResult() != nil
	}, 3*time.Second, 10*time.Millisecond, "scheduler never fired a pass")
}

func TestScheduler_CancelledContextSuppressesTicks(t *testing.T) {
	sched, orch := newTestScheduler(t, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sched.Start(ctx))

	time.Sleep(200 * time.Millisecond)
	assert.Nil(t, orch.LastResult(), "ticks with a dead context must not run passes")
}
