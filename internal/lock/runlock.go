// Package lock provides pass-level locking to keep sync passes from
// interleaving their snapshot read-modify-write.
package lock

import (
	"errors"
	"sync"
)

// ErrPassInFlight is returned when a pass cannot start because another pass
// is already running.
var ErrPassInFlight = errors.New("a sync pass is already in flight")

// RunLock serializes sync passes for one source/destination pair. The
// scheduler and the on-demand trigger both route through the same lock, so
// two passes can never interleave. This is a single-process design; multiple
// processes targeting the same destination are out of scope.
type RunLock struct {
	mu sync.Mutex
}

// NewRunLock creates an unheld run lock.
func NewRunLock() *RunLock {
	return &RunLock{}
}

// TryAcquire attempts to take the lock without waiting.
// Returns false if a pass is already in flight. Use this from the recurring
// timer: a tick that loses the race is skipped, not queued.
func (l *RunLock) TryAcquire() bool {
	return l.mu.TryLock()
}

// Release releases the lock. Calling Release without holding the lock is a
// programming error and panics, same as sync.Mutex.
func (l *RunLock) Release() {
	l.mu.Unlock()
}

// WithLock runs fn while holding the lock, waiting for any in-flight pass to
// finish first. Use this from the on-demand trigger, which should queue
// behind a running pass rather than fail.
func (l *RunLock) WithLock(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// TryWithLock runs fn while holding the lock, or returns ErrPassInFlight
// immediately if the lock is held.
func (l *RunLock) TryWithLock(fn func() error) error {
	if !l.mu.TryLock() {
		return ErrPassInFlight
	}
	defer l.mu.Unlock()
	return fn()
}
