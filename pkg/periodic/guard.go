package periodic

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// guard is a mutual exclusion lock that grants access in request order.
// A weighted semaphore of size one queues waiters FIFO and never lets a new
// acquirer overtake a queued one, so a reader queued between two writers is
// served between them and cannot be starved by a stream of writers.
type guard struct {
	sem *semaphore.Weighted
}

func newGuard() *guard {
	return &guard{sem: semaphore.NewWeighted(1)}
}

// lock blocks until the guard is held or ctx is done.
func (g *guard) lock(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *guard) unlock() {
	g.sem.Release(1)
}
