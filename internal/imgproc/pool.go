package imgproc

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent thumbnail derivation. Decoding and resizing
// are CPU-bound, so they must never run on a goroutine that is also
// serving connections; Submit always hands the task to its own
// goroutine and the semaphore caps how many run at once.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Submit schedules task on the pool. It blocks while all workers are
// busy (backpressure, not queuing) and returns early only when ctx is
// done before a slot frees up.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		task()
	}()
	return nil
}

// Wait blocks until every submitted task has finished. Used on
// shutdown so in-flight derivations are not cut off.
func (p *Pool) Wait() {
	p.wg.Wait()
}
