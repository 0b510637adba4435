package imgproc

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(2)
	var ran int64

	for i := 0; i < 10; i++ {
		err := p.Submit(context.Background(), func() {
			atomic.AddInt64(&ran, 1)
		})
		require.NoError(t, err)
	}
	p.Wait()

	assert.Equal(t, int64(10), ran)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers)

	var mu sync.Mutex
	active, peak := 0, 0

	for i := 0; i < 12; i++ {
		err := p.Submit(context.Background(), func() {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		})
		require.NoError(t, err)
	}
	p.Wait()

	assert.LessOrEqual(t, peak, workers)
	assert.Greater(t, peak, 0)
}

func TestPoolSubmitHonorsContext(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})

	require.NoError(t, p.Submit(context.Background(), func() { <-release }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Submit(ctx, func() { t.Error("task must not run") })
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	p.Wait()
}
