package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopDrainsBufferedJobs(t *testing.T) {
	var mu sync.Mutex
	var handled []string
	q := NewQueue("test", func(ctx context.Context, j Job) error {
		mu.Lock()
		handled = append(handled, j.ID)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 16})

	q.Start(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: fmt.Sprintf("j%d", i), Type: "audit"}))
	}
	q.Stop()

	assert.Len(t, handled, 5)
}

func TestEnqueueAfterStopFails(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, j Job) error { return nil }, QueueConfig{Workers: 1})
	q.Start(context.Background())
	q.Stop()

	err := q.Enqueue(Job{ID: "late"})
	assert.Error(t, err)
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, j Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "early"})
	assert.Error(t, err)
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, j Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 2})

	q.Start(context.Background())

	// Capacity is the buffer plus one in-flight job per worker, so one of
	// these enqueues must be refused.
	var failed int
	for i := 0; i < 4; i++ {
		if err := q.Enqueue(Job{ID: fmt.Sprintf("j%d", i)}); err != nil {
			failed++
		}
	}
	assert.GreaterOrEqual(t, failed, 1)

	close(release)
	q.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, j Job) error { return nil }, QueueConfig{Workers: 1})
	q.Start(context.Background())
	q.Stop()
	q.Stop()
}
