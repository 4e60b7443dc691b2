package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchRunsTasks(t *testing.T) {
	d := NewDispatcher(4)

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		d.Dispatch("prueba", func(ctx context.Context) {
			count.Add(1)
		})
	}
	d.Wait()

	assert.EqualValues(t, 10, count.Load())
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := NewDispatcher(2)

	var after atomic.Bool
	d.Dispatch("explota", func(ctx context.Context) {
		panic("boom")
	})
	d.Dispatch("sobrevive", func(ctx context.Context) {
		after.Store(true)
	})
	d.Wait()

	// Un panic en una tarea no tumba el proceso ni bloquea las demás.
	assert.True(t, after.Load())
}

func TestDispatchBoundsConcurrency(t *testing.T) {
	d := NewDispatcher(2)

	var mu sync.Mutex
	running, maxRunning := 0, 0
	barrier := make(chan struct{})

	for i := 0; i < 6; i++ {
		d.Dispatch("limitada", func(ctx context.Context) {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()

			<-barrier

			mu.Lock()
			running--
			mu.Unlock()
		})
	}

	close(barrier)
	d.Wait()

	assert.LessOrEqual(t, maxRunning, 2)
}

func TestDispatchGivesTasksAContextWithDeadline(t *testing.T) {
	d := NewDispatcher(1)

	var hasDeadline atomic.Bool
	d.Dispatch("deadline", func(ctx context.Context) {
		_, ok := ctx.Deadline()
		hasDeadline.Store(ok)
	})
	d.Wait()

	assert.True(t, hasDeadline.Load())
}
