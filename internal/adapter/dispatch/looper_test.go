package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/logger"
	"github.com/sukerxi/mpvbridge/internal/testutil"
)

func TestLooperRunsInPostingOrder(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(logger.NewTestLogger())
	defer l.Close()

	var mu sync.Mutex
	var order []int
	for i := range 100 {
		l.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	require.NoError(t, l.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestLooperTasksNeverOverlap(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(nil)
	defer l.Close()

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 25 {
				l.Post(func() {
					n := active.Add(1)
					if n > maxActive.Load() {
						maxActive.Store(n)
					}
					time.Sleep(50 * time.Microsecond)
					active.Add(-1)
				})
			}
		})
	}
	wg.Wait()
	require.NoError(t, l.Flush(context.Background()))
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestLooperPostDelayed(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(nil)
	defer l.Close()

	fired := make(chan struct{})
	l.PostDelayed(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task did not run")
	}
}

func TestLooperCancelDelayed(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(nil)
	defer l.Close()

	var ran atomic.Bool
	cancel := l.PostDelayed(20*time.Millisecond, func() { ran.Store(true) })
	cancel()
	cancel()

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, l.Flush(context.Background()))
	assert.False(t, ran.Load())
}

func TestLooperCancelAfterTimerFired(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(nil)
	defer l.Close()

	release := make(chan struct{})
	l.Post(func() { <-release })

	var ran atomic.Bool
	cancel := l.PostDelayed(10*time.Millisecond, func() { ran.Store(true) })

	// the timer fires while the loop is busy, so the task is already queued
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.queue) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	close(release)

	require.NoError(t, l.Flush(context.Background()))
	assert.False(t, ran.Load())
}

func TestLooperRecoversPanics(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(logger.NewTestLogger())
	defer l.Close()

	var after atomic.Bool
	l.Post(func() { panic("boom") })
	l.Post(func() { after.Store(true) })

	require.NoError(t, l.Flush(context.Background()))
	assert.True(t, after.Load())
}

func TestLooperClose(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(nil)
	var ran atomic.Bool
	l.PostDelayed(time.Hour, func() { ran.Store(true) })

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	l.Post(func() { ran.Store(true) })
	l.PostDelayed(0, func() { ran.Store(true) })()
	assert.ErrorIs(t, l.Flush(context.Background()), domain.ErrDispatcherClosed)
	assert.False(t, ran.Load())
}

func TestLooperFlushHonoursContext(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	l := NewLooper(nil)
	defer l.Close()

	release := make(chan struct{})
	l.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Flush(ctx), context.DeadlineExceeded)
	close(release)
}
