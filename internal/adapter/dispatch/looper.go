// Package dispatch provides the single execution context that engine callbacks,
// gesture handling and state snapshots share.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// Looper runs posted tasks one at a time on a dedicated goroutine, in posting order.
// Post never blocks the caller.
type Looper struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	timers  map[*time.Timer]struct{}
	closed  bool
	wake    chan struct{}
	stop    chan struct{}
	loopWg  sync.WaitGroup
	timerWg sync.WaitGroup
}

// NewLooper creates and starts a Looper.
func NewLooper(logger *slog.Logger) *Looper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Looper{
		logger: logger.With(slog.String("component", "looper")),
		timers: make(map[*time.Timer]struct{}),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	l.loopWg.Add(1)
	go l.run()
	return l
}

func (l *Looper) run() {
	defer l.loopWg.Done()
	for {
		select {
		case <-l.stop:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if len(l.queue) == 0 || l.closed {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			l.execute(fn)
		}
	}
}

func (l *Looper) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("posted task panicked", slog.Any("panic", r))
		}
	}()
	fn()
}

// Post queues fn. Tasks posted after Close are dropped.
func (l *Looper) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Debug("task dropped", slog.Any("error", domain.ErrDispatcherClosed))
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// PostDelayed queues fn after d. The returned function cancels it, including
// after the timer fired while fn is still waiting in the queue.
func (l *Looper) PostDelayed(d time.Duration, fn func()) ports.CancelFunc {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return func() {}
	}

	var cancelled atomic.Bool
	task := func() {
		if !cancelled.Load() {
			fn()
		}
	}

	var timer *time.Timer
	l.timerWg.Add(1)
	timer = time.AfterFunc(d, func() {
		defer l.timerWg.Done()
		l.mu.Lock()
		_, live := l.timers[timer]
		delete(l.timers, timer)
		l.mu.Unlock()
		if live {
			l.Post(task)
		}
	})
	l.timers[timer] = struct{}{}

	return func() {
		cancelled.Store(true)
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, live := l.timers[timer]; live && timer.Stop() {
			delete(l.timers, timer)
			l.timerWg.Done()
		}
	}
}

// Flush blocks until every task posted before the call has run.
// It must not be called from a posted task.
func (l *Looper) Flush(ctx context.Context) error {
	done := make(chan struct{})
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return domain.ErrDispatcherClosed
	}
	l.mu.Unlock()

	l.Post(func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the looper, cancels pending delayed tasks and waits for the
// loop goroutine to exit. Queued tasks that have not started are dropped.
func (l *Looper) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	dropped := len(l.queue)
	l.queue = nil
	for timer := range l.timers {
		if timer.Stop() {
			l.timerWg.Done()
		}
		delete(l.timers, timer)
	}
	close(l.stop)
	l.mu.Unlock()

	l.loopWg.Wait()
	l.timerWg.Wait()

	if dropped > 0 {
		l.logger.Debug("looper closed with queued tasks", slog.Int("dropped", dropped))
	}
	return nil
}

var _ ports.Dispatcher = (*Looper)(nil)
