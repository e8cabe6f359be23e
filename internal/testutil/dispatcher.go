package testutil

import (
	"slices"
	"sync"
	"time"

	"github.com/sukerxi/mpvbridge/internal/ports"
)

// ManualDispatcher is a deterministic ports.Dispatcher for tests.
// Post runs the task on the caller's goroutine before returning; tasks posted
// from inside a running task are queued and run after it, keeping posting order.
// Delayed tasks run only when virtual time is moved forward with Advance.
type ManualDispatcher struct {
	mu      sync.Mutex
	queue   []func()
	running bool

	now     time.Duration
	seq     int
	delayed []*delayedTask
}

type delayedTask struct {
	due       time.Duration
	seq       int
	fn        func()
	cancelled bool
}

// NewManualDispatcher creates a dispatcher at virtual time zero.
func NewManualDispatcher() *ManualDispatcher {
	return &ManualDispatcher{}
}

// Post runs fn, or queues it when called from inside a running task.
func (d *ManualDispatcher) Post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()
	d.drain()
}

func (d *ManualDispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.running = false
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		fn()
	}
}

// PostDelayed schedules fn at now+delay in virtual time.
func (d *ManualDispatcher) PostDelayed(delay time.Duration, fn func()) ports.CancelFunc {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	task := &delayedTask{due: d.now + delay, seq: d.seq, fn: fn}
	d.delayed = append(d.delayed, task)
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		task.cancelled = true
	}
}

// Advance moves virtual time forward by delta and runs every task that became due,
// in due-time order.
func (d *ManualDispatcher) Advance(delta time.Duration) {
	d.mu.Lock()
	target := d.now + delta
	d.mu.Unlock()

	for {
		d.mu.Lock()
		d.delayed = slices.DeleteFunc(d.delayed, func(t *delayedTask) bool { return t.cancelled })
		slices.SortFunc(d.delayed, func(a, b *delayedTask) int {
			if a.due != b.due {
				return int(a.due - b.due)
			}
			return a.seq - b.seq
		})
		if len(d.delayed) == 0 || d.delayed[0].due > target {
			d.now = target
			d.mu.Unlock()
			return
		}
		task := d.delayed[0]
		d.delayed = d.delayed[1:]
		d.now = task.due
		d.mu.Unlock()
		d.Post(task.fn)
	}
}

// Pending returns the number of delayed tasks that have not run or been cancelled.
func (d *ManualDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, t := range d.delayed {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Now returns the current virtual time.
func (d *ManualDispatcher) Now() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now
}

var _ ports.Dispatcher = (*ManualDispatcher)(nil)
