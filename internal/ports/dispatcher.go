package ports

import "time"

// CancelFunc cancels a delayed task. Calling it after the task ran is a no-op.
type CancelFunc func()

// Dispatcher is the single UI-bound execution context. Every task posted to it
// runs on the same goroutine, one at a time, in posting order.
type Dispatcher interface {
	// Post schedules fn to run as soon as possible.
	Post(fn func())

	// PostDelayed schedules fn to run after d.
	PostDelayed(d time.Duration, fn func()) CancelFunc
}
