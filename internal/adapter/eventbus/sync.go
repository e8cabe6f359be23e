// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// ErrBusClosed is returned by Close when the bus was already closed.
var ErrBusClosed = errors.New("event bus already closed")

// SyncEventBus delivers events on the publishing goroutine, to type subscribers
// first and then to wildcard subscribers, each group in subscription order.
//
// The engine channel publishes only from the dispatcher context, so handlers
// registered for engine notices never run concurrently with each other.
type SyncEventBus struct {
	logger *slog.Logger

	// mu protects subscribers, allSubscribers and closed
	mu             sync.RWMutex
	subscribers    map[domain.EventType][]subscription
	allSubscribers []subscription
	closed         bool

	idCounter atomic.Uint64
	published atomic.Uint64
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		logger:      slog.New(slog.DiscardHandler),
		subscribers: make(map[domain.EventType][]subscription),
	}
}

// SetLogger sets the logger for this event bus.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger.With(slog.String("component", "eventbus"))
}

// Publish delivers event to every matching handler.
// Publishing on a closed bus does nothing. A panicking handler is logged and
// does not stop delivery to the remaining handlers.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := slices.Concat(bus.subscribers[event.Type()], bus.allSubscribers)
	logger := bus.logger
	bus.mu.RUnlock()

	bus.published.Add(1)
	for _, sub := range targets {
		bus.callHandler(logger, sub, event)
	}
}

func (bus *SyncEventBus) callHandler(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Subscribing on a closed bus returns an empty ID and registers nothing.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, "sub", handler)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", "sub-all", handler)
}

func (bus *SyncEventBus) add(eventType domain.EventType, prefix string, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		bus.logger.Warn("subscribe on closed event bus", slog.String("event_type", string(eventType)))
		return ""
	}

	sub := subscription{
		id:      domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.idCounter.Add(1))),
		handler: handler,
	}
	if eventType == "" {
		bus.allSubscribers = append(bus.allSubscribers, sub)
	} else {
		bus.subscribers[eventType] = append(bus.subscribers[eventType], sub)
	}
	return sub.id
}

// Unsubscribe removes a previously registered handler, keeping the order of
// the remaining ones. Unknown IDs are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	match := func(s subscription) bool { return s.id == id }

	for eventType, subs := range bus.subscribers {
		if i := slices.IndexFunc(subs, match); i >= 0 {
			bus.subscribers[eventType] = slices.Delete(slices.Clone(subs), i, i+1)
			return
		}
	}
	if i := slices.IndexFunc(bus.allSubscribers, match); i >= 0 {
		bus.allSubscribers = slices.Delete(slices.Clone(bus.allSubscribers), i, i+1)
	}
}

// HasSubscribers returns true if any handler would receive an event of eventType.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subscribers[eventType]) > 0 || len(bus.allSubscribers) > 0
}

// Close shuts down the event bus and clears all subscriptions.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrBusClosed
	}
	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

// PublishedCount returns how many events were published since creation.
func (bus *SyncEventBus) PublishedCount() uint64 {
	return bus.published.Load()
}

var _ ports.EventBus = (*SyncEventBus)(nil)
