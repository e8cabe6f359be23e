// Package service provides the player bridge logic: the engine channel, track
// catalog, playback state bridge, command translator and gesture interpreter.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/mo"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/metrics"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// Engine property names used by the bridge.
const (
	PropPause          = "pause"
	PropSpeed          = "speed"
	PropDuration       = "duration/full"
	PropTimePos        = "time-pos/full"
	PropCacheTime      = "demuxer-cache-time"
	PropTrackList      = "track-list"
	PropPausedForCache = "paused-for-cache"
	PropHwdecCurrent   = "hwdec-current"
	PropAudioID        = "aid"
	PropSubtitleID     = "sid"
	PropVideoID        = "vid"
	PropVolume         = "volume"
	PropSurfaceSize    = "android-surface-size"
)

// EngineListener receives every dispatched engine event with its auxiliary value.
type EngineListener func(event domain.EngineEvent, value any)

// EngineChannel wraps the engine's property store and event source.
//
// Engine callbacks are re-posted onto the dispatcher before anything else
// happens, so setting the current event, notifying listeners and resetting it
// all run on one context. Property reads made from a listener may still see
// values the engine wrote after the event was raised.
type EngineChannel struct {
	// Dependencies (injected)
	logger     *slog.Logger
	engine     ports.Engine
	dispatcher ports.Dispatcher
	bus        ports.EventBus

	// current is the single-slot mailbox; None between dispatches
	current atomic.Int32

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewEngineChannel creates a channel over engine. Call Start to begin receiving events.
func NewEngineChannel(
	logger *slog.Logger,
	engine ports.Engine,
	dispatcher ports.Dispatcher,
	bus ports.EventBus,
) *EngineChannel {
	return &EngineChannel{
		logger:     logger.With(slog.String("service", "engine_channel")),
		engine:     engine,
		dispatcher: dispatcher,
		bus:        bus,
	}
}

// Start installs the channel as the engine observer and observes the
// properties event synthesis relies on.
func (c *EngineChannel) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrEngineClosed
	}
	if c.started {
		return domain.ErrAlreadyInitialized
	}

	c.engine.SetObserver(c)

	observed := []struct {
		name string
		kind domain.PropertyKind
	}{
		{PropPausedForCache, domain.PropertyKindFlag},
		{PropHwdecCurrent, domain.PropertyKindNone},
		{PropTrackList, domain.PropertyKindNone},
	}
	for _, o := range observed {
		if err := c.engine.ObserveProperty(o.name, o.kind); err != nil {
			c.engine.SetObserver(nil)
			return fmt.Errorf("observe %s: %w", o.name, err)
		}
	}

	c.started = true
	c.logger.Debug("engine channel started")
	return nil
}

// Close detaches from the engine. Events already posted are dropped.
func (c *EngineChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.started {
		c.engine.SetObserver(nil)
	}
	return nil
}

func (c *EngineChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// OnEvent implements ports.EngineObserver.
func (c *EngineChannel) OnEvent(event domain.EngineEvent) {
	if event == domain.EngineEventNone || !event.IsValid() {
		return
	}
	c.post(event, nil)
}

// OnPropertyChange implements ports.EngineObserver.
func (c *EngineChannel) OnPropertyChange(name string) {
	switch name {
	case PropTrackList:
		c.post(domain.EngineEventTrackListChanged, nil)
	case PropHwdecCurrent:
		c.post(domain.EngineEventDecoderChanged, nil)
	}
}

// OnFlagChange implements ports.EngineObserver.
func (c *EngineChannel) OnFlagChange(name string, value bool) {
	if name != PropPausedForCache {
		return
	}
	if value {
		c.post(domain.EngineEventPausedForCacheStart, value)
	} else {
		c.post(domain.EngineEventPausedForCacheEnd, value)
	}
}

func (c *EngineChannel) post(event domain.EngineEvent, value any) {
	c.dispatcher.Post(func() { c.dispatch(event, value) })
}

// dispatch runs on the dispatcher context only.
func (c *EngineChannel) dispatch(event domain.EngineEvent, value any) {
	if c.isClosed() {
		return
	}

	metrics.EngineEventsTotal.WithLabelValues(event.String()).Inc()
	c.logger.Debug("engine event", slog.String("event", event.String()))

	c.current.Store(int32(event))
	c.bus.Publish(domain.NewEngineEventNotice(event, value))
	c.current.Store(int32(domain.EngineEventNone))
}

// CurrentEvent returns the event being dispatched, or None between dispatches.
// Capture it once per decision; it changes as soon as the dispatch ends.
func (c *EngineChannel) CurrentEvent() domain.EngineEvent {
	return domain.EngineEvent(c.current.Load())
}

// Subscribe registers listener for every dispatched event.
func (c *EngineChannel) Subscribe(listener EngineListener) domain.SubscriptionID {
	return c.bus.Subscribe(domain.EventEngineNotice, func(event domain.Event) {
		if notice, ok := event.(domain.EngineEventNotice); ok {
			listener(notice.Kind, notice.Value)
		}
	})
}

// Unsubscribe removes a listener registered with Subscribe.
func (c *EngineChannel) Unsubscribe(id domain.SubscriptionID) {
	c.bus.Unsubscribe(id)
}

// Get reads a property in the requested kind. Absent or unconvertible values
// yield None. Requesting a kind that carries no value is a caller error.
func (c *EngineChannel) Get(name string, kind domain.PropertyKind) (mo.Option[domain.PropertyValue], error) {
	if !kind.IsReadable() {
		return mo.None[domain.PropertyValue](), fmt.Errorf("get %s as %s: %w", name, kind, domain.ErrUnsupportedPropertyType)
	}

	v, err := c.engine.GetProperty(name, kind)
	if err != nil {
		if !errors.Is(err, domain.ErrPropertyUnavailable) {
			c.logger.Debug("property read failed", slog.String("property", name), slog.Any("error", err))
		}
		return mo.None[domain.PropertyValue](), nil
	}
	if v.Kind() != kind {
		return mo.None[domain.PropertyValue](), nil
	}
	return mo.Some(v), nil
}

func getAs[T any](c *EngineChannel, name string, kind domain.PropertyKind, as func(domain.PropertyValue) (T, error)) mo.Option[T] {
	opt, _ := c.Get(name, kind)
	v, ok := opt.Get()
	if !ok {
		return mo.None[T]()
	}
	out, err := as(v)
	if err != nil {
		return mo.None[T]()
	}
	return mo.Some(out)
}

// String reads a string property.
func (c *EngineChannel) String(name string) mo.Option[string] {
	return getAs(c, name, domain.PropertyKindString, domain.PropertyValue.AsString)
}

// Int reads an integer property.
func (c *EngineChannel) Int(name string) mo.Option[int64] {
	return getAs(c, name, domain.PropertyKindInt, domain.PropertyValue.AsInt)
}

// Double reads a floating point property.
func (c *EngineChannel) Double(name string) mo.Option[float64] {
	return getAs(c, name, domain.PropertyKindDouble, domain.PropertyValue.AsDouble)
}

// Bool reads a flag property.
func (c *EngineChannel) Bool(name string) mo.Option[bool] {
	return getAs(c, name, domain.PropertyKindFlag, domain.PropertyValue.AsFlag)
}

// Set writes a property. Only an unsupported runtime type is reported; engine
// failures are logged and counted, since writes are fire-and-forget.
func (c *EngineChannel) Set(name string, value any) error {
	v, err := domain.ValueOf(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	if err := c.engine.SetProperty(name, v); err != nil {
		metrics.PropertyWriteErrorsTotal.Inc()
		c.logger.Warn("property write failed",
			slog.String("property", name),
			slog.String("value", v.String()),
			slog.Any("error", err))
	}
	return nil
}

// Command sends a command. Only an empty command is reported; engine failures
// are logged.
func (c *EngineChannel) Command(args ...string) error {
	if len(args) == 0 {
		return domain.ErrEmptyCommand
	}
	metrics.EngineCommandsTotal.WithLabelValues(args[0]).Inc()
	if err := c.engine.Command(args...); err != nil {
		c.logger.Warn("engine command failed",
			slog.String("command", args[0]),
			slog.Any("error", err))
	}
	return nil
}

// Engine returns the underlying engine for surface management.
func (c *EngineChannel) Engine() ports.Engine {
	return c.engine
}

var _ ports.EngineObserver = (*EngineChannel)(nil)
