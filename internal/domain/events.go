// Package domain defines events for the event-driven architecture.
// Engine notifications and gesture outcomes are published as bus events so the
// UI layer can observe the bridge without holding references to it.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Engine channel events
	EventEngineNotice EventType = "engine.notice"

	// Bridge events
	EventPlayerStateChanged EventType = "player.state_changed"
	EventTracksChanged      EventType = "player.tracks_changed"
	EventDecoderChanged     EventType = "player.decoder_changed"
	EventMediaLoadRequested EventType = "player.load_requested"

	// Gesture events
	EventSeekCommitted     EventType = "gesture.seek_committed"
	EventVolumeGesture     EventType = "gesture.volume"
	EventBrightnessGesture EventType = "gesture.brightness"
	EventZoomModeChanged   EventType = "gesture.zoom_mode"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// EngineEventNotice carries one dispatched engine event and its auxiliary value.
// Value is nil for events without one; PausedForCache events carry the flag.
type EngineEventNotice struct {
	baseEvent
	Kind  EngineEvent
	Value any
}

// Type returns the event type.
func (e EngineEventNotice) Type() EventType {
	return EventEngineNotice
}

// NewEngineEventNotice creates a new EngineEventNotice.
func NewEngineEventNotice(kind EngineEvent, value any) EngineEventNotice {
	return EngineEventNotice{
		baseEvent: newBaseEvent(),
		Kind:      kind,
		Value:     value,
	}
}

// PlayerStateChangedEvent is published after the bridge handled an engine event.
// State is the snapshot taken while Cause was the current event.
type PlayerStateChangedEvent struct {
	baseEvent
	Cause EngineEvent
	State PlayerState
}

// Type returns the event type.
func (e PlayerStateChangedEvent) Type() EventType {
	return EventPlayerStateChanged
}

// NewPlayerStateChangedEvent creates a new PlayerStateChangedEvent.
func NewPlayerStateChangedEvent(cause EngineEvent, state PlayerState) PlayerStateChangedEvent {
	return PlayerStateChangedEvent{
		baseEvent: newBaseEvent(),
		Cause:     cause,
		State:     state,
	}
}

// TracksChangedEvent is published when the track catalog was replaced.
type TracksChangedEvent struct {
	baseEvent
	Tracks []MediaTrack
}

// Type returns the event type.
func (e TracksChangedEvent) Type() EventType {
	return EventTracksChanged
}

// NewTracksChangedEvent creates a new TracksChangedEvent.
func NewTracksChangedEvent(tracks []MediaTrack) TracksChangedEvent {
	return TracksChangedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
	}
}

// DecoderChangedEvent is published when the engine switched video decoders.
type DecoderChangedEvent struct {
	baseEvent
	Decoder DecoderType
}

// Type returns the event type.
func (e DecoderChangedEvent) Type() EventType {
	return EventDecoderChanged
}

// NewDecoderChangedEvent creates a new DecoderChangedEvent.
func NewDecoderChangedEvent(decoder DecoderType) DecoderChangedEvent {
	return DecoderChangedEvent{
		baseEvent: newBaseEvent(),
		Decoder:   decoder,
	}
}

// MediaLoadRequestedEvent is published when a load command was issued.
type MediaLoadRequestedEvent struct {
	baseEvent
	Item  MediaItem
	Start time.Duration
}

// Type returns the event type.
func (e MediaLoadRequestedEvent) Type() EventType {
	return EventMediaLoadRequested
}

// NewMediaLoadRequestedEvent creates a new MediaLoadRequestedEvent.
func NewMediaLoadRequestedEvent(item MediaItem, start time.Duration) MediaLoadRequestedEvent {
	return MediaLoadRequestedEvent{
		baseEvent: newBaseEvent(),
		Item:      item,
		Start:     start,
	}
}

// SeekCommittedEvent is published when a horizontal drag committed its seek.
type SeekCommittedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e SeekCommittedEvent) Type() EventType {
	return EventSeekCommitted
}

// NewSeekCommittedEvent creates a new SeekCommittedEvent.
func NewSeekCommittedEvent(position time.Duration) SeekCommittedEvent {
	return SeekCommittedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// VolumeGestureEvent is published for every volume change applied by a drag.
type VolumeGestureEvent struct {
	baseEvent
	Volume    int
	MaxVolume int
}

// Type returns the event type.
func (e VolumeGestureEvent) Type() EventType {
	return EventVolumeGesture
}

// NewVolumeGestureEvent creates a new VolumeGestureEvent.
func NewVolumeGestureEvent(volume, maxVolume int) VolumeGestureEvent {
	return VolumeGestureEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
		MaxVolume: maxVolume,
	}
}

// BrightnessGestureEvent is published for every brightness change applied by a drag.
type BrightnessGestureEvent struct {
	baseEvent
	Brightness float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e BrightnessGestureEvent) Type() EventType {
	return EventBrightnessGesture
}

// NewBrightnessGestureEvent creates a new BrightnessGestureEvent.
func NewBrightnessGestureEvent(brightness float64) BrightnessGestureEvent {
	return BrightnessGestureEvent{
		baseEvent:  newBaseEvent(),
		Brightness: brightness,
	}
}

// ZoomModeChangedEvent is published when a pinch toggled the resize mode.
type ZoomModeChangedEvent struct {
	baseEvent
	Mode ResizeMode
}

// Type returns the event type.
func (e ZoomModeChangedEvent) Type() EventType {
	return EventZoomModeChanged
}

// NewZoomModeChangedEvent creates a new ZoomModeChangedEvent.
func NewZoomModeChangedEvent(mode ResizeMode) ZoomModeChangedEvent {
	return ZoomModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}
