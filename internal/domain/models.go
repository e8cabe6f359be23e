// Package domain contains the core player bridge models with no external dependencies.
package domain

import (
	"strings"
	"time"
)

// TrackType classifies a media track.
type TrackType int

const (
	TrackTypeUnknown TrackType = iota
	TrackTypeVideo
	TrackTypeAudio
	TrackTypeSubtitle
)

// String returns a human-readable representation of the track type.
func (t TrackType) String() string {
	switch t {
	case TrackTypeVideo:
		return "video"
	case TrackTypeAudio:
		return "audio"
	case TrackTypeSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// ParseTrackType maps the engine's track type string to a TrackType.
func ParseTrackType(s string) TrackType {
	switch strings.ToLower(s) {
	case "sub", "subtitle":
		return TrackTypeSubtitle
	case "audio":
		return TrackTypeAudio
	case "video":
		return TrackTypeVideo
	default:
		return TrackTypeUnknown
	}
}

// MediaTrack is one entry of the engine's track list. Tracks are never mutated;
// the whole list is replaced when the engine reports a change.
type MediaTrack struct {
	// ID is the engine track id used for aid/sid/vid selection
	ID int64

	// Type is the track type
	Type TrackType

	// External is true for tracks loaded from a separate file
	External bool

	// ExternalFilename is the file the track was loaded from (empty if embedded)
	ExternalFilename string

	// Selected is true if the engine is currently using the track
	Selected bool

	// Descriptive metadata
	SrcID     int64
	Title     string
	Language  string
	Codec     string
	Decoder   string
	Default   bool
	Forced    bool
	Width     int64
	Height    int64
	FPS       float64
	Channels  int64
	SampleHz  int64
	BitrateHz int64
}

// PlaybackPhase is the player-facing playback state.
type PlaybackPhase int

const (
	PhaseIdle PlaybackPhase = iota
	PhaseBuffering
	PhaseReady
	PhaseEnded
)

// String returns a human-readable representation of the phase.
func (p PlaybackPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBuffering:
		return "buffering"
	case PhaseReady:
		return "ready"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Command identifies a player command advertised to the UI layer.
type Command int

const (
	CommandPlayPause Command = iota
	CommandStop
	CommandSetSpeed
	CommandGetCurrentMediaItem
	CommandGetTimeline
	CommandGetMetadata
	CommandSetMediaItem
	CommandGetTracks
	CommandGetVolume
	CommandSetVolume
	CommandSetVideoSurface
	CommandGetText
	CommandSeekInCurrentMediaItem
	CommandSetTrackSelection
	CommandRelease
)

// CommandSet is an immutable set of commands.
type CommandSet struct {
	bits uint64
}

// NewCommandSet builds a set from the given commands.
func NewCommandSet(commands ...Command) CommandSet {
	var s CommandSet
	for _, c := range commands {
		s.bits |= 1 << uint(c)
	}
	return s
}

// Contains reports whether c is in the set.
func (s CommandSet) Contains(c Command) bool {
	return s.bits&(1<<uint(c)) != 0
}

// PlayerState is an immutable snapshot of the player. Position and buffered
// position are read lazily from the engine when asked for.
type PlayerState struct {
	Phase                   PlaybackPhase
	PlayWhenReady           bool
	Duration                time.Duration
	Speed                   float64
	NewlyRenderedFirstFrame bool
	AvailableCommands       CommandSet

	position         func() time.Duration
	bufferedPosition func() time.Duration
}

// WithPositionSource returns a copy of s that reads positions from the given suppliers.
func (s PlayerState) WithPositionSource(position, buffered func() time.Duration) PlayerState {
	s.position = position
	s.bufferedPosition = buffered
	return s
}

// Position returns the current content position.
func (s PlayerState) Position() time.Duration {
	if s.position == nil {
		return 0
	}
	return s.position()
}

// BufferedPosition returns the position up to which content is buffered.
func (s PlayerState) BufferedPosition() time.Duration {
	if s.bufferedPosition == nil {
		return 0
	}
	return s.bufferedPosition()
}

// SubtitleDeliveryMethod is how a subtitle track reaches the engine.
type SubtitleDeliveryMethod int

const (
	SubtitleDeliveryNone SubtitleDeliveryMethod = iota
	SubtitleDeliveryEmbed
	SubtitleDeliveryExternal
	SubtitleDeliveryEncode
)

// String returns a human-readable representation of the delivery method.
func (m SubtitleDeliveryMethod) String() string {
	switch m {
	case SubtitleDeliveryEmbed:
		return "embed"
	case SubtitleDeliveryExternal:
		return "external"
	case SubtitleDeliveryEncode:
		return "encode"
	default:
		return "none"
	}
}

// DecoderType selects hardware or software video decoding.
type DecoderType int

const (
	DecoderHardware DecoderType = iota
	DecoderSoftware
)

// String returns a human-readable representation of the decoder type.
func (d DecoderType) String() string {
	if d == DecoderSoftware {
		return "software"
	}
	return "hardware"
}

// ParseDecoderType parses the persisted decoder type name.
func ParseDecoderType(s string) DecoderType {
	if strings.EqualFold(s, "software") {
		return DecoderSoftware
	}
	return DecoderHardware
}

// ResizeMode is how video is fitted into the output surface.
type ResizeMode int

const (
	ResizeModeFit ResizeMode = iota
	ResizeModeZoom
)

// SubtitleConfiguration describes an external subtitle file supplied with a media item.
type SubtitleConfiguration struct {
	URI      string
	Label    string
	MimeType string
	Language string
}

// MediaItem is a playable media source handed to the command translator.
type MediaItem struct {
	// ID identifies the item on the media server or locally
	ID string

	// URI is the playable location; empty means the item has no local configuration
	URI string

	// Title is a display title
	Title string

	// Subtitles are the external subtitle files for the item
	Subtitles []SubtitleConfiguration
}

// HasLocalConfiguration reports whether the item can be loaded.
func (m MediaItem) HasLocalConfiguration() bool {
	return m.URI != ""
}
