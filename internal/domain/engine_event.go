package domain

// EngineEvent is the closed set of discrete notifications the playback engine
// delivers through the engine channel.
type EngineEvent int

const (
	// EngineEventNone is the resting value of the current-event slot.
	EngineEventNone EngineEvent = iota
	EngineEventStartFile
	EngineEventFileLoaded
	EngineEventEndFile
	EngineEventPlaybackRestart
	EngineEventSeek
	EngineEventPausedForCacheStart
	EngineEventPausedForCacheEnd
	EngineEventTrackListChanged
	EngineEventDecoderChanged
)

var engineEventNames = map[EngineEvent]string{
	EngineEventNone:                "none",
	EngineEventStartFile:           "start-file",
	EngineEventFileLoaded:          "file-loaded",
	EngineEventEndFile:             "end-file",
	EngineEventPlaybackRestart:     "playback-restart",
	EngineEventSeek:                "seek",
	EngineEventPausedForCacheStart: "paused-for-cache-start",
	EngineEventPausedForCacheEnd:   "paused-for-cache-end",
	EngineEventTrackListChanged:    "track-list-changed",
	EngineEventDecoderChanged:      "decoder-changed",
}

// String returns the engine-side name of the event.
func (e EngineEvent) String() string {
	if name, ok := engineEventNames[e]; ok {
		return name
	}
	return "unknown"
}

// IsValid reports whether e belongs to the closed set.
func (e EngineEvent) IsValid() bool {
	_, ok := engineEventNames[e]
	return ok
}

// ParseEngineEvent maps an mpv event name to an EngineEvent.
// Names outside the set map to EngineEventNone.
func ParseEngineEvent(name string) EngineEvent {
	switch name {
	case "start-file":
		return EngineEventStartFile
	case "file-loaded":
		return EngineEventFileLoaded
	case "end-file":
		return EngineEventEndFile
	case "playback-restart":
		return EngineEventPlaybackRestart
	case "seek":
		return EngineEventSeek
	default:
		return EngineEventNone
	}
}
