// Package ports define the UI interface for view abstraction.
// This interface allows the gesture interpreter to drive the player view without depending on Fyne directly.
package ports

import (
	"github.com/sukerxi/mpvbridge/internal/domain"
)

// OverlayIcon selects the icon shown next to the gesture overlay.
type OverlayIcon int

const (
	OverlayIconNone OverlayIcon = iota
	OverlayIconVolume
	OverlayIconBrightness
	OverlayIconSeek
)

// PlayerView is the player screen as seen by the gesture interpreter.
//
// Thread-safety: All methods are called from the dispatcher context. Implementations
// marshal onto the toolkit's UI thread themselves.
type PlayerView interface {
	// Size returns the view extent in pixels.
	Size() (width, height float64)

	// IsLandscape reports the current screen orientation.
	IsLandscape() bool

	// Gesture overlay

	// ShowOverlay makes the gesture overlay visible with the given icon.
	ShowOverlay(icon OverlayIcon)

	// HideOverlay hides the gesture overlay.
	HideOverlay()

	// SetOverlayText sets the overlay label (seek position text).
	SetOverlayText(text string)

	// SetOverlayProgress sets the overlay level bar.
	SetOverlayProgress(value, maxValue int)

	// Playback controller

	// ControllerVisible reports whether the playback controls are shown.
	ControllerVisible() bool

	// ShowController shows the playback controls.
	ShowController()

	// HideController hides the playback controls.
	HideController()

	// ControlsLocked reports whether the user locked the controls.
	ControlsLocked() bool

	// PeekUnlockButton briefly shows the unlock button while locked.
	PeekUnlockButton()

	// SetResizeMode switches between fitted and zoomed video.
	SetResizeMode(mode domain.ResizeMode)
}

// PlaybackActions are the playback intents the gesture interpreter issues.
type PlaybackActions interface {
	// FastForward skips ahead by the configured step.
	FastForward()

	// Rewind skips back by the configured step.
	Rewind()

	// PressSpeedUp enters or leaves the long press fast playback mode.
	PressSpeedUp(active bool)

	// Duration returns the media duration in milliseconds, zero when unknown.
	Duration() int64

	// Position returns the current playback position in milliseconds.
	Position() int64

	// SeekTo seeks to an absolute position in milliseconds.
	SeekTo(positionMs int64)
}
