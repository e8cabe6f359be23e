// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"

	"github.com/sukerxi/mpvbridge/internal/domain"
)

// PreferencesRepository handles the persistence of player preferences.
// This abstracts the Fyne preferences storage.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// Gesture preferences

	// LoadSwipeGestures reports whether drag gestures are enabled.
	// If nothing was saved, returns true.
	LoadSwipeGestures() (bool, error)

	// SaveSwipeGestures persists the swipe gesture toggle.
	SaveSwipeGestures(enabled bool) error

	// LoadPressSpeedUp reports whether long press speeds up playback.
	// If nothing was saved, returns true.
	LoadPressSpeedUp() (bool, error)

	// SavePressSpeedUp persists the long press toggle.
	SavePressSpeedUp(enabled bool) error

	// Brightness preferences

	// LoadRememberBrightness reports whether brightness should be restored.
	// If nothing was saved, returns false.
	LoadRememberBrightness() (bool, error)

	// SaveRememberBrightness persists the remember brightness toggle.
	SaveRememberBrightness(enabled bool) error

	// LoadBrightness retrieves the remembered brightness.
	// If nothing was saved, returns -1.
	LoadBrightness() (float64, error)

	// SaveBrightness persists the remembered brightness.
	SaveBrightness(value float64) error

	// Playback preferences

	// LoadEmbeddedFonts reports whether subtitles use fonts embedded in the container.
	// If nothing was saved, returns true.
	LoadEmbeddedFonts() (bool, error)

	// SaveEmbeddedFonts persists the embedded fonts toggle.
	SaveEmbeddedFonts(enabled bool) error

	// LoadDecoderType retrieves the preferred video decoder.
	// If nothing was saved, returns domain.DecoderHardware.
	LoadDecoderType() (domain.DecoderType, error)

	// SaveDecoderType persists the preferred video decoder.
	SaveDecoderType(decoder domain.DecoderType) error

	// Utility methods

	// Clear removes all saved preferences.
	Clear() error
}

// MediaSourceResolver supplies a playable item for a requested media reference.
// The bridge never resolves URIs itself.
type MediaSourceResolver interface {
	// Resolve returns the playable item for ref (a path, URL or server item id).
	Resolve(ctx context.Context, ref string) (domain.MediaItem, error)
}
