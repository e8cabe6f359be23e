package memory

import (
	"sync"

	"fyne.io/fyne/v2"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// Preference keys.
const (
	keySwipeGestures      = "preferences.swipe_gestures"
	keyPressSpeedUp       = "preferences.press_speed_up"
	keyRememberBrightness = "preferences.remember_brightness"
	keyBrightness         = "preferences.brightness"
	keyEmbeddedFonts      = "preferences.embedded_fonts"
	keyDecoderType        = "preferences.decoder_type"
)

var allKeys = []string{
	keySwipeGestures,
	keyPressSpeedUp,
	keyRememberBrightness,
	keyBrightness,
	keyEmbeddedFonts,
	keyDecoderType,
}

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

func (r *PreferencesRepository) loadBool(key string, fallback bool) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.BoolWithFallback(key, fallback), nil
}

func (r *PreferencesRepository) saveBool(key string, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetBool(key, value)
	return nil
}

// LoadSwipeGestures reports whether drag gestures are enabled.
func (r *PreferencesRepository) LoadSwipeGestures() (bool, error) {
	return r.loadBool(keySwipeGestures, true)
}

// SaveSwipeGestures persists the swipe gesture toggle.
func (r *PreferencesRepository) SaveSwipeGestures(enabled bool) error {
	return r.saveBool(keySwipeGestures, enabled)
}

// LoadPressSpeedUp reports whether long press speeds up playback.
func (r *PreferencesRepository) LoadPressSpeedUp() (bool, error) {
	return r.loadBool(keyPressSpeedUp, true)
}

// SavePressSpeedUp persists the long press toggle.
func (r *PreferencesRepository) SavePressSpeedUp(enabled bool) error {
	return r.saveBool(keyPressSpeedUp, enabled)
}

// LoadRememberBrightness reports whether brightness should be restored.
func (r *PreferencesRepository) LoadRememberBrightness() (bool, error) {
	return r.loadBool(keyRememberBrightness, false)
}

// SaveRememberBrightness persists the remember brightness toggle.
func (r *PreferencesRepository) SaveRememberBrightness(enabled bool) error {
	return r.saveBool(keyRememberBrightness, enabled)
}

// LoadBrightness retrieves the remembered brightness, or -1.
func (r *PreferencesRepository) LoadBrightness() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value := r.prefs.FloatWithFallback(keyBrightness, -1)
	if value != -1 && (value < 0 || value > 1) {
		return -1, domain.NewRepositoryError("load", "preferences", "stored brightness out of range", domain.ErrInvalidBrightness)
	}
	return value, nil
}

// SaveBrightness persists the remembered brightness.
func (r *PreferencesRepository) SaveBrightness(value float64) error {
	if value < 0 || value > 1 {
		return domain.NewRepositoryError("save", "preferences", "brightness out of range", domain.ErrInvalidBrightness)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyBrightness, value)
	return nil
}

// LoadEmbeddedFonts reports whether subtitles use embedded fonts.
func (r *PreferencesRepository) LoadEmbeddedFonts() (bool, error) {
	return r.loadBool(keyEmbeddedFonts, true)
}

// SaveEmbeddedFonts persists the embedded fonts toggle.
func (r *PreferencesRepository) SaveEmbeddedFonts(enabled bool) error {
	return r.saveBool(keyEmbeddedFonts, enabled)
}

// LoadDecoderType retrieves the preferred decoder. Stored by name so the
// value survives reordering of the enum.
func (r *PreferencesRepository) LoadDecoderType() (domain.DecoderType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := r.prefs.StringWithFallback(keyDecoderType, domain.DecoderHardware.String())
	return domain.ParseDecoderType(name), nil
}

// SaveDecoderType persists the preferred decoder.
func (r *PreferencesRepository) SaveDecoderType(decoder domain.DecoderType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyDecoderType, decoder.String())
	return nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range allKeys {
		r.prefs.RemoveValue(key)
	}
	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
