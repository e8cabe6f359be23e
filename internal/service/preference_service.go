package service

import (
	"log/slog"
	"sync"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// Preferences is a snapshot of the persisted player preferences.
type Preferences struct {
	SwipeGestures      bool
	PressSpeedUp       bool
	RememberBrightness bool
	Brightness         float64 // -1 when nothing was remembered
	EmbeddedFonts      bool
	Decoder            domain.DecoderType
}

// DefaultPreferences returns the values used when nothing was saved.
func DefaultPreferences() Preferences {
	return Preferences{
		SwipeGestures: true,
		PressSpeedUp:  true,
		Brightness:    -1,
		EmbeddedFonts: true,
		Decoder:       domain.DecoderHardware,
	}
}

// PreferenceService caches player preferences and writes changes through to
// the repository. All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository

	prefs Preferences
	mu    sync.RWMutex
}

// NewPreferenceService creates a preference service and loads the saved values.
// Values that fail to load keep their defaults.
func NewPreferenceService(logger *slog.Logger, repository ports.PreferencesRepository) *PreferenceService {
	s := &PreferenceService{
		logger:     logger.With(slog.String("service", "preferences")),
		repository: repository,
		prefs:      DefaultPreferences(),
	}
	s.Reload()
	s.logger.Debug("preference service initialized")
	return s
}

// Reload refreshes the cache from the repository.
func (s *PreferenceService) Reload() {
	p := DefaultPreferences()
	warn := func(name string, err error) {
		s.logger.Warn("failed to load preference", slog.String("preference", name), slog.Any("error", err))
	}

	if v, err := s.repository.LoadSwipeGestures(); err == nil {
		p.SwipeGestures = v
	} else {
		warn("swipe_gestures", err)
	}
	if v, err := s.repository.LoadPressSpeedUp(); err == nil {
		p.PressSpeedUp = v
	} else {
		warn("press_speed_up", err)
	}
	if v, err := s.repository.LoadRememberBrightness(); err == nil {
		p.RememberBrightness = v
	} else {
		warn("remember_brightness", err)
	}
	if v, err := s.repository.LoadBrightness(); err == nil {
		p.Brightness = v
	} else {
		warn("brightness", err)
	}
	if v, err := s.repository.LoadEmbeddedFonts(); err == nil {
		p.EmbeddedFonts = v
	} else {
		warn("embedded_fonts", err)
	}
	if v, err := s.repository.LoadDecoderType(); err == nil {
		p.Decoder = v
	} else {
		warn("decoder", err)
	}

	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
}

// Get returns the cached preferences.
func (s *PreferenceService) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SwipeGesturesEnabled reports whether drag gestures are enabled.
func (s *PreferenceService) SwipeGesturesEnabled() bool {
	return s.Get().SwipeGestures
}

// SetSwipeGestures saves the swipe gesture toggle.
func (s *PreferenceService) SetSwipeGestures(enabled bool) error {
	s.mu.Lock()
	s.prefs.SwipeGestures = enabled
	s.mu.Unlock()
	return s.repository.SaveSwipeGestures(enabled)
}

// PressSpeedUpEnabled reports whether long press speeds up playback.
func (s *PreferenceService) PressSpeedUpEnabled() bool {
	return s.Get().PressSpeedUp
}

// SetPressSpeedUp saves the long press toggle.
func (s *PreferenceService) SetPressSpeedUp(enabled bool) error {
	s.mu.Lock()
	s.prefs.PressSpeedUp = enabled
	s.mu.Unlock()
	return s.repository.SavePressSpeedUp(enabled)
}

// RememberBrightness reports whether brightness is restored between sessions.
func (s *PreferenceService) RememberBrightness() bool {
	return s.Get().RememberBrightness
}

// SetRememberBrightness saves the remember brightness toggle.
func (s *PreferenceService) SetRememberBrightness(enabled bool) error {
	s.mu.Lock()
	s.prefs.RememberBrightness = enabled
	s.mu.Unlock()
	return s.repository.SaveRememberBrightness(enabled)
}

// Brightness returns the remembered brightness, or -1.
func (s *PreferenceService) Brightness() float64 {
	return s.Get().Brightness
}

// SetBrightness saves the remembered brightness (0.0 to 1.0).
func (s *PreferenceService) SetBrightness(value float64) error {
	if value < 0 || value > 1 {
		return domain.ErrInvalidBrightness
	}
	s.mu.Lock()
	s.prefs.Brightness = value
	s.mu.Unlock()
	return s.repository.SaveBrightness(value)
}

// EmbeddedFonts reports whether subtitles use fonts from the container.
func (s *PreferenceService) EmbeddedFonts() bool {
	return s.Get().EmbeddedFonts
}

// SetEmbeddedFonts saves the embedded fonts toggle.
func (s *PreferenceService) SetEmbeddedFonts(enabled bool) error {
	s.mu.Lock()
	s.prefs.EmbeddedFonts = enabled
	s.mu.Unlock()
	return s.repository.SaveEmbeddedFonts(enabled)
}

// Decoder returns the preferred video decoder.
func (s *PreferenceService) Decoder() domain.DecoderType {
	return s.Get().Decoder
}

// SetDecoder saves the preferred video decoder.
func (s *PreferenceService) SetDecoder(decoder domain.DecoderType) error {
	s.mu.Lock()
	changed := s.prefs.Decoder != decoder
	s.prefs.Decoder = decoder
	s.mu.Unlock()

	if !changed {
		return nil
	}
	s.logger.Info("decoder preference changed", slog.String("decoder", decoder.String()))
	return s.repository.SaveDecoderType(decoder)
}

// ResetToDefaults clears the repository and restores defaults.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	s.prefs = DefaultPreferences()
	s.mu.Unlock()
	return s.repository.Clear()
}
