package service

import (
	"errors"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukerxi/mpvbridge/internal/adapter/repository/memory"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/logger"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

func newTestPreferenceService(t *testing.T) (*PreferenceService, *memory.PreferencesRepository) {
	t.Helper()
	repo := memory.NewPreferencesRepository(test.NewApp().Preferences())
	return NewPreferenceService(logger.NewTestLogger(), repo), repo
}

// failingRepository fails every load and counts saves.
type failingRepository struct {
	ports.PreferencesRepository
	saves int
}

var errStorage = errors.New("storage offline")

func (r *failingRepository) LoadSwipeGestures() (bool, error) { return false, errStorage }
func (r *failingRepository) LoadPressSpeedUp() (bool, error) { return false, errStorage }
func (r *failingRepository) LoadRememberBrightness() (bool, error) { return true, errStorage }
func (r *failingRepository) LoadBrightness() (float64, error) { return 0.5, errStorage }
func (r *failingRepository) LoadEmbeddedFonts() (bool, error) { return false, errStorage }
func (r *failingRepository) LoadDecoderType() (domain.DecoderType, error) {
	return domain.DecoderSoftware, errStorage
}
func (r *failingRepository) SaveDecoderType(domain.DecoderType) error {
	r.saves++
	return nil
}

func TestPreferenceServiceDefaults(t *testing.T) {
	svc, _ := newTestPreferenceService(t)
	assert.Equal(t, DefaultPreferences(), svc.Get())
	assert.True(t, svc.SwipeGesturesEnabled())
	assert.True(t, svc.PressSpeedUpEnabled())
	assert.False(t, svc.RememberBrightness())
	assert.Equal(t, -1.0, svc.Brightness())
	assert.True(t, svc.EmbeddedFonts())
	assert.Equal(t, domain.DecoderHardware, svc.Decoder())
}

func TestPreferenceServiceLoadFailureKeepsDefaults(t *testing.T) {
	svc := NewPreferenceService(logger.NewTestLogger(), &failingRepository{})
	assert.Equal(t, DefaultPreferences(), svc.Get())
}

func TestPreferenceServicePersists(t *testing.T) {
	svc, repo := newTestPreferenceService(t)

	require.NoError(t, svc.SetSwipeGestures(false))
	require.NoError(t, svc.SetPressSpeedUp(false))
	require.NoError(t, svc.SetRememberBrightness(true))
	require.NoError(t, svc.SetBrightness(0.4))
	require.NoError(t, svc.SetEmbeddedFonts(false))
	require.NoError(t, svc.SetDecoder(domain.DecoderSoftware))

	reloaded := NewPreferenceService(logger.NewTestLogger(), repo)
	assert.Equal(t, Preferences{
		SwipeGestures:      false,
		PressSpeedUp:       false,
		RememberBrightness: true,
		Brightness:         0.4,
		EmbeddedFonts:      false,
		Decoder:            domain.DecoderSoftware,
	}, reloaded.Get())
}

func TestPreferenceServiceRejectsBrightness(t *testing.T) {
	svc, _ := newTestPreferenceService(t)

	assert.ErrorIs(t, svc.SetBrightness(-0.1), domain.ErrInvalidBrightness)
	assert.ErrorIs(t, svc.SetBrightness(1.01), domain.ErrInvalidBrightness)
	assert.Equal(t, -1.0, svc.Brightness())
}

func TestPreferenceServiceSetDecoderSavesOnChange(t *testing.T) {
	repo := &failingRepository{}
	svc := NewPreferenceService(logger.NewTestLogger(), repo)

	require.NoError(t, svc.SetDecoder(domain.DecoderHardware))
	require.NoError(t, svc.SetDecoder(domain.DecoderSoftware))
	require.NoError(t, svc.SetDecoder(domain.DecoderSoftware))
	assert.Equal(t, 1, repo.saves)
}

func TestPreferenceServiceReset(t *testing.T) {
	svc, repo := newTestPreferenceService(t)
	require.NoError(t, svc.SetSwipeGestures(false))
	require.NoError(t, svc.SetBrightness(0.9))

	require.NoError(t, svc.ResetToDefaults())
	assert.Equal(t, DefaultPreferences(), svc.Get())

	swipe, _ := repo.LoadSwipeGestures()
	assert.True(t, swipe)
}
