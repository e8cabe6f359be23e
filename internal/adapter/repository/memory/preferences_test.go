package memory

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukerxi/mpvbridge/internal/domain"
)

// Helper to create a test preferences repository
func newTestPreferencesRepository() *PreferencesRepository {
	app := test.NewApp()
	return NewPreferencesRepository(app.Preferences())
}

func TestPreferencesRepository_Defaults(t *testing.T) {
	repo := newTestPreferencesRepository()

	swipe, err := repo.LoadSwipeGestures()
	require.NoError(t, err)
	assert.True(t, swipe)

	press, err := repo.LoadPressSpeedUp()
	require.NoError(t, err)
	assert.True(t, press)

	remember, err := repo.LoadRememberBrightness()
	require.NoError(t, err)
	assert.False(t, remember)

	brightness, err := repo.LoadBrightness()
	require.NoError(t, err)
	assert.Equal(t, -1.0, brightness)

	fonts, err := repo.LoadEmbeddedFonts()
	require.NoError(t, err)
	assert.True(t, fonts)

	decoder, err := repo.LoadDecoderType()
	require.NoError(t, err)
	assert.Equal(t, domain.DecoderHardware, decoder)
}

func TestPreferencesRepository_SaveAndLoadToggles(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveSwipeGestures(false))
	require.NoError(t, repo.SavePressSpeedUp(false))
	require.NoError(t, repo.SaveRememberBrightness(true))
	require.NoError(t, repo.SaveEmbeddedFonts(false))

	swipe, _ := repo.LoadSwipeGestures()
	press, _ := repo.LoadPressSpeedUp()
	remember, _ := repo.LoadRememberBrightness()
	fonts, _ := repo.LoadEmbeddedFonts()

	assert.False(t, swipe)
	assert.False(t, press)
	assert.True(t, remember)
	assert.False(t, fonts)
}

func TestPreferencesRepository_Brightness(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveBrightness(0.0))
	value, err := repo.LoadBrightness()
	require.NoError(t, err)
	assert.Equal(t, 0.0, value)

	require.NoError(t, repo.SaveBrightness(0.8))
	value, err = repo.LoadBrightness()
	require.NoError(t, err)
	assert.Equal(t, 0.8, value)

	err = repo.SaveBrightness(1.5)
	assert.ErrorIs(t, err, domain.ErrInvalidBrightness)
	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "save", repoErr.Op)

	value, _ = repo.LoadBrightness()
	assert.Equal(t, 0.8, value, "rejected value is not stored")
}

func TestPreferencesRepository_DecoderType(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveDecoderType(domain.DecoderSoftware))
	decoder, err := repo.LoadDecoderType()
	require.NoError(t, err)
	assert.Equal(t, domain.DecoderSoftware, decoder)
}

func TestPreferencesRepository_Clear(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveSwipeGestures(false))
	require.NoError(t, repo.SaveBrightness(0.3))
	require.NoError(t, repo.SaveDecoderType(domain.DecoderSoftware))

	require.NoError(t, repo.Clear())

	swipe, _ := repo.LoadSwipeGestures()
	brightness, _ := repo.LoadBrightness()
	decoder, _ := repo.LoadDecoderType()
	assert.True(t, swipe)
	assert.Equal(t, -1.0, brightness)
	assert.Equal(t, domain.DecoderHardware, decoder)
}
