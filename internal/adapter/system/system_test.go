package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukerxi/mpvbridge/internal/adapter/engine/mock"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/logger"
)

func TestEngineVolume(t *testing.T) {
	engine := mock.NewEngine()
	volume := NewEngineVolume(engine, 0, logger.NewTestLogger())

	assert.Equal(t, DefaultVolumeSteps, volume.MaxVolume())
	// nothing reported yet
	assert.Equal(t, 15, volume.Volume())

	engine.Put("volume", domain.DoubleValue(40))
	assert.Equal(t, 6, volume.Volume())

	volume.SetVolume(9)
	writes := engine.WritesTo("volume")
	require.Len(t, writes, 1)
	level, err := writes[0].AsDouble()
	require.NoError(t, err)
	assert.InDelta(t, 60.0, level, 1e-9)
	assert.Equal(t, 9, volume.Volume())
}

func TestEngineVolumeClamps(t *testing.T) {
	engine := mock.NewEngine()
	volume := NewEngineVolume(engine, 10, logger.NewTestLogger())

	volume.SetVolume(25)
	volume.SetVolume(-3)

	writes := engine.WritesTo("volume")
	require.Len(t, writes, 2)
	assert.Equal(t, domain.DoubleValue(100), writes[0])
	assert.Equal(t, domain.DoubleValue(0), writes[1])

	// mpv allows amplification above 100
	engine.Put("volume", domain.DoubleValue(130))
	assert.Equal(t, 10, volume.Volume())
}

func TestEngineVolumeKeepsLastStepOnWriteFailure(t *testing.T) {
	engine := mock.NewEngine()
	engine.SetFailSet(true)
	volume := NewEngineVolume(engine, 15, logger.NewTestLogger())

	volume.SetVolume(4)
	assert.Equal(t, 4, volume.Volume())
}

func TestBrightness(t *testing.T) {
	engine := mock.NewEngine()
	b := NewBrightness(300, engine, logger.NewTestLogger())

	assert.Equal(t, 255, b.SystemBrightness())
	assert.Equal(t, -1.0, b.WindowBrightness())

	b.SetWindowBrightness(0.75)
	assert.Equal(t, 0.75, b.WindowBrightness())

	b.SetWindowBrightness(2)
	assert.Equal(t, 1.0, b.WindowBrightness())

	b.SetWindowBrightness(0)

	assert.Equal(t, []domain.PropertyValue{
		domain.IntValue(50),
		domain.IntValue(100),
		domain.IntValue(-100),
	}, engine.WritesTo("brightness"))
}

func TestBrightnessWithoutEngine(t *testing.T) {
	b := NewBrightness(DefaultSystemBrightness, nil, logger.NewTestLogger())
	b.SetWindowBrightness(0.3)
	assert.Equal(t, 0.3, b.WindowBrightness())
	assert.Equal(t, 128, b.SystemBrightness())
}
