// Package system provides the volume and brightness controls the gesture layer
// adjusts. On the desktop both are backed by the playback engine.
package system

import (
	"log/slog"
	"math"
	"sync"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

const (
	// DefaultVolumeSteps matches the music stream of a phone.
	DefaultVolumeSteps = 15

	volumeProperty   = "volume"
	engineVolumeFull = 100.0
)

// EngineVolume implements ports.AudioOutput over the engine's volume property,
// exposed as a small number of discrete steps.
//
// Thread-safety: This implementation is thread-safe.
type EngineVolume struct {
	engine ports.Engine
	logger *slog.Logger
	steps  int

	mu   sync.Mutex
	last int
}

// NewEngineVolume creates a volume control with the given number of steps.
func NewEngineVolume(engine ports.Engine, steps int, logger *slog.Logger) *EngineVolume {
	if steps <= 0 {
		steps = DefaultVolumeSteps
	}
	return &EngineVolume{
		engine: engine,
		logger: logger.With(slog.String("adapter", "volume")),
		steps:  steps,
		last:   steps,
	}
}

// Volume returns the current step. The last known step is returned while the
// engine has no value.
func (v *EngineVolume) Volume() int {
	value, err := v.engine.GetProperty(volumeProperty, domain.PropertyKindDouble)
	if err != nil {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.last
	}

	level, _ := value.AsDouble()
	step := int(math.Round(level / engineVolumeFull * float64(v.steps)))
	step = min(max(step, 0), v.steps)

	v.mu.Lock()
	v.last = step
	v.mu.Unlock()
	return step
}

// MaxVolume returns the number of steps.
func (v *EngineVolume) MaxVolume() int {
	return v.steps
}

// SetVolume sets the volume to step, clamped to [0, MaxVolume].
func (v *EngineVolume) SetVolume(step int) {
	step = min(max(step, 0), v.steps)

	v.mu.Lock()
	v.last = step
	v.mu.Unlock()

	level := float64(step) * engineVolumeFull / float64(v.steps)
	if err := v.engine.SetProperty(volumeProperty, domain.DoubleValue(level)); err != nil {
		v.logger.Debug("volume write failed", slog.Int("step", step), slog.Any("error", err))
	}
}

// Verify interface implementation
var _ ports.AudioOutput = (*EngineVolume)(nil)
