package system

import (
	"log/slog"
	"math"
	"sync"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// DefaultSystemBrightness is the system level reported when none is known.
const DefaultSystemBrightness = 128

const brightnessProperty = "brightness"

// Brightness implements ports.Brightness. The window override is kept in
// memory and, when an engine is given, mirrored to the engine's video
// brightness so the change is visible: 0 maps to -100, 0.5 to 0 and 1 to 100.
type Brightness struct {
	engine ports.Engine
	logger *slog.Logger
	system int

	mu     sync.RWMutex
	window float64
}

// NewBrightness creates a holder with no window override. engine may be nil.
func NewBrightness(system int, engine ports.Engine, logger *slog.Logger) *Brightness {
	return &Brightness{
		engine: engine,
		logger: logger.With(slog.String("adapter", "brightness")),
		system: min(max(system, 0), 255),
		window: -1,
	}
}

// WindowBrightness returns the override in [0, 1], or -1 if none was set.
func (b *Brightness) WindowBrightness() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.window
}

// SetWindowBrightness sets the override, clamped to [0, 1].
func (b *Brightness) SetWindowBrightness(value float64) {
	value = min(max(value, 0), 1)

	b.mu.Lock()
	b.window = value
	b.mu.Unlock()

	if b.engine == nil {
		return
	}
	level := math.Round((value - 0.5) * 200)
	if err := b.engine.SetProperty(brightnessProperty, domain.IntValue(int64(level))); err != nil {
		b.logger.Debug("brightness write failed", slog.Float64("value", value), slog.Any("error", err))
	}
}

// SystemBrightness returns the system level in [0, 255].
func (b *Brightness) SystemBrightness() int {
	return b.system
}

// Verify interface implementation
var _ ports.Brightness = (*Brightness)(nil)
