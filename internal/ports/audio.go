package ports

// AudioOutput is the system audio volume the gesture layer adjusts.
//
// Implementations must be thread-safe.
type AudioOutput interface {
	// Volume returns the current volume step.
	Volume() int

	// MaxVolume returns the highest volume step.
	MaxVolume() int

	// SetVolume sets the volume step. Values outside [0, MaxVolume] are clamped.
	SetVolume(volume int)
}

// Brightness is the screen brightness the gesture layer adjusts.
type Brightness interface {
	// WindowBrightness returns the window override in [0, 1], or a negative value if unset.
	WindowBrightness() float64

	// SetWindowBrightness sets the window override in [0, 1].
	SetWindowBrightness(value float64)

	// SystemBrightness returns the system brightness in [0, 255].
	SystemBrightness() int
}
