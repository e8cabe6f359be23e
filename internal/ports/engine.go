// Package ports define interfaces for dependency inversion.
// These interfaces allow the bridge logic to remain independent of the native engine
// binding and of the UI toolkit.
package ports

import (
	"github.com/sukerxi/mpvbridge/internal/domain"
)

// Engine is the native playback engine boundary: a property store, an ordered
// command dispatcher and an event source. Any engine exposing this triad is
// substitutable.
//
// Implementations must be thread-safe. Observer callbacks may arrive on any
// goroutine owned by the engine; consumers re-post them to their own context.
type Engine interface {
	// Lifecycle methods

	// Initialize starts the engine. Options set before Initialize are applied at startup.
	//
	// Returns domain.ErrAlreadyInitialized if called twice.
	Initialize() error

	// Shutdown stops the engine and releases all resources.
	// Calling Shutdown on a stopped engine is a no-op.
	Shutdown() error

	// SetOption sets a startup option. Options set after Initialize are written as properties.
	SetOption(name, value string) error

	// Property store

	// GetProperty reads a property in the requested kind.
	// Returns domain.ErrPropertyUnavailable if the engine has no value.
	GetProperty(name string, kind domain.PropertyKind) (domain.PropertyValue, error)

	// SetProperty writes a property.
	SetProperty(name string, value domain.PropertyValue) error

	// Command dispatcher

	// Command sends one command. Commands are delivered in call order.
	Command(args ...string) error

	// Event source

	// ObserveProperty asks the engine to report changes of a property.
	// Flag properties are reported through OnFlagChange, everything else through OnPropertyChange.
	ObserveProperty(name string, kind domain.PropertyKind) error

	// SetObserver installs the single observer receiving engine callbacks.
	// Passing nil removes it.
	SetObserver(observer EngineObserver)

	// Rendering

	// AttachSurface binds a render target.
	AttachSurface(surface Surface) error

	// DetachSurface unbinds the render target.
	DetachSurface() error
}

// EngineObserver receives the engine's asynchronous callbacks.
type EngineObserver interface {
	// OnEvent is called for each discrete engine event.
	OnEvent(event domain.EngineEvent)

	// OnPropertyChange is called when a non-flag observed property changed.
	OnPropertyChange(name string)

	// OnFlagChange is called when an observed flag property changed.
	OnFlagChange(name string, value bool)
}

// Surface is a render target the engine can draw into.
type Surface interface {
	// WindowID identifies the native window or view handle.
	WindowID() int64
}
