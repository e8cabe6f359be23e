// Package domain defines domain-specific errors.
// These errors represent player bridge failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrPropertyUnavailable is returned when the engine has no value for a property.
	ErrPropertyUnavailable = errors.New("property unavailable")

	// ErrUnsupportedPropertyType is returned when a property is read or written with a
	// type the engine binding cannot represent.
	ErrUnsupportedPropertyType = errors.New("unsupported property type")

	// ErrPropertyFormat is returned when the engine cannot convert a property to the
	// requested kind.
	ErrPropertyFormat = errors.New("property format mismatch")

	// ErrEmptyCommand is returned when a command has no arguments.
	ErrEmptyCommand = errors.New("empty engine command")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrEngineClosed is returned when the engine connection has been shut down.
	ErrEngineClosed = errors.New("engine closed")

	// ErrInvalidMediaTarget is returned for media URIs that are unsafe to hand to the engine.
	ErrInvalidMediaTarget = errors.New("invalid media target")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrDispatcherClosed is returned when work is posted to a stopped dispatcher.
	ErrDispatcherClosed = errors.New("dispatcher closed")

	// ErrInvalidBrightness is returned for brightness values outside [0, 1].
	ErrInvalidBrightness = errors.New("brightness must be between 0.0 and 1.0")
)

// EngineError represents an error reported by the playback engine.
type EngineError struct {
	Op      string // Operation that failed (e.g., "get_property", "command")
	Target  string // Property name or command verb
	Message string // Error message from the engine
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("engine %s failed for '%s': %s", e.Op, e.Target, e.Message)
	}
	return fmt.Sprintf("engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, target, message string, err error) *EngineError {
	return &EngineError{
		Op:      op,
		Target:  target,
		Message: message,
		Err:     err,
	}
}

// PropertyKindError is returned by the PropertyValue accessors when the stored
// kind differs from the requested one.
type PropertyKindError struct {
	Want PropertyKind
	Got  PropertyKind
}

// Error implements the error interface.
func (e *PropertyKindError) Error() string {
	return fmt.Sprintf("property holds %s, requested %s", e.Got, e.Want)
}

// Unwrap ties the error to ErrPropertyFormat.
func (e *PropertyKindError) Unwrap() error {
	return ErrPropertyFormat
}

// PropertyTypeError is returned when a Go runtime type has no property kind.
type PropertyTypeError struct {
	Type string
}

// Error implements the error interface.
func (e *PropertyTypeError) Error() string {
	return fmt.Sprintf("unsupported property type: %s", e.Type)
}

// Unwrap ties the error to ErrUnsupportedPropertyType.
func (e *PropertyTypeError) Unwrap() error {
	return ErrUnsupportedPropertyType
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "preferences")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}
