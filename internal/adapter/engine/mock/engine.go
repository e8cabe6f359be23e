// Package mock provides an in-memory implementation of the Engine interface.
// This is used for testing the bridge without a running mpv process.
package mock

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// Write records one property write.
type Write struct {
	Name  string
	Value domain.PropertyValue
}

// Engine is a mock implementation of the Engine interface.
// Properties live in a map, commands and writes are recorded, and tests drive
// the observer through the Emit helpers.
//
// Thread-safety: This implementation is thread-safe. Observer callbacks are
// invoked without holding the lock.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	mu          sync.RWMutex
	initialized bool
	options     map[string]string
	props       map[string]domain.PropertyValue
	observed    map[string]domain.PropertyKind
	observer    ports.EngineObserver
	surface     ports.Surface

	commands [][]string
	writes   []Write

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failSet        bool
	failCommand    bool
}

// NewEngine creates a new mock engine.
func NewEngine() *Engine {
	return &Engine{
		logger:   slog.New(slog.DiscardHandler),
		options:  make(map[string]string),
		props:    make(map[string]domain.PropertyValue),
		observed: make(map[string]domain.PropertyKind),
	}
}

// SetLogger sets the logger for this engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if logger != nil {
		m.logger = logger
	}
}

// SetFailInitialize configures the mock to fail initialization.
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailSet configures the mock to reject property writes.
func (m *Engine) SetFailSet(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = fail
}

// SetFailCommand configures the mock to reject commands.
func (m *Engine) SetFailCommand(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCommand = fail
}

// Initialize marks the engine as running.
func (m *Engine) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewEngineError("initialize", "", "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}
	m.initialized = true
	return nil
}

// Shutdown marks the engine as stopped and forgets the observer.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	m.observer = nil
	m.surface = nil
	return nil
}

// IsInitialized returns true between Initialize and Shutdown.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetOption records a startup option.
func (m *Engine) SetOption(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options[name] = value
	return nil
}

// Option returns a recorded startup option.
func (m *Engine) Option(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.options[name]
	return v, ok
}

// GetProperty reads a property, converting between kinds the way mpv does.
func (m *Engine) GetProperty(name string, kind domain.PropertyKind) (domain.PropertyValue, error) {
	m.mu.RLock()
	stored, ok := m.props[name]
	m.mu.RUnlock()

	if !ok {
		return domain.PropertyValue{}, domain.NewEngineError("get_property", name, "property unavailable", domain.ErrPropertyUnavailable)
	}
	v, err := convert(stored, kind)
	if err != nil {
		return domain.PropertyValue{}, domain.NewEngineError("get_property", name, err.Error(), err)
	}
	return v, nil
}

// convert coerces a stored value into the requested kind.
func convert(v domain.PropertyValue, kind domain.PropertyKind) (domain.PropertyValue, error) {
	if v.Kind() == kind {
		return v, nil
	}
	mismatch := &domain.PropertyKindError{Want: kind, Got: v.Kind()}

	switch kind {
	case domain.PropertyKindString:
		return domain.StringValue(v.String()), nil
	case domain.PropertyKindInt:
		switch v.Kind() {
		case domain.PropertyKindDouble:
			d, _ := v.AsDouble()
			return domain.IntValue(int64(math.Trunc(d))), nil
		case domain.PropertyKindString:
			s, _ := v.AsString()
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return domain.IntValue(n), nil
			}
		}
	case domain.PropertyKindDouble:
		switch v.Kind() {
		case domain.PropertyKindInt:
			n, _ := v.AsInt()
			return domain.DoubleValue(float64(n)), nil
		case domain.PropertyKindString:
			s, _ := v.AsString()
			if d, err := strconv.ParseFloat(s, 64); err == nil {
				return domain.DoubleValue(d), nil
			}
		}
	case domain.PropertyKindFlag:
		if v.Kind() == domain.PropertyKindString {
			s, _ := v.AsString()
			switch s {
			case "yes":
				return domain.FlagValue(true), nil
			case "no":
				return domain.FlagValue(false), nil
			}
		}
	}
	return domain.PropertyValue{}, mismatch
}

// SetProperty stores a property and records the write.
func (m *Engine) SetProperty(name string, value domain.PropertyValue) error {
	m.mu.Lock()
	m.writes = append(m.writes, Write{Name: name, Value: value})
	if m.failSet {
		m.mu.Unlock()
		return domain.NewEngineError("set_property", name, "mock write failed", nil)
	}
	m.props[name] = value
	m.mu.Unlock()
	return nil
}

// Command records a command.
func (m *Engine) Command(args ...string) error {
	if len(args) == 0 {
		return domain.ErrEmptyCommand
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, slices.Clone(args))
	if m.failCommand {
		return domain.NewEngineError("command", args[0], "mock command failed", nil)
	}
	return nil
}

// ObserveProperty records the observation.
func (m *Engine) ObserveProperty(name string, kind domain.PropertyKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed[name] = kind
	return nil
}

// Observed returns the observed properties and their kinds.
func (m *Engine) Observed() map[string]domain.PropertyKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.observed)
}

// SetObserver installs the observer.
func (m *Engine) SetObserver(observer ports.EngineObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = observer
}

// AttachSurface records the render target.
func (m *Engine) AttachSurface(surface ports.Surface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surface = surface
	return nil
}

// DetachSurface forgets the render target.
func (m *Engine) DetachSurface() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surface = nil
	return nil
}

// Surface returns the attached render target.
func (m *Engine) Surface() ports.Surface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.surface
}

// Test helpers

// Put stores a property without recording a write.
func (m *Engine) Put(name string, value domain.PropertyValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.props[name] = value
}

// Remove deletes a property so reads report it as unavailable.
func (m *Engine) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.props, name)
}

// Property returns the stored value of a property.
func (m *Engine) Property(name string) (domain.PropertyValue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.props[name]
	return v, ok
}

// Commands returns every recorded command.
func (m *Engine) Commands() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.commands)
}

// CommandLines returns every recorded command joined by spaces.
func (m *Engine) CommandLines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lines := make([]string, len(m.commands))
	for i, c := range m.commands {
		lines[i] = strings.Join(c, " ")
	}
	return lines
}

// Writes returns every recorded property write.
func (m *Engine) Writes() []Write {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.writes)
}

// WritesTo returns the values written to one property, in order.
func (m *Engine) WritesTo(name string) []domain.PropertyValue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.PropertyValue
	for _, w := range m.writes {
		if w.Name == name {
			out = append(out, w.Value)
		}
	}
	return out
}

// ResetLogs clears recorded commands and writes.
func (m *Engine) ResetLogs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = nil
	m.writes = nil
}

func (m *Engine) currentObserver() ports.EngineObserver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.observer
}

// EmitEvent delivers a discrete event to the observer.
func (m *Engine) EmitEvent(event domain.EngineEvent) {
	if o := m.currentObserver(); o != nil {
		o.OnEvent(event)
	}
}

// EmitPropertyChange delivers a property change to the observer.
func (m *Engine) EmitPropertyChange(name string) {
	if o := m.currentObserver(); o != nil {
		o.OnPropertyChange(name)
	}
}

// EmitFlag stores a flag property and delivers the change to the observer.
func (m *Engine) EmitFlag(name string, value bool) {
	m.Put(name, domain.FlagValue(value))
	if o := m.currentObserver(); o != nil {
		o.OnFlagChange(name, value)
	}
}

// String describes the mock for debugging.
func (m *Engine) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("mock.Engine{props: %d, commands: %d, writes: %d}", len(m.props), len(m.commands), len(m.writes))
}

var _ ports.Engine = (*Engine)(nil)
