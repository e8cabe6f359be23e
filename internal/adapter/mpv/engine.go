package mpv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

const requestTimeout = 2 * time.Second

// launcher starts mpv with the given startup flags and returns a connected
// IPC socket. proc is nil when nothing needs to be reaped.
type launcher func(ctx context.Context, args []string) (proc *process, conn net.Conn, err error)

type observation struct {
	name string
	kind domain.PropertyKind
}

// Engine is the mpv implementation of ports.Engine. It runs mpv as a child
// process and talks to it over JSON IPC.
//
// Thread-safety: This implementation is thread-safe. Observer callbacks run on
// the IPC event goroutine.
type Engine struct {
	logger *slog.Logger
	opts   Options
	launch launcher

	// lifecycle; never held by the IPC goroutines
	mu          sync.Mutex
	initialized bool
	options     optionList
	client      *Client
	proc        *process
	surface     ports.Surface

	obsMu        sync.RWMutex
	observer     ports.EngineObserver
	observations map[int64]observation
	nextObserve  int64
}

// NewEngine creates an mpv engine. Nothing is started until Initialize.
func NewEngine(logger *slog.Logger, opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.Binary == "" {
		opts.Binary = defaults.Binary
	}
	if opts.CacheMegabytes <= 0 {
		opts.CacheMegabytes = defaults.CacheMegabytes
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = defaults.StartupTimeout
	}

	e := &Engine{
		logger:       logger.With(slog.String("adapter", "mpv")),
		opts:         opts,
		options:      bootstrapOptions(opts),
		observations: make(map[int64]observation),
	}
	e.launch = e.launchProcess
	return e
}

func (e *Engine) launchProcess(ctx context.Context, args []string) (*process, net.Conn, error) {
	socket, owns, err := socketPath(e.opts.Socket)
	if err != nil {
		return nil, nil, err
	}
	return startProcess(ctx, e.logger, e.opts.Binary, socket, owns, args)
}

// Initialize launches mpv with the startup options and registers the
// properties observed so far.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.opts.StartupTimeout)
	defer cancel()

	proc, conn, err := e.launch(ctx, e.options.args())
	if err != nil {
		return domain.NewEngineError("initialize", e.opts.Binary, "launch failed", err)
	}
	client := NewClient(conn, e.logger, e.handleEvent)

	e.obsMu.RLock()
	pending := make(map[int64]observation, len(e.observations))
	for id, o := range e.observations {
		pending[id] = o
	}
	e.obsMu.RUnlock()

	for id, o := range pending {
		if _, err := client.Request(ctx, "observe_property", id, o.name); err != nil {
			_ = client.Close()
			if proc != nil {
				proc.kill()
			}
			return fmt.Errorf("observe %s: %w", o.name, err)
		}
	}

	e.client = client
	e.proc = proc
	e.initialized = true
	return nil
}

// Shutdown asks mpv to quit and waits for it, killing it after a timeout.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := e.client.Request(ctx, "quit"); err != nil {
		e.logger.Debug("quit request failed", slog.Any("error", err))
	}

	err := e.client.Close()
	if e.proc != nil {
		e.proc.wait(quitTimeout)
	}

	e.client = nil
	e.proc = nil
	e.surface = nil
	e.initialized = false
	e.logger.Info("mpv stopped")
	return err
}

// IsInitialized returns true if mpv is running.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Done is closed when the IPC connection to a running mpv ends, which
// happens when the user closes the mpv window. It is nil before Initialize.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	return e.client.Done()
}

func (e *Engine) currentClient() (*Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, domain.ErrNotInitialized
	}
	return e.client, nil
}

func (e *Engine) request(args ...any) (json.RawMessage, error) {
	client, err := e.currentClient()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return client.Request(ctx, args...)
}

// SetOption sets a startup option. After Initialize the option is applied with
// mpv's string-parsing set command.
func (e *Engine) SetOption(name, value string) error {
	e.mu.Lock()
	if !e.initialized {
		e.options = e.options.set(name, value)
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	_, err := e.request("set", name, value)
	return err
}

// Option returns a startup option value.
func (e *Engine) Option(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.options.get(name)
}

// GetProperty reads a property and converts mpv's JSON value to kind.
func (e *Engine) GetProperty(name string, kind domain.PropertyKind) (domain.PropertyValue, error) {
	if !kind.IsReadable() {
		return domain.PropertyValue{}, fmt.Errorf("get %s as %s: %w", name, kind, domain.ErrUnsupportedPropertyType)
	}
	raw, err := e.request("get_property", name)
	if err != nil {
		return domain.PropertyValue{}, err
	}
	return decodeProperty(name, raw, kind)
}

// decodeProperty converts one JSON value the way mpv converts between
// formats. Strings requested from structured values such as track-list carry
// the compact JSON text.
func decodeProperty(name string, raw json.RawMessage, kind domain.PropertyKind) (domain.PropertyValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.PropertyValue{}, domain.NewEngineError("get_property", name, "property unavailable", domain.ErrPropertyUnavailable)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return domain.PropertyValue{}, domain.NewEngineError("get_property", name, "malformed value", err)
	}

	switch kind {
	case domain.PropertyKindString:
		switch t := v.(type) {
		case string:
			return domain.StringValue(t), nil
		case bool:
			return domain.StringValue(domain.FlagValue(t).String()), nil
		case json.Number:
			return domain.StringValue(t.String()), nil
		default:
			var compact bytes.Buffer
			if err := json.Compact(&compact, raw); err != nil {
				return domain.PropertyValue{}, domain.NewEngineError("get_property", name, "malformed value", err)
			}
			return domain.StringValue(compact.String()), nil
		}

	case domain.PropertyKindInt:
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return domain.IntValue(i), nil
			}
			if f, err := n.Float64(); err == nil {
				return domain.IntValue(int64(f)), nil
			}
		}

	case domain.PropertyKindDouble:
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return domain.DoubleValue(f), nil
			}
		}

	case domain.PropertyKindFlag:
		if b, ok := v.(bool); ok {
			return domain.FlagValue(b), nil
		}
	}

	mismatch := &domain.PropertyKindError{Want: kind, Got: jsonKind(v)}
	return domain.PropertyValue{}, domain.NewEngineError("get_property", name, mismatch.Error(), mismatch)
}

// jsonKind maps a decoded JSON value to the closest property kind.
func jsonKind(v any) domain.PropertyKind {
	switch v.(type) {
	case string:
		return domain.PropertyKindString
	case json.Number:
		return domain.PropertyKindDouble
	case bool:
		return domain.PropertyKindFlag
	default:
		return domain.PropertyKindNone
	}
}

// SetProperty writes a property.
func (e *Engine) SetProperty(name string, value domain.PropertyValue) error {
	if value.Kind() == domain.PropertyKindNone {
		return fmt.Errorf("set %s: %w", name, domain.ErrUnsupportedPropertyType)
	}
	_, err := e.request("set_property", name, value.Interface())
	return err
}

// Command sends a command. Requests are written in call order.
func (e *Engine) Command(args ...string) error {
	if len(args) == 0 {
		return domain.ErrEmptyCommand
	}
	cmd := make([]any, len(args))
	for i, a := range args {
		cmd[i] = a
	}
	_, err := e.request(cmd...)
	return err
}

// ObserveProperty registers name for change notifications. Observations made
// before Initialize are sent when mpv starts.
func (e *Engine) ObserveProperty(name string, kind domain.PropertyKind) error {
	e.obsMu.Lock()
	e.nextObserve++
	id := e.nextObserve
	e.observations[id] = observation{name: name, kind: kind}
	e.obsMu.Unlock()

	client, err := e.currentClient()
	if err != nil {
		// sent by Initialize
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := client.Request(ctx, "observe_property", id, name); err != nil {
		e.obsMu.Lock()
		delete(e.observations, id)
		e.obsMu.Unlock()
		return err
	}
	return nil
}

// SetObserver installs the observer.
func (e *Engine) SetObserver(observer ports.EngineObserver) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observer = observer
}

// handleEvent runs on the IPC event goroutine.
func (e *Engine) handleEvent(ev Event) {
	e.obsMu.RLock()
	observer := e.observer
	o, observed := e.observations[ev.ID]
	e.obsMu.RUnlock()

	if observer == nil {
		return
	}

	if ev.Name == "property-change" {
		if !observed {
			return
		}
		if o.kind != domain.PropertyKindFlag {
			observer.OnPropertyChange(o.name)
			return
		}
		// null while nothing is loaded
		data := bytes.TrimSpace(ev.Data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return
		}
		var value bool
		if err := json.Unmarshal(data, &value); err != nil {
			e.logger.Debug("non-flag value for flag property", slog.String("property", o.name))
			return
		}
		observer.OnFlagChange(o.name, value)
		return
	}

	if event := domain.ParseEngineEvent(ev.Name); event != domain.EngineEventNone {
		if event == domain.EngineEventEndFile {
			e.logger.Debug("end-file", slog.String("reason", ev.Reason))
		}
		observer.OnEvent(event)
	}
}

// AttachSurface makes mpv render into the surface's native window.
func (e *Engine) AttachSurface(surface ports.Surface) error {
	if surface == nil {
		return nil
	}
	if _, err := e.request("set_property", "wid", surface.WindowID()); err != nil {
		return err
	}
	e.mu.Lock()
	e.surface = surface
	e.mu.Unlock()
	return nil
}

// DetachSurface returns mpv to its own window.
func (e *Engine) DetachSurface() error {
	e.mu.Lock()
	if e.surface == nil {
		e.mu.Unlock()
		return nil
	}
	e.surface = nil
	e.mu.Unlock()

	_, err := e.request("set_property", "wid", -1)
	return err
}

// Verify interface implementation
var _ ports.Engine = (*Engine)(nil)
