// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/afero"

	"github.com/sukerxi/mpvbridge/internal/adapter/dispatch"
	"github.com/sukerxi/mpvbridge/internal/adapter/engine/mock"
	"github.com/sukerxi/mpvbridge/internal/adapter/eventbus"
	"github.com/sukerxi/mpvbridge/internal/adapter/mpv"
	"github.com/sukerxi/mpvbridge/internal/adapter/repository/memory"
	"github.com/sukerxi/mpvbridge/internal/adapter/source/local"
	"github.com/sukerxi/mpvbridge/internal/adapter/system"
	fyneui "github.com/sukerxi/mpvbridge/internal/adapter/ui/fyne"
	"github.com/sukerxi/mpvbridge/internal/config"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/logger"
	"github.com/sukerxi/mpvbridge/internal/ports"
	"github.com/sukerxi/mpvbridge/internal/service"
)

const (
	progressInterval = 500 * time.Millisecond
	releaseTimeout   = 2 * time.Second
)

// Application is the root application structure that holds all dependencies.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for the CLI
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App
	config  Config

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	looper   *dispatch.Looper
	engine   ports.Engine
	channel  *service.EngineChannel

	// Adapters
	preferencesRepo ports.PreferencesRepository
	resolver        ports.MediaSourceResolver
	volume          *system.EngineVolume
	brightness      *system.Brightness

	// Services
	player      *service.PlayerService
	preferences *service.PreferenceService
	gestures    *service.GestureInterpreter

	// UI
	presenter *fyneui.Presenter
	window    *fyneui.PlayerWindow

	shutdownOnce sync.Once
	shutdownErr  error
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier; it scopes stored preferences
	AppID string

	// AppName is the display name
	AppName string

	// UseMockEngine replaces mpv with the in-memory engine
	UseMockEngine bool

	// Headless skips the player window; mpv shows its own
	Headless bool

	// WindowID is a native window handle mpv renders into (0 for mpv's own window)
	WindowID int64

	Mpv     config.MpvConfig
	Player  config.PlayerConfig
	Gesture config.GestureConfig
	Logger  logger.Config

	// Fs is the filesystem local media is resolved from (nil for the OS filesystem)
	Fs afero.Fs

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the built-in application configuration.
func DefaultConfig() Config {
	opts := service.DefaultPlayerOptions()
	mpvDefaults := mpv.DefaultOptions()
	return Config{
		AppID:   "io.github.sukerxi.mpvbridge",
		AppName: "mpvbridge",
		Mpv: config.MpvConfig{
			Binary:         mpvDefaults.Binary,
			HwdecCodecs:    mpvDefaults.HwdecCodecs,
			CacheMegabytes: mpvDefaults.CacheMegabytes,
			StartupTimeout: mpvDefaults.StartupTimeout,
		},
		Player:  config.PlayerConfig{SeekStep: opts.SeekStep, PressSpeed: opts.PressSpeed},
		Gesture: config.DefaultGesture(),
		Logger:  logger.DefaultConfig(),
	}
}

// ConfigFromViper returns the configuration loaded by config.Setup.
func ConfigFromViper() Config {
	cfg := DefaultConfig()
	cfg.AppID = config.ApplicationID()
	cfg.Mpv = config.Mpv()
	cfg.Player = config.Player()
	cfg.Gesture = config.Gesture()
	cfg.Logger = config.Logger()
	return cfg
}

// mpvOptions maps the configuration onto the mpv adapter's options.
func mpvOptions(cfg config.MpvConfig) mpv.Options {
	return mpv.Options{
		Binary:         cfg.Binary,
		Socket:         cfg.Socket,
		ConfigDir:      cfg.ConfigDir,
		HwdecCodecs:    cfg.HwdecCodecs,
		CacheMegabytes: cfg.CacheMegabytes,
		StartupTimeout: cfg.StartupTimeout,
	}
}

// NewApplication creates a new application with all dependencies wired and
// the engine started.
func NewApplication(cfg Config) (*Application, error) {
	app := &Application{config: cfg}

	// Step 1: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	app.logger = logger.NewLogger(cfg.Logger)
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create the event bus and the dispatcher
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.looper = dispatch.NewLooper(app.logger)

	// Step 3: Create the engine. Observations are registered by the channel
	// before the engine starts, so mpv receives them at startup.
	if cfg.UseMockEngine {
		engine := mock.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.engine = engine
	} else {
		app.engine = mpv.NewEngine(app.logger, mpvOptions(cfg.Mpv))
	}

	app.channel = service.NewEngineChannel(app.logger, app.engine, app.looper, app.eventBus)
	if err := app.channel.Start(); err != nil {
		app.abort()
		return nil, fmt.Errorf("failed to start engine channel: %w", err)
	}
	if err := app.engine.Initialize(); err != nil {
		app.abort()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	// Step 4: Create repositories and adapters
	app.preferencesRepo = memory.NewPreferencesRepository(app.fyneApp.Preferences())
	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	app.resolver = local.NewResolver(fsys, app.logger)
	app.volume = system.NewEngineVolume(app.engine, system.DefaultVolumeSteps, app.logger)
	app.brightness = system.NewBrightness(system.DefaultSystemBrightness, app.engine, app.logger)

	// Step 5: Create services
	app.preferences = service.NewPreferenceService(app.logger, app.preferencesRepo)
	app.player = service.NewPlayerService(app.logger, app.channel, app.eventBus, service.PlayerOptions{
		SeekStep:   cfg.Player.SeekStep,
		PressSpeed: cfg.Player.PressSpeed,
	})
	app.player.SetDecoderProcessor(app.preferences.Decoder, func(decoder domain.DecoderType) {
		if err := app.preferences.SetDecoder(decoder); err != nil {
			app.logger.Warn("failed to save decoder", slog.Any("error", err))
		}
	})

	// Step 6: Create UI
	var screen fyneui.PlayerScreen = logScreen{logger: app.logger}
	if !cfg.Headless {
		app.window = fyneui.NewPlayerWindow(app.fyneApp)
		app.gestures = service.NewGestureInterpreter(app.logger, service.GestureDeps{
			View:       app.window,
			Actions:    app.player,
			Audio:      app.volume,
			Brightness: app.brightness,
			Prefs:      app.preferences,
			Dispatcher: app.looper,
			Bus:        app.eventBus,
		}, cfg.Gesture)
		screen = app.window
	}

	app.presenter = fyneui.NewPresenter(app.logger, fyneui.PresenterDeps{
		Player:     app.player,
		Gestures:   app.gestures,
		Prefs:      app.preferences,
		Resolver:   app.resolver,
		Dispatcher: app.looper,
		Bus:        app.eventBus,
	}, screen)

	if app.window != nil {
		app.window.SetPresenter(app.presenter)
	}

	if cfg.WindowID != 0 {
		surface := nativeWindow(cfg.WindowID)
		app.looper.Post(func() { app.player.AttachOutputSurface(surface) })
	}

	return app, nil
}

// abort releases what NewApplication created before failing.
func (a *Application) abort() {
	_ = a.channel.Close()
	_ = a.looper.Close()
	_ = a.engine.Shutdown()
	_ = a.eventBus.Close()
}

// Open resolves ref and starts playing it at start.
func (a *Application) Open(ctx context.Context, ref string, start time.Duration) error {
	return a.presenter.Open(ctx, ref, start)
}

// WaitForTracks blocks until the engine reports a track list, then returns
// the catalog.
func (a *Application) WaitForTracks(ctx context.Context) (*service.TrackCatalog, error) {
	ready := make(chan struct{}, 1)
	id := a.eventBus.Subscribe(domain.EventTracksChanged, func(domain.Event) {
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	defer a.eventBus.Unsubscribe(id)

	select {
	case <-ready:
		return a.player.Catalog(), nil
	case <-a.engineDone():
		return nil, domain.ErrEngineClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// engineDone is closed when mpv exits on its own; nil for engines that can't.
func (a *Application) engineDone() <-chan struct{} {
	if e, ok := a.engine.(interface{ Done() <-chan struct{} }); ok {
		return e.Done()
	}
	return nil
}

// Run shows the player window and blocks until it is closed, the engine
// exits or ctx is cancelled. Headless applications just wait.
func (a *Application) Run(ctx context.Context) {
	a.logger.Info("mpvbridge started")

	if a.window == nil {
		select {
		case <-ctx.Done():
		case <-a.engineDone():
			a.logger.Info("engine exited")
		}
		return
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-a.engineDone():
			a.logger.Info("engine exited")
		case <-stop:
			return
		}
		fyne.Do(a.fyneApp.Quit)
	}()

	a.presenter.StartProgressUpdates(progressInterval)
	a.window.ShowAndRun()
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Player returns the playback bridge.
func (a *Application) Player() *service.PlayerService {
	return a.player
}

// Preferences returns the preference service.
func (a *Application) Preferences() *service.PreferenceService {
	return a.preferences
}

// EventBus returns the event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Dispatcher returns the UI-bound dispatcher.
func (a *Application) Dispatcher() ports.Dispatcher {
	return a.looper
}

// FyneApp returns the Fyne application.
func (a *Application) FyneApp() fyne.App {
	return a.fyneApp
}

// Shutdown releases the player and stops everything in reverse order of
// creation. It's safe to call multiple times.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")
		var errs []error

		a.presenter.Shutdown()

		a.looper.Post(func() {
			a.player.DetachOutputSurface()
			a.player.Release()
		})
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		if err := a.looper.Flush(ctx); err != nil {
			a.logger.Warn("release did not complete", slog.Any("error", err))
		}
		cancel()

		errs = append(errs, a.channel.Close(), a.looper.Close())
		if err := a.engine.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("engine shutdown: %w", err))
		}
		errs = append(errs, a.eventBus.Close())

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// nativeWindow is a window handle owned by another program, e.g. an X11
// window id passed on the command line.
type nativeWindow int64

func (w nativeWindow) WindowID() int64 {
	return int64(w)
}

// logScreen stands in for the player window when running headless.
type logScreen struct {
	logger *slog.Logger
}

func (s logScreen) SetTitle(title string) {
	s.logger.Info("now playing", slog.String("title", title))
}

func (s logScreen) SetPlaying(bool)                          {}
func (s logScreen) SetProgress(time.Duration, time.Duration) {}
func (s logScreen) SetTrackOptions([]string, []string, int, int) {
}

func (s logScreen) ShowError(title, message string) {
	s.logger.Error(title, slog.String("error", message))
}
