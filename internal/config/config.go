// Package config provides the viper-based configuration: defaults, environment
// bindings and an optional TOML file.
package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/sukerxi/mpvbridge/internal/logger"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "mpvbridge"

// EnvKeyReplacer normalizes configuration keys into environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration from defaults, environment and
// the config file in dir, read through fs. A missing file is not an error.
func Setup(fs afero.Fs, dir string) error {
	viper.SetConfigName(EnvPrefix)
	viper.SetConfigType("toml")
	viper.SetFs(fs)
	if dir != "" {
		viper.AddConfigPath(dir)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// MpvConfig configures the mpv process.
type MpvConfig struct {
	Binary         string
	Socket         string
	ConfigDir      string
	HwdecCodecs    string
	CacheMegabytes int
	StartupTimeout time.Duration
}

// Mpv returns the mpv settings.
func Mpv() MpvConfig {
	return MpvConfig{
		Binary:         viper.GetString(MpvBinary),
		Socket:         viper.GetString(MpvSocket),
		ConfigDir:      viper.GetString(MpvConfigDir),
		HwdecCodecs:    viper.GetString(MpvHwdecCodecs),
		CacheMegabytes: viper.GetInt(MpvCacheMegabytes),
		StartupTimeout: viper.GetDuration(MpvStartupTimeout),
	}
}

// PlayerConfig configures the command translator.
type PlayerConfig struct {
	SeekStep   time.Duration
	PressSpeed float64
}

// Player returns the player settings.
func Player() PlayerConfig {
	return PlayerConfig{
		SeekStep:   viper.GetDuration(PlayerSeekStep),
		PressSpeed: viper.GetFloat64(PlayerPressSpeed),
	}
}

// GestureConfig holds the gesture interpreter thresholds.
type GestureConfig struct {
	TouchSlop        float64
	DominanceRatio   float64
	ExclusionBand    float64
	FullSwipeRatio   float64
	OverlayTimeout   time.Duration
	ControlsTimeout  time.Duration
	DoubleTapTimeout time.Duration
	LongPressTimeout time.Duration
	ZoomThreshold    float64
}

// DefaultGesture returns the built-in thresholds without consulting viper.
func DefaultGesture() GestureConfig {
	return GestureConfig{
		TouchSlop:        Default[GestureTouchSlop].Value.(float64),
		DominanceRatio:   Default[GestureDominanceRatio].Value.(float64),
		ExclusionBand:    Default[GestureExclusionBand].Value.(float64),
		FullSwipeRatio:   Default[GestureFullSwipeRatio].Value.(float64),
		OverlayTimeout:   Default[GestureOverlayTimeout].Value.(time.Duration),
		ControlsTimeout:  Default[GestureControlsTimeout].Value.(time.Duration),
		DoubleTapTimeout: Default[GestureDoubleTapTimeout].Value.(time.Duration),
		LongPressTimeout: Default[GestureLongPressTimeout].Value.(time.Duration),
		ZoomThreshold:    Default[GestureZoomThreshold].Value.(float64),
	}
}

// Gesture returns the gesture settings.
func Gesture() GestureConfig {
	return GestureConfig{
		TouchSlop:        viper.GetFloat64(GestureTouchSlop),
		DominanceRatio:   viper.GetFloat64(GestureDominanceRatio),
		ExclusionBand:    viper.GetFloat64(GestureExclusionBand),
		FullSwipeRatio:   viper.GetFloat64(GestureFullSwipeRatio),
		OverlayTimeout:   viper.GetDuration(GestureOverlayTimeout),
		ControlsTimeout:  viper.GetDuration(GestureControlsTimeout),
		DoubleTapTimeout: viper.GetDuration(GestureDoubleTapTimeout),
		LongPressTimeout: viper.GetDuration(GestureLongPressTimeout),
		ZoomThreshold:    viper.GetFloat64(GestureZoomThreshold),
	}
}

// Logger returns the logger configuration.
func Logger() logger.Config {
	return logger.Config{
		Level:  logger.ParseLevel(viper.GetString(LogLevel), slog.LevelInfo),
		Format: viper.GetString(LogFormat),
	}
}

// ApplicationID returns the id that scopes stored preferences.
func ApplicationID() string {
	return viper.GetString(AppID)
}

// MetricsAddress returns the address the metrics endpoint listens on, or ""
// when it is disabled.
func MetricsAddress() string {
	return viper.GetString(MetricsAddr)
}
