package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	return strings.ToUpper(EnvPrefix + "_" + EnvKeyReplacer.Replace(f.Key))
}

// MarshalJSON includes the current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Env         string `json:"env"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
	}{
		Key:         f.Key,
		Env:         f.Env(),
		Value:       fmt.Sprint(viper.Get(f.Key)),
		Default:     fmt.Sprint(f.Value),
		Description: f.Description,
	})
}

// Default holds every configuration field by key.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(AppID, "io.github.sukerxi.mpvbridge", "Application id used to scope stored preferences")

	register(MpvBinary, "mpv", "mpv executable to launch")
	register(MpvSocket, "", "IPC socket path.\nA temporary path is used when empty")
	register(MpvConfigDir, "", "Directory mpv reads its configuration from.\nmpv's own default when empty")
	register(MpvHwdecCodecs, "h264,hevc,mpeg4,mpeg2video,vp8,vp9,av1", "Codecs allowed to use hardware decoding")
	register(MpvCacheMegabytes, 64, "Forward and backward demuxer cache size in MiB")
	register(MpvStartupTimeout, 5*time.Second, "How long to wait for the IPC socket after launching mpv")

	register(PlayerSeekStep, 10*time.Second, "Fast-forward and rewind step")
	register(PlayerPressSpeed, 2.0, "Playback speed while long pressing")

	register(GestureTouchSlop, 24.0, "Distance in pixels a touch travels before a drag is classified")
	register(GestureDominanceRatio, 2.0, "How much one axis must dominate the other to classify a drag")
	register(GestureExclusionBand, 64.0, "Height in pixels of the top and bottom bands that ignore drags")
	register(GestureFullSwipeRatio, 0.66, "Fraction of the view height a full volume or brightness swing takes")
	register(GestureOverlayTimeout, 250*time.Millisecond, "Delay before the gesture overlay hides")
	register(GestureControlsTimeout, 2500*time.Millisecond, "Delay before playback controls hide after a double tap")
	register(GestureDoubleTapTimeout, 300*time.Millisecond, "Maximum delay between the taps of a double tap")
	register(GestureLongPressTimeout, 500*time.Millisecond, "Hold time that turns a touch into a long press")
	register(GestureZoomThreshold, 0.01, "Scale change a pinch must exceed before toggling zoom")

	register(LogLevel, "info", "Available options are: debug, info, warn, error")
	register(LogFormat, "text", "Log format: text or json")

	register(MetricsAddr, "", "Address to expose prometheus metrics on.\nDisabled when empty")
}
