package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, fs afero.Fs, dir string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Setup(fs, dir))
}

func TestSetupDefaults(t *testing.T) {
	setup(t, afero.NewMemMapFs(), "/config")

	for name, field := range Default {
		assert.NotNil(t, viper.Get(name), name)
		assert.NotEmpty(t, field.Description, name)
	}

	assert.Equal(t, DefaultGesture(), Gesture())
	assert.Equal(t, PlayerConfig{SeekStep: 10 * time.Second, PressSpeed: 2.0}, Player())

	mpv := Mpv()
	assert.Equal(t, "mpv", mpv.Binary)
	assert.Equal(t, 64, mpv.CacheMegabytes)
	assert.Equal(t, 5*time.Second, mpv.StartupTimeout)
}

func TestSetupReadsConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/home/user/.config/mpvbridge"
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "mpvbridge.toml"), []byte(`
[gesture]
touch_slop = 10.0
dominance_ratio = 3.0
overlay_timeout = "400ms"

[mpv]
binary = "/usr/local/bin/mpv"
cache_megabytes = 128

[log]
level = "debug"
format = "json"
`), 0o644))

	setup(t, fs, dir)

	g := Gesture()
	assert.InDelta(t, 10.0, g.TouchSlop, 0.0001)
	assert.InDelta(t, 3.0, g.DominanceRatio, 0.0001)
	assert.Equal(t, 400*time.Millisecond, g.OverlayTimeout)
	assert.Equal(t, DefaultGesture().ExclusionBand, g.ExclusionBand)

	assert.Equal(t, "/usr/local/bin/mpv", Mpv().Binary)
	assert.Equal(t, 128, Mpv().CacheMegabytes)

	lc := Logger()
	assert.Equal(t, slog.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestSetupEnvOverrides(t *testing.T) {
	t.Setenv("MPVBRIDGE_PLAYER_SEEK_STEP", "30s")
	t.Setenv("MPVBRIDGE_GESTURE_ZOOM_THRESHOLD", "0.2")

	setup(t, afero.NewMemMapFs(), "")

	assert.Equal(t, 30*time.Second, Player().SeekStep)
	assert.InDelta(t, 0.2, Gesture().ZoomThreshold, 0.0001)
}

func TestSetupRejectsBrokenFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/mpvbridge.toml", []byte("[gesture\n"), 0o644))

	viper.Reset()
	t.Cleanup(viper.Reset)
	assert.Error(t, Setup(fs, "/cfg"))
}

func TestFieldEnv(t *testing.T) {
	f := Default[GestureTouchSlop]
	assert.Equal(t, "MPVBRIDGE_GESTURE_TOUCH_SLOP", f.Env())
	assert.Equal(t, "metrics_addr", EnvKeyReplacer.Replace(MetricsAddr))
}
