package config

// Configuration keys.
const (
	AppID = "app.id"

	MpvBinary         = "mpv.binary"
	MpvSocket         = "mpv.socket"
	MpvConfigDir      = "mpv.config_dir"
	MpvHwdecCodecs    = "mpv.hwdec_codecs"
	MpvCacheMegabytes = "mpv.cache_megabytes"
	MpvStartupTimeout = "mpv.startup_timeout"

	PlayerSeekStep   = "player.seek_step"
	PlayerPressSpeed = "player.press_speed"

	GestureTouchSlop        = "gesture.touch_slop"
	GestureDominanceRatio   = "gesture.dominance_ratio"
	GestureExclusionBand    = "gesture.exclusion_band"
	GestureFullSwipeRatio   = "gesture.full_swipe_ratio"
	GestureOverlayTimeout   = "gesture.overlay_timeout"
	GestureControlsTimeout  = "gesture.controls_timeout"
	GestureDoubleTapTimeout = "gesture.double_tap_timeout"
	GestureLongPressTimeout = "gesture.long_press_timeout"
	GestureZoomThreshold    = "gesture.zoom_threshold"

	LogLevel  = "log.level"
	LogFormat = "log.format"

	MetricsAddr = "metrics.addr"
)
