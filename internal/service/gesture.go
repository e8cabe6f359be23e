package service

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sukerxi/mpvbridge/internal/config"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/metrics"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// TouchAction is the phase of a raw touch event.
type TouchAction int

const (
	TouchDown TouchAction = iota
	TouchMove
	TouchUp
	TouchCancel
)

// TouchEvent is one raw pointer event in view coordinates.
type TouchEvent struct {
	Action   TouchAction
	X, Y     float64
	Pointers int
}

// GestureAxis is the direction a drag was classified into.
type GestureAxis int

const (
	AxisNone GestureAxis = iota
	AxisVertical
	AxisHorizontal
)

// String returns a human-readable representation of the axis.
func (a GestureAxis) String() string {
	switch a {
	case AxisVertical:
		return "vertical"
	case AxisHorizontal:
		return "horizontal"
	default:
		return "none"
	}
}

// GestureState is the state of the current touch sequence.
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureClassifying
	GestureVertical
	GestureHorizontal
	GestureExcluded
)

// GestureSession is the transient state of one touch sequence.
type GestureSession struct {
	Active        bool
	StartX        float64
	StartY        float64
	StartPosition int64 // playback position at touch-down, ms
	Axis          GestureAxis
	Excluded      bool
	Tracker       float64 // volume or brightness base, -1 until the first move
	PendingSeek   int64   // tentative seek target, ms; -1 when none
}

func newSession() GestureSession {
	return GestureSession{Tracker: -1, PendingSeek: -1, StartPosition: -1}
}

// State derives the state machine position from the session.
func (s GestureSession) State() GestureState {
	switch {
	case !s.Active:
		return GestureIdle
	case s.Excluded:
		return GestureExcluded
	case s.Axis == AxisVertical:
		return GestureVertical
	case s.Axis == AxisHorizontal:
		return GestureHorizontal
	default:
		return GestureClassifying
	}
}

// Classify decides the axis of a drag displaced by (dx, dy). Drags within slop,
// and drags where neither axis dominates the other by ratio, stay unclassified.
func Classify(dx, dy, slop, ratio float64) GestureAxis {
	if math.Hypot(dx, dy) <= slop {
		return AxisNone
	}
	switch {
	case math.Abs(dy) > math.Abs(dx)*ratio:
		return AxisVertical
	case math.Abs(dx) > math.Abs(dy)*ratio:
		return AxisHorizontal
	default:
		return AxisNone
	}
}

// GesturePreferences are the persisted settings the interpreter consults.
type GesturePreferences interface {
	SwipeGesturesEnabled() bool
	PressSpeedUpEnabled() bool
	RememberBrightness() bool
	Brightness() float64
	SetBrightness(value float64) error
}

// GestureDeps groups the collaborators of the gesture interpreter.
type GestureDeps struct {
	View       ports.PlayerView
	Actions    ports.PlaybackActions
	Audio      ports.AudioOutput
	Brightness ports.Brightness
	Prefs      GesturePreferences
	Dispatcher ports.Dispatcher
	Bus        ports.EventBus
}

// GestureInterpreter turns touch sequences into taps, seeks and volume or
// brightness changes. Every method must be called on the dispatcher context;
// its timers are posted there too.
type GestureInterpreter struct {
	logger *slog.Logger
	deps   GestureDeps
	cfg    config.GestureConfig

	session GestureSession

	// tap detection
	downX, downY    float64
	tapCandidate    bool
	longPressed     bool
	inDoubleTap     bool
	cancelLongPress ports.CancelFunc
	cancelSingleTap ports.CancelFunc

	pressingSpeedUp bool
	zoomEnabled     bool

	cancelOverlayHide    ports.CancelFunc
	cancelControllerHide ports.CancelFunc
}

// NewGestureInterpreter creates an interpreter and restores the remembered
// brightness when that preference is on.
func NewGestureInterpreter(logger *slog.Logger, deps GestureDeps, cfg config.GestureConfig) *GestureInterpreter {
	g := &GestureInterpreter{
		logger:  logger.With(slog.String("service", "gesture")),
		deps:    deps,
		cfg:     cfg,
		session: newSession(),
	}

	if deps.Prefs.RememberBrightness() {
		if b := deps.Prefs.Brightness(); b >= 0 && b <= 1 {
			deps.Brightness.SetWindowBrightness(b)
		}
	}
	return g
}

// Session returns a copy of the current touch sequence state.
func (g *GestureInterpreter) Session() GestureSession {
	return g.session
}

// ZoomEnabled reports whether the last pinch asked for zoomed video.
func (g *GestureInterpreter) ZoomEnabled() bool {
	return g.zoomEnabled
}

// OnTouch feeds one raw touch event.
func (g *GestureInterpreter) OnTouch(ev TouchEvent) {
	if ev.Pointers > 1 {
		// multi-touch belongs to the scale detector
		g.stopLongPressTimer()
		g.tapCandidate = false
	} else {
		g.detectTaps(ev)
		if !g.deps.View.ControlsLocked() {
			g.onDrag(ev)
		}
	}

	if ev.Action == TouchUp || ev.Action == TouchCancel {
		if g.pressingSpeedUp {
			g.pressingSpeedUp = false
			g.deps.Actions.PressSpeedUp(false)
		}
		g.scheduleOverlayHide()
	}
}

// detectTaps recognizes single taps, double taps and long presses.
func (g *GestureInterpreter) detectTaps(ev TouchEvent) {
	switch ev.Action {
	case TouchDown:
		g.downX, g.downY = ev.X, ev.Y
		g.tapCandidate = true
		g.longPressed = false
		g.inDoubleTap = false

		if g.cancelSingleTap != nil {
			// second tap arrived before the first was confirmed
			g.cancelSingleTap()
			g.cancelSingleTap = nil
			g.inDoubleTap = true
			g.DoubleTap(ev.X)
			return
		}

		g.stopLongPressTimer()
		g.cancelLongPress = g.deps.Dispatcher.PostDelayed(g.cfg.LongPressTimeout, func() {
			g.cancelLongPress = nil
			if g.tapCandidate {
				g.longPressed = true
				g.tapCandidate = false
				g.LongPress()
			}
		})

	case TouchMove:
		if g.tapCandidate && math.Hypot(ev.X-g.downX, ev.Y-g.downY) > g.cfg.TouchSlop {
			g.tapCandidate = false
			g.stopLongPressTimer()
		}

	case TouchUp:
		g.stopLongPressTimer()
		if g.tapCandidate && !g.longPressed && !g.inDoubleTap {
			g.cancelSingleTap = g.deps.Dispatcher.PostDelayed(g.cfg.DoubleTapTimeout, func() {
				g.cancelSingleTap = nil
				g.SingleTapConfirmed()
			})
		}
		g.tapCandidate = false

	case TouchCancel:
		g.stopLongPressTimer()
		g.tapCandidate = false
	}
}

func (g *GestureInterpreter) stopLongPressTimer() {
	if g.cancelLongPress != nil {
		g.cancelLongPress()
		g.cancelLongPress = nil
	}
}

// onDrag drives the per-sequence drag state machine.
func (g *GestureInterpreter) onDrag(ev TouchEvent) {
	switch ev.Action {
	case TouchDown:
		g.session = newSession()
		width, height := g.deps.View.Size()
		if width <= 0 || height <= 0 {
			// not laid out yet
			return
		}
		g.session.Active = true
		g.session.StartX, g.session.StartY = ev.X, ev.Y
		g.session.StartPosition = g.deps.Actions.Position()

		band := g.cfg.ExclusionBand
		if ev.Y < band || ev.Y > height-band {
			g.session.Excluded = true
		}

	case TouchMove:
		if !g.session.Active || g.session.Excluded || !g.deps.Prefs.SwipeGesturesEnabled() {
			return
		}

		dx := ev.X - g.session.StartX
		dy := g.session.StartY - ev.Y

		if g.session.Axis == AxisNone {
			g.session.Axis = Classify(dx, dy, g.cfg.TouchSlop, g.cfg.DominanceRatio)
		}

		switch g.session.Axis {
		case AxisVertical:
			g.handleVertical(dy)
		case AxisHorizontal:
			g.handleSeek(dx)
		}

	case TouchUp, TouchCancel:
		if !g.session.Active {
			return
		}
		if g.session.Axis == AxisHorizontal && !g.session.Excluded && g.session.PendingSeek >= 0 {
			g.commitSeek(g.session.PendingSeek)
		}
		metrics.GestureSessionsTotal.WithLabelValues(g.session.Axis.String()).Inc()
		g.session = newSession()
	}
}

// handleVertical adjusts volume on the right half and brightness on the left.
func (g *GestureInterpreter) handleVertical(dy float64) {
	width, height := g.deps.View.Size()
	if width <= 0 || height <= 0 {
		return
	}
	ratio := dy / (height * g.cfg.FullSwipeRatio)

	if g.session.StartX > width/2 {
		g.adjustVolume(ratio)
	} else {
		g.adjustBrightness(ratio)
	}
}

func (g *GestureInterpreter) adjustVolume(ratio float64) {
	audio := g.deps.Audio
	if g.session.Tracker < 0 {
		g.session.Tracker = float64(audio.Volume())
	}

	maxVolume := audio.MaxVolume()
	target := int(clamp(g.session.Tracker+ratio*float64(maxVolume), 0, float64(maxVolume)))
	audio.SetVolume(target)

	g.deps.View.ShowOverlay(ports.OverlayIconVolume)
	g.deps.View.SetOverlayProgress(target, maxVolume)
	g.deps.Bus.Publish(domain.NewVolumeGestureEvent(target, maxVolume))
}

func (g *GestureInterpreter) adjustBrightness(ratio float64) {
	if g.session.Tracker < 0 {
		g.session.Tracker = g.currentBrightness()
	}

	target := clamp(g.session.Tracker+ratio, 0, 1)
	g.deps.Brightness.SetWindowBrightness(target)
	if g.deps.Prefs.RememberBrightness() {
		if err := g.deps.Prefs.SetBrightness(target); err != nil {
			g.logger.Warn("failed to remember brightness", slog.Any("error", err))
		}
	}

	g.deps.View.ShowOverlay(ports.OverlayIconBrightness)
	g.deps.View.SetOverlayProgress(int(target*100), 100)
	g.deps.Bus.Publish(domain.NewBrightnessGestureEvent(target))
}

// currentBrightness seeds the brightness tracker from the window override,
// or from the system brightness when no override is set.
func (g *GestureInterpreter) currentBrightness() float64 {
	if b := g.deps.Brightness.WindowBrightness(); b >= 0 && b <= 1 {
		return b
	}
	return clamp(float64(g.deps.Brightness.SystemBrightness())/255, 0, 1)
}

// handleSeek updates the tentative seek target without touching the engine.
func (g *GestureInterpreter) handleSeek(dx float64) {
	duration := g.deps.Actions.Duration()
	width, _ := g.deps.View.Size()
	if duration <= 0 || width <= 0 {
		return
	}

	deltaMs := int64(dx / width * float64(duration))
	start := max(g.session.StartPosition, 0)
	target := min(max(start+deltaMs, 0), duration)
	g.session.PendingSeek = target

	g.deps.View.ShowOverlay(ports.OverlayIconSeek)
	g.deps.View.SetOverlayText(fmt.Sprintf("%s / %s", formatSignedPosition(deltaMs), formatPosition(target)))
	g.deps.View.SetOverlayProgress(int(target*100/duration), 100)
}

func (g *GestureInterpreter) commitSeek(target int64) {
	g.deps.Actions.SeekTo(target)
	metrics.SeekCommitsTotal.Inc()
	g.deps.Bus.Publish(domain.NewSeekCommittedEvent(time.Duration(target) * time.Millisecond))
	g.logger.Debug("seek committed", slog.Int64("position_ms", target))
}

// scheduleOverlayHide hides the overlay after the overlay timeout, replacing
// any hide already scheduled.
func (g *GestureInterpreter) scheduleOverlayHide() {
	if g.cancelOverlayHide != nil {
		g.cancelOverlayHide()
	}
	g.cancelOverlayHide = g.deps.Dispatcher.PostDelayed(g.cfg.OverlayTimeout, func() {
		g.cancelOverlayHide = nil
		g.deps.View.HideOverlay()
	})
}

// DoubleTap fast-forwards on the right half of the view and rewinds on the
// left, then restarts the controller auto-hide.
func (g *GestureInterpreter) DoubleTap(x float64) {
	if g.deps.View.ControlsLocked() {
		return
	}

	width, _ := g.deps.View.Size()
	if width <= 0 {
		return
	}
	if x > width/2 {
		g.deps.Actions.FastForward()
	} else {
		g.deps.Actions.Rewind()
	}

	if g.cancelControllerHide != nil {
		g.cancelControllerHide()
	}
	g.cancelControllerHide = g.deps.Dispatcher.PostDelayed(g.cfg.ControlsTimeout, func() {
		g.cancelControllerHide = nil
		g.deps.View.HideController()
	})
}

// SingleTapConfirmed toggles the controller, or peeks the unlock button while
// controls are locked.
func (g *GestureInterpreter) SingleTapConfirmed() {
	view := g.deps.View
	switch {
	case view.ControlsLocked():
		view.PeekUnlockButton()
	case view.ControllerVisible():
		view.HideController()
	default:
		view.ShowController()
	}
}

// LongPress starts fast playback until the finger is lifted, if allowed.
func (g *GestureInterpreter) LongPress() {
	if g.deps.View.ControlsLocked() || !g.deps.Prefs.PressSpeedUpEnabled() {
		return
	}
	g.pressingSpeedUp = true
	g.deps.Actions.PressSpeedUp(true)
}

// OnScale handles a pinch scale factor. Only landscape pinches count, and
// factors within the zoom threshold of 1 are ignored.
func (g *GestureInterpreter) OnScale(factor float64) {
	if g.deps.View.ControlsLocked() || !g.deps.View.IsLandscape() {
		return
	}
	if math.Abs(factor-1) <= g.cfg.ZoomThreshold {
		return
	}
	g.zoomEnabled = factor > 1
	g.updateZoomMode(g.zoomEnabled)
}

// HandleConfiguration re-evaluates the resize mode after an orientation change.
func (g *GestureInterpreter) HandleConfiguration(landscape bool) {
	g.updateZoomMode(landscape && g.zoomEnabled)
}

func (g *GestureInterpreter) updateZoomMode(zoom bool) {
	mode := domain.ResizeModeFit
	if zoom {
		mode = domain.ResizeModeZoom
	}
	g.deps.View.SetResizeMode(mode)
	g.deps.Bus.Publish(domain.NewZoomModeChangedEvent(mode))
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

// formatPosition renders milliseconds as m:ss or h:mm:ss.
func formatPosition(ms int64) string {
	total := ms / 1000
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatSignedPosition(ms int64) string {
	if ms < 0 {
		return "-" + formatPosition(-ms)
	}
	return "+" + formatPosition(ms)
}
