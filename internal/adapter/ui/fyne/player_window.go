package fyne

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/sukerxi/mpvbridge/internal/adapter/ui/fyne/widgets"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

const (
	APPNAME = "mpvbridge"
	WIDTH   = 960
	HEIGHT  = 540

	sliderResolution   = 1000
	unlockPeekDuration = 2 * time.Second
	noSubtitles        = "Off"
)

// PlayerWindow is the player screen. The video itself is rendered by mpv in
// its own window; this window carries the touch surface, the gesture overlay
// and the playback controller.
//
// PlayerView methods are called from the dispatcher goroutine and hop onto
// the Fyne thread with fyne.Do. The state they report is kept under mu.
type PlayerWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	// UI components
	surface        *widgets.TouchSurface
	overlay        *fyneapp.Container
	overlayIcon    *widget.Icon
	overlayText    *widget.Label
	overlayBar     *widget.ProgressBar
	controller     *fyneapp.Container
	titleLabel     *widget.Label
	playButton     *widget.Button
	rewindButton   *widget.Button
	forwardButton  *widget.Button
	stopButton     *widget.Button
	lockButton     *widget.Button
	unlockButton   *widget.Button
	modeLabel      *widget.Label
	positionLabel  *widget.Label
	durationLabel  *widget.Label
	positionSlider *widget.Slider
	audioSelect    *widget.Select
	subtitleSelect *widget.Select

	mu                sync.RWMutex
	width, height     float64
	controllerVisible bool
	locked            bool
	resizeMode        domain.ResizeMode
	updatingTracks    bool

	closeOnce sync.Once
	presenter *Presenter
}

// NewPlayerWindow creates the player window.
func NewPlayerWindow(app fyneapp.App) *PlayerWindow {
	w := &PlayerWindow{
		app:               app,
		width:             WIDTH,
		height:            HEIGHT,
		controllerVisible: true,
	}

	w.window = app.NewWindow(APPNAME)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(WIDTH, HEIGHT))
	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *PlayerWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

func (w *PlayerWindow) buildUI() {
	background := canvas.NewRectangle(color.Black)
	w.surface = widgets.NewTouchSurface(canvas.NewRectangle(color.Transparent))
	w.surface.OnResize = func(size fyneapp.Size) {
		w.mu.Lock()
		w.width, w.height = float64(size.Width), float64(size.Height)
		w.mu.Unlock()
		if w.presenter != nil {
			w.presenter.OnViewResized(float64(size.Width), float64(size.Height))
		}
	}

	// Gesture overlay
	w.overlayIcon = widget.NewIcon(theme.VolumeUpIcon())
	w.overlayText = widget.NewLabel("")
	w.overlayText.Alignment = fyneapp.TextAlignCenter
	w.overlayBar = widget.NewProgressBar()
	w.overlayBar.TextFormatter = func() string { return "" }
	card := container.NewVBox(container.NewCenter(w.overlayIcon), w.overlayText, w.overlayBar)
	w.overlay = container.NewCenter(container.NewStack(canvas.NewRectangle(color.NRGBA{A: 0xb0}), container.NewPadded(card)))
	w.overlay.Hide()

	// Controller
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.rewindButton = widget.NewButtonWithIcon("", theme.MediaFastRewindIcon(), nil)
	w.forwardButton = widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.lockButton = widget.NewButton("Lock", nil)
	w.modeLabel = widget.NewLabel("Fit")

	w.audioSelect = widget.NewSelect(nil, nil)
	w.audioSelect.PlaceHolder = "Audio"
	w.subtitleSelect = widget.NewSelect(nil, nil)
	w.subtitleSelect.PlaceHolder = "Subtitles"

	w.positionSlider = widget.NewSlider(0, sliderResolution)
	w.positionLabel = widget.NewLabel("0:00")
	w.durationLabel = widget.NewLabel("0:00")
	sliderHolder := container.NewBorder(nil, nil, w.positionLabel, w.durationLabel, w.positionSlider)

	buttons := container.NewHBox(w.rewindButton, w.playButton, w.forwardButton, w.stopButton)
	extras := container.NewHBox(w.audioSelect, w.subtitleSelect, w.modeLabel, w.lockButton)
	w.controller = container.NewVBox(sliderHolder, container.NewBorder(nil, nil, buttons, extras))

	w.titleLabel = widget.NewLabel("")
	w.titleLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.titleLabel.TextStyle = fyneapp.TextStyle{Bold: true}

	w.unlockButton = widget.NewButton("Unlock", nil)
	w.unlockButton.Hide()

	chrome := container.NewBorder(
		container.NewBorder(nil, nil, nil, w.unlockButton, w.titleLabel),
		w.controller,
		nil, nil,
	)

	w.window.SetContent(container.NewStack(background, w.surface, w.overlay, container.NewPadded(chrome)))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

func (w *PlayerWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayPauseClicked
	w.rewindButton.OnTapped = w.presenter.OnRewindClicked
	w.forwardButton.OnTapped = w.presenter.OnForwardClicked
	w.stopButton.OnTapped = w.presenter.OnStopClicked

	w.lockButton.OnTapped = func() { w.setLocked(true) }
	w.unlockButton.OnTapped = func() { w.setLocked(false) }

	w.positionSlider.OnChangeEnded = func(value float64) {
		w.presenter.OnSeekRequested(value / sliderResolution)
	}

	w.audioSelect.OnChanged = func(string) {
		if w.isUpdatingTracks() {
			return
		}
		w.presenter.OnAudioTrackSelected(w.audioSelect.SelectedIndex())
	}
	w.subtitleSelect.OnChanged = func(string) {
		if w.isUpdatingTracks() {
			return
		}
		// the first entry turns subtitles off
		w.presenter.OnSubtitleTrackSelected(w.subtitleSelect.SelectedIndex() - 1)
	}

	w.surface.OnTouch = func(phase widgets.TouchPhase, pos fyneapp.Position) {
		w.presenter.OnTouch(phase, float64(pos.X), float64(pos.Y))
	}
	w.surface.OnScale = w.presenter.OnScale
}

func (w *PlayerWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open", func() {
		w.handleOpenFile()
	})
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", openFile, fyneapp.NewMenuItemSeparator(), exitMenu),
	}
}

func (w *PlayerWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}
	dialog := NewFileDialog(w.window, func(filePath string) {
		w.presenter.OnOpenRequested(filePath)
	}, w.presenter.logger)
	dialog.Show()
}

func (w *PlayerWindow) addShortcuts() {
	c := w.window.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyRight, Modifier: desktop.AltModifier}, func(fyneapp.Shortcut) {
		w.presenter.OnForwardClicked()
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyLeft, Modifier: desktop.AltModifier}, func(fyneapp.Shortcut) {
		w.presenter.OnRewindClicked()
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeySpace, Modifier: desktop.AltModifier}, func(fyneapp.Shortcut) {
		w.presenter.OnPlayPauseClicked()
	})
}

func (w *PlayerWindow) setLocked(locked bool) {
	w.mu.Lock()
	w.locked = locked
	w.mu.Unlock()

	if locked {
		w.controller.Hide()
		w.unlockButton.Show()
	} else {
		w.unlockButton.Hide()
		w.mu.RLock()
		visible := w.controllerVisible
		w.mu.RUnlock()
		if visible {
			w.controller.Show()
		}
	}
}

func (w *PlayerWindow) isUpdatingTracks() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updatingTracks
}

// ShowAndRun shows the window and runs the application.
func (w *PlayerWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// SetOnClosed registers a callback run when the window closes.
func (w *PlayerWindow) SetOnClosed(fn func()) {
	w.window.SetOnClosed(fn)
}

// Close closes the window. It's safe to call multiple times.
func (w *PlayerWindow) Close() {
	w.closeOnce.Do(func() {
		fyneapp.Do(w.window.Close)
	})
}

// GetWindow returns the underlying Fyne window.
func (w *PlayerWindow) GetWindow() fyneapp.Window {
	return w.window
}

// PlayerView interface implementation

// Size returns the touch surface size.
func (w *PlayerWindow) Size() (width, height float64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.width, w.height
}

// IsLandscape reports whether the window is wider than tall.
func (w *PlayerWindow) IsLandscape() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.width >= w.height
}

// ShowOverlay shows the gesture overlay. The level bar is only shown for
// volume and brightness.
func (w *PlayerWindow) ShowOverlay(icon ports.OverlayIcon) {
	fyneapp.Do(func() {
		switch icon {
		case ports.OverlayIconVolume:
			w.overlayIcon.SetResource(theme.VolumeUpIcon())
			w.overlayBar.Show()
		case ports.OverlayIconBrightness:
			w.overlayIcon.SetResource(theme.VisibilityIcon())
			w.overlayBar.Show()
		case ports.OverlayIconSeek:
			w.overlayIcon.SetResource(theme.MediaFastForwardIcon())
			w.overlayBar.Hide()
		default:
			w.overlayIcon.SetResource(nil)
		}
		w.overlay.Show()
	})
}

// HideOverlay hides the gesture overlay.
func (w *PlayerWindow) HideOverlay() {
	fyneapp.Do(func() {
		w.overlay.Hide()
		w.overlayText.SetText("")
	})
}

// SetOverlayText sets the overlay label.
func (w *PlayerWindow) SetOverlayText(text string) {
	fyneapp.Do(func() {
		w.overlayText.SetText(text)
	})
}

// SetOverlayProgress sets the overlay level bar.
func (w *PlayerWindow) SetOverlayProgress(value, maxValue int) {
	fyneapp.Do(func() {
		w.overlayBar.Max = float64(max(maxValue, 1))
		w.overlayBar.SetValue(float64(value))
		w.overlayText.SetText(fmt.Sprintf("%d", value))
	})
}

// ControllerVisible reports whether the controller is shown.
func (w *PlayerWindow) ControllerVisible() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.controllerVisible
}

// ShowController shows the playback controls.
func (w *PlayerWindow) ShowController() {
	w.mu.Lock()
	w.controllerVisible = true
	locked := w.locked
	w.mu.Unlock()

	if locked {
		return
	}
	fyneapp.Do(w.controller.Show)
}

// HideController hides the playback controls.
func (w *PlayerWindow) HideController() {
	w.mu.Lock()
	w.controllerVisible = false
	w.mu.Unlock()

	fyneapp.Do(w.controller.Hide)
}

// ControlsLocked reports whether the controls are locked.
func (w *PlayerWindow) ControlsLocked() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.locked
}

// PeekUnlockButton shows the unlock button for a moment.
func (w *PlayerWindow) PeekUnlockButton() {
	fyneapp.Do(w.unlockButton.Show)
	time.AfterFunc(unlockPeekDuration, func() {
		if w.ControlsLocked() {
			return
		}
		fyneapp.Do(w.unlockButton.Hide)
	})
}

// SetResizeMode records the resize mode and shows it in the controller.
func (w *PlayerWindow) SetResizeMode(mode domain.ResizeMode) {
	w.mu.Lock()
	w.resizeMode = mode
	w.mu.Unlock()

	label := "Fit"
	if mode == domain.ResizeModeZoom {
		label = "Zoom"
	}
	fyneapp.Do(func() {
		w.modeLabel.SetText(label)
	})
}

// ResizeMode returns the last resize mode set.
func (w *PlayerWindow) ResizeMode() domain.ResizeMode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.resizeMode
}

// PlayerScreen interface implementation

// SetTitle shows the media title.
func (w *PlayerWindow) SetTitle(title string) {
	fyneapp.Do(func() {
		w.titleLabel.SetText(title)
		w.window.SetTitle(fmt.Sprintf("%s - %s", title, APPNAME))
	})
}

// SetPlaying switches the play button icon.
func (w *PlayerWindow) SetPlaying(playing bool) {
	icon := theme.MediaPlayIcon()
	if playing {
		icon = theme.MediaPauseIcon()
	}
	fyneapp.Do(func() {
		w.playButton.SetIcon(icon)
	})
}

// SetProgress updates the position slider and time labels.
func (w *PlayerWindow) SetProgress(position, duration time.Duration) {
	fyneapp.Do(func() {
		w.positionLabel.SetText(FormatDuration(position))
		w.durationLabel.SetText(FormatDuration(duration))
		if duration > 0 {
			w.positionSlider.Value = float64(position) / float64(duration) * sliderResolution
			w.positionSlider.Refresh()
		}
	})
}

// SetTrackOptions replaces the audio and subtitle choices. The subtitle list
// gets an "Off" entry in front. A negative selection selects nothing.
func (w *PlayerWindow) SetTrackOptions(audio, subtitles []string, audioSelected, subtitleSelected int) {
	fyneapp.Do(func() {
		w.mu.Lock()
		w.updatingTracks = true
		w.mu.Unlock()
		defer func() {
			w.mu.Lock()
			w.updatingTracks = false
			w.mu.Unlock()
		}()

		w.audioSelect.SetOptions(audio)
		if audioSelected >= 0 {
			w.audioSelect.SetSelectedIndex(audioSelected)
		} else {
			w.audioSelect.ClearSelected()
		}

		w.subtitleSelect.SetOptions(append([]string{noSubtitles}, subtitles...))
		w.subtitleSelect.SetSelectedIndex(subtitleSelected + 1)
	})
}

// ShowError displays a notification.
func (w *PlayerWindow) ShowError(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

// FormatDuration renders d as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	total := int64(max(d, 0) / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Verify interface implementations
var _ ports.PlayerView = (*PlayerWindow)(nil)
var _ PlayerScreen = (*PlayerWindow)(nil)
