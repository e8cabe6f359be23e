// Package widgets provides custom Fyne widgets for the player window.
package widgets

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// scrollPerZoomStep is the scroll distance that counts as doubling the pinch.
const scrollPerZoomStep = 200.0

// TouchPhase is the phase of a pointer event reported by TouchSurface.
type TouchPhase int

const (
	TouchPhaseDown TouchPhase = iota
	TouchPhaseMove
	TouchPhaseUp
	TouchPhaseCancel
)

// TouchSurface wraps content and reports raw pointer sequences: touches on
// mobile, primary mouse button presses and drags on the desktop. Scroll
// wheel movement is reported as a pinch scale factor.
//
// Callbacks run on the Fyne event goroutine.
type TouchSurface struct {
	widget.BaseWidget

	content fyne.CanvasObject

	OnTouch  func(phase TouchPhase, pos fyne.Position)
	OnScale  func(factor float64)
	OnResize func(size fyne.Size)

	mu      sync.Mutex
	pressed bool
	last    fyne.Position
}

// NewTouchSurface creates a surface over content.
func NewTouchSurface(content fyne.CanvasObject) *TouchSurface {
	t := &TouchSurface{content: content}
	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget.
func (t *TouchSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

// Resize reports the new size before laying out the content.
func (t *TouchSurface) Resize(size fyne.Size) {
	t.BaseWidget.Resize(size)
	if t.OnResize != nil {
		t.OnResize(size)
	}
}

func (t *TouchSurface) emit(phase TouchPhase, pos fyne.Position) {
	t.mu.Lock()
	switch phase {
	case TouchPhaseDown:
		if t.pressed {
			t.mu.Unlock()
			return
		}
		t.pressed = true
	case TouchPhaseMove:
		if !t.pressed {
			t.mu.Unlock()
			return
		}
	case TouchPhaseUp, TouchPhaseCancel:
		// a drag ends with both DragEnd and MouseUp
		if !t.pressed {
			t.mu.Unlock()
			return
		}
		t.pressed = false
	}
	t.last = pos
	t.mu.Unlock()

	if t.OnTouch != nil {
		t.OnTouch(phase, pos)
	}
}

// MouseDown implements desktop.Mouseable.
func (t *TouchSurface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	t.emit(TouchPhaseDown, ev.Position)
}

// MouseUp implements desktop.Mouseable.
func (t *TouchSurface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	t.emit(TouchPhaseUp, ev.Position)
}

// TouchDown implements mobile.Touchable.
func (t *TouchSurface) TouchDown(ev *mobile.TouchEvent) {
	t.emit(TouchPhaseDown, ev.Position)
}

// TouchUp implements mobile.Touchable.
func (t *TouchSurface) TouchUp(ev *mobile.TouchEvent) {
	t.emit(TouchPhaseUp, ev.Position)
}

// TouchCancel implements mobile.Touchable.
func (t *TouchSurface) TouchCancel(ev *mobile.TouchEvent) {
	t.emit(TouchPhaseCancel, ev.Position)
}

// Dragged implements fyne.Draggable.
func (t *TouchSurface) Dragged(ev *fyne.DragEvent) {
	t.emit(TouchPhaseMove, ev.Position)
}

// DragEnd implements fyne.Draggable. Fyne does not report the release
// position, so the last known one is used.
func (t *TouchSurface) DragEnd() {
	t.mu.Lock()
	last := t.last
	t.mu.Unlock()
	t.emit(TouchPhaseUp, last)
}

// Scrolled implements fyne.Scrollable.
func (t *TouchSurface) Scrolled(ev *fyne.ScrollEvent) {
	if t.OnScale == nil || ev.Scrolled.DY == 0 {
		return
	}
	t.OnScale(1 + float64(ev.Scrolled.DY)/scrollPerZoomStep)
}

// SetContent replaces the wrapped content.
func (t *TouchSurface) SetContent(content fyne.CanvasObject) {
	t.content = content
	t.Refresh()
}

// Ensure TouchSurface implements the required interfaces
var _ desktop.Mouseable = (*TouchSurface)(nil)
var _ mobile.Touchable = (*TouchSurface)(nil)
var _ fyne.Draggable = (*TouchSurface)(nil)
var _ fyne.Scrollable = (*TouchSurface)(nil)
