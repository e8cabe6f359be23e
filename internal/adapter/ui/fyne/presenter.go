// Package fyne provides the Fyne player window and its presenter.
package fyne

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/sukerxi/mpvbridge/internal/adapter/ui/fyne/widgets"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
	"github.com/sukerxi/mpvbridge/internal/service"
)

const resolveTimeout = 10 * time.Second

// PlayerScreen is the part of the player window the presenter drives.
// The actual UI implementation (PlayerWindow) must implement this interface.
type PlayerScreen interface {
	SetTitle(title string)
	SetPlaying(playing bool)
	SetProgress(position, duration time.Duration)

	// SetTrackOptions replaces the track choices; subtitleSelected is -1 when
	// subtitles are off.
	SetTrackOptions(audio, subtitles []string, audioSelected, subtitleSelected int)

	ShowError(title, message string)
}

// PresenterDeps groups the presenter's collaborators.
type PresenterDeps struct {
	Player     *service.PlayerService
	Gestures   *service.GestureInterpreter
	Prefs      *service.PreferenceService
	Resolver   ports.MediaSourceResolver
	Dispatcher ports.Dispatcher
	Bus        ports.EventBus
}

// Presenter connects the player window to the services (MVP).
//
// UI callbacks arrive on the Fyne goroutine and are posted to the dispatcher,
// where the bridge and the gesture interpreter live. Bus events arrive on
// the dispatcher and are forwarded to the screen.
type Presenter struct {
	logger *slog.Logger
	deps   PresenterDeps
	view   PlayerScreen

	subscriptions []domain.SubscriptionID

	mu              sync.Mutex
	audioIndexes    []int // choice -> index in the full track list
	subtitleIndexes []int
	landscape       bool

	progressTicker *time.Ticker
	stopProgress   chan struct{}
	wg             sync.WaitGroup
	shutdownOnce   sync.Once
}

// NewPresenter creates a presenter and subscribes it to the bus.
func NewPresenter(logger *slog.Logger, deps PresenterDeps, view PlayerScreen) *Presenter {
	p := &Presenter{
		logger:       logger.With(slog.String("component", "presenter")),
		deps:         deps,
		view:         view,
		landscape:    true,
		stopProgress: make(chan struct{}),
	}
	p.subscribeToEvents()
	return p
}

func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventPlayerStateChanged: p.onPlayerStateChanged,
		domain.EventTracksChanged:      p.onTracksChanged,
		domain.EventMediaLoadRequested: p.onMediaLoadRequested,
		domain.EventDecoderChanged:     p.onDecoderChanged,
	}
	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.deps.Bus.Subscribe(eventType, handler))
	}
}

// Event handlers

func (p *Presenter) onPlayerStateChanged(event domain.Event) {
	e, ok := event.(domain.PlayerStateChangedEvent)
	if !ok {
		return
	}
	p.view.SetPlaying(e.State.PlayWhenReady && e.State.Phase != domain.PhaseEnded)
	p.view.SetProgress(e.State.Position(), e.State.Duration)
}

func (p *Presenter) onTracksChanged(event domain.Event) {
	e, ok := event.(domain.TracksChangedEvent)
	if !ok {
		return
	}

	var (
		audioLabels, subtitleLabels   []string
		audioIndexes, subtitleIndexes []int
		audioSelected                 = -1
		subtitleSelected              = -1
	)
	for i, track := range e.Tracks {
		switch track.Type {
		case domain.TrackTypeAudio:
			if track.Selected {
				audioSelected = len(audioLabels)
			}
			audioLabels = append(audioLabels, TrackLabel(track))
			audioIndexes = append(audioIndexes, i)
		case domain.TrackTypeSubtitle:
			if track.Selected {
				subtitleSelected = len(subtitleLabels)
			}
			subtitleLabels = append(subtitleLabels, TrackLabel(track))
			subtitleIndexes = append(subtitleIndexes, i)
		}
	}

	p.mu.Lock()
	p.audioIndexes = audioIndexes
	p.subtitleIndexes = subtitleIndexes
	p.mu.Unlock()

	p.view.SetTrackOptions(audioLabels, subtitleLabels, audioSelected, subtitleSelected)
}

func (p *Presenter) onMediaLoadRequested(event domain.Event) {
	e, ok := event.(domain.MediaLoadRequestedEvent)
	if !ok {
		return
	}
	p.view.SetTitle(e.Item.Title)
	p.view.SetProgress(e.Start, 0)
}

func (p *Presenter) onDecoderChanged(event domain.Event) {
	if e, ok := event.(domain.DecoderChangedEvent); ok {
		p.logger.Info("video decoder changed", slog.String("decoder", e.Decoder.String()))
	}
}

// TrackLabel renders a track for a selection list.
func TrackLabel(track domain.MediaTrack) string {
	parts := lo.Compact([]string{track.Title, track.Language, track.Codec})
	label := strings.Join(parts, " / ")
	if label == "" {
		label = fmt.Sprintf("Track %d", track.ID)
	}
	if track.External {
		label += " (external)"
	}
	return label
}

// Progress

// StartProgressUpdates refreshes the position display every interval.
func (p *Presenter) StartProgressUpdates(interval time.Duration) {
	p.progressTicker = time.NewTicker(interval)
	p.wg.Go(func() {
		for {
			select {
			case <-p.progressTicker.C:
				p.deps.Dispatcher.Post(p.updateProgress)
			case <-p.stopProgress:
				return
			}
		}
	})
}

func (p *Presenter) updateProgress() {
	state := p.deps.Player.Snapshot()
	if state.Phase == domain.PhaseIdle {
		return
	}
	p.view.SetProgress(state.Position(), state.Duration)
}

// UI commands

// OnPlayPauseClicked toggles play-when-ready.
func (p *Presenter) OnPlayPauseClicked() {
	p.deps.Dispatcher.Post(func() {
		state := p.deps.Player.Snapshot()
		p.deps.Player.SetPlayWhenReady(!state.PlayWhenReady)
	})
}

// OnForwardClicked skips ahead.
func (p *Presenter) OnForwardClicked() {
	p.deps.Dispatcher.Post(p.deps.Player.FastForward)
}

// OnRewindClicked skips back.
func (p *Presenter) OnRewindClicked() {
	p.deps.Dispatcher.Post(p.deps.Player.Rewind)
}

// OnStopClicked stops playback.
func (p *Presenter) OnStopClicked() {
	p.deps.Dispatcher.Post(p.deps.Player.Stop)
}

// OnSeekRequested seeks to a fraction of the duration.
func (p *Presenter) OnSeekRequested(fraction float64) {
	fraction = min(max(fraction, 0), 1)
	p.deps.Dispatcher.Post(func() {
		duration := p.deps.Player.Duration()
		if duration <= 0 {
			return
		}
		p.deps.Player.SeekTo(int64(fraction * float64(duration)))
	})
}

// OnAudioTrackSelected selects the choice-th audio track.
func (p *Presenter) OnAudioTrackSelected(choice int) {
	if choice < 0 {
		return
	}
	p.mu.Lock()
	index, err := lo.Nth(p.audioIndexes, choice)
	p.mu.Unlock()
	if err != nil {
		return
	}
	p.deps.Dispatcher.Post(func() {
		p.deps.Player.SelectAudioTrack(index)
	})
}

// OnSubtitleTrackSelected selects the choice-th subtitle track, or turns
// subtitles off for a negative choice.
func (p *Presenter) OnSubtitleTrackSelected(choice int) {
	if choice < 0 {
		p.deps.Dispatcher.Post(p.deps.Player.DisableSubtitles)
		return
	}

	p.mu.Lock()
	index, err := lo.Nth(p.subtitleIndexes, choice)
	p.mu.Unlock()
	if err != nil {
		return
	}
	p.deps.Dispatcher.Post(func() {
		p.deps.Player.SelectSubtitleTrack(index, domain.SubtitleDeliveryEmbed)
	})
}

// OnOpenRequested resolves and loads ref in the background, reporting
// failures on the screen.
func (p *Presenter) OnOpenRequested(ref string) {
	p.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		if err := p.Open(ctx, ref, 0); err != nil {
			p.logger.Warn("open failed", slog.String("ref", ref), slog.Any("error", err))
			p.view.ShowError("Cannot open media", err.Error())
		}
	})
}

// Open resolves ref and loads it, starting at start.
func (p *Presenter) Open(ctx context.Context, ref string, start time.Duration) error {
	item, err := p.deps.Resolver.Resolve(ctx, ref)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", ref, err)
	}

	opts := service.LoadOptions{EmbeddedFonts: p.deps.Prefs.EmbeddedFonts()}
	p.deps.Dispatcher.Post(func() {
		p.deps.Player.LoadMedia(item, start, opts)
		p.deps.Player.SetPlayWhenReady(true)
	})
	return nil
}

// Gestures

// OnTouch forwards one pointer event to the gesture interpreter.
func (p *Presenter) OnTouch(phase widgets.TouchPhase, x, y float64) {
	ev := service.TouchEvent{X: x, Y: y, Pointers: 1}
	switch phase {
	case widgets.TouchPhaseDown:
		ev.Action = service.TouchDown
	case widgets.TouchPhaseMove:
		ev.Action = service.TouchMove
	case widgets.TouchPhaseUp:
		ev.Action = service.TouchUp
	default:
		ev.Action = service.TouchCancel
	}
	p.deps.Dispatcher.Post(func() {
		p.deps.Gestures.OnTouch(ev)
	})
}

// OnScale forwards a pinch factor to the gesture interpreter.
func (p *Presenter) OnScale(factor float64) {
	p.deps.Dispatcher.Post(func() {
		p.deps.Gestures.OnScale(factor)
	})
}

// OnViewResized re-evaluates the zoom mode when the orientation flips.
func (p *Presenter) OnViewResized(width, height float64) {
	landscape := width >= height

	p.mu.Lock()
	changed := landscape != p.landscape
	p.landscape = landscape
	p.mu.Unlock()

	if !changed {
		return
	}
	p.deps.Dispatcher.Post(func() {
		p.deps.Gestures.HandleConfiguration(landscape)
	})
}

// Shutdown stops progress updates, unsubscribes and waits for pending opens.
// It's safe to call multiple times.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		if p.progressTicker != nil {
			p.progressTicker.Stop()
		}
		close(p.stopProgress)

		for _, id := range p.subscriptions {
			p.deps.Bus.Unsubscribe(id)
		}
		p.wg.Wait()
	})
}
