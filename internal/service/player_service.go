package service

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/metrics"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// availableCommands is the static command set every snapshot advertises.
var availableCommands = domain.NewCommandSet(
	domain.CommandPlayPause,
	domain.CommandStop,
	domain.CommandSetSpeed,
	domain.CommandGetCurrentMediaItem,
	domain.CommandGetTimeline,
	domain.CommandGetMetadata,
	domain.CommandSetMediaItem,
	domain.CommandGetTracks,
	domain.CommandGetVolume,
	domain.CommandSetVolume,
	domain.CommandSetVideoSurface,
	domain.CommandGetText,
	domain.CommandSeekInCurrentMediaItem,
	domain.CommandSetTrackSelection,
	domain.CommandRelease,
)

// PlayerOptions tunes the command translator.
type PlayerOptions struct {
	SeekStep   time.Duration // fast-forward and rewind step
	PressSpeed float64       // speed while long pressing
}

// DefaultPlayerOptions returns a 10 second seek step and double speed.
func DefaultPlayerOptions() PlayerOptions {
	return PlayerOptions{SeekStep: 10 * time.Second, PressSpeed: 2.0}
}

// LoadOptions are per-load engine options.
type LoadOptions struct {
	EmbeddedFonts bool
}

// PlayerService is the playback state bridge and command translator.
//
// Engine events arrive on the dispatcher context; the listener keeps the
// phase, the starting flag and the track catalog current and publishes a
// snapshot after each event. Snapshot may be called from any goroutine.
type PlayerService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	channel *EngineChannel
	bus     ports.EventBus
	opts    PlayerOptions

	subID    domain.SubscriptionID
	starting atomic.Bool
	catalog  atomic.Pointer[TrackCatalog]

	mu              sync.RWMutex
	phase           domain.PlaybackPhase
	selection       trackSelection
	item            domain.MediaItem
	surface         ports.Surface
	savedSpeed      mo.Option[float64]
	decoderSupplier func() domain.DecoderType
	decoderListener func(domain.DecoderType)
	released        bool
}

// NewPlayerService creates the bridge and subscribes it to channel.
func NewPlayerService(
	logger *slog.Logger,
	channel *EngineChannel,
	bus ports.EventBus,
	opts PlayerOptions,
) *PlayerService {
	if opts.SeekStep <= 0 {
		opts.SeekStep = DefaultPlayerOptions().SeekStep
	}
	if opts.PressSpeed <= 0 {
		opts.PressSpeed = DefaultPlayerOptions().PressSpeed
	}

	s := &PlayerService{
		logger:          logger.With(slog.String("service", "player")),
		channel:         channel,
		bus:             bus,
		opts:            opts,
		phase:           domain.PhaseIdle,
		decoderSupplier: func() domain.DecoderType { return domain.DecoderHardware },
	}
	s.catalog.Store(EmptyCatalog())
	s.subID = channel.Subscribe(s.onEngineEvent)

	s.logger.Debug("player service initialized")
	return s
}

// SetDecoderProcessor installs the decoder choice used for each load and the
// listener told about decoder switches.
func (s *PlayerService) SetDecoderProcessor(supplier func() domain.DecoderType, listener func(domain.DecoderType)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if supplier != nil {
		s.decoderSupplier = supplier
	}
	s.decoderListener = listener
}

// onEngineEvent runs on the dispatcher context.
func (s *PlayerService) onEngineEvent(event domain.EngineEvent, _ any) {
	switch event {
	case domain.EngineEventStartFile:
		s.starting.Store(false)

	case domain.EngineEventEndFile:
		if s.starting.Load() {
			metrics.IgnoredEndFileTotal.Inc()
			s.logger.Debug("end-file ignored while starting")
			return
		}

	case domain.EngineEventFileLoaded:
		s.refreshCatalog()
		s.applySelection()

	case domain.EngineEventTrackListChanged:
		s.refreshCatalog()

	case domain.EngineEventDecoderChanged:
		s.handleDecoderChange()
	}

	// Captured once: the slot still holds event while listeners run.
	current := s.channel.CurrentEvent()
	s.bus.Publish(domain.NewPlayerStateChangedEvent(event, s.snapshotFor(current)))
}

func (s *PlayerService) refreshCatalog() {
	raw := s.channel.String(PropTrackList).OrEmpty()
	catalog := NewTrackCatalog(ParseTracks(raw))
	s.catalog.Store(catalog)
	s.bus.Publish(domain.NewTracksChangedEvent(catalog.Tracks()))
}

func (s *PlayerService) applySelection() {
	s.mu.RLock()
	selection := s.selection
	s.mu.RUnlock()

	for _, w := range selection.plan(s.Catalog()) {
		s.set(w.name, w.value)
	}
}

func (s *PlayerService) handleDecoderChange() {
	decoder := domain.DecoderHardware
	if s.channel.String(PropHwdecCurrent).OrEmpty() == "no" {
		decoder = domain.DecoderSoftware
	}

	s.mu.RLock()
	listener := s.decoderListener
	s.mu.RUnlock()

	if listener != nil {
		listener(decoder)
	}
	s.bus.Publish(domain.NewDecoderChangedEvent(decoder))
}

// nextPhase applies one event to the previous phase. Unrecognized events and
// None keep the phase; an EndFile while a load is starting is ignored.
func nextPhase(prev domain.PlaybackPhase, event domain.EngineEvent, starting bool) (phase domain.PlaybackPhase, firstFrame bool) {
	switch event {
	case domain.EngineEventStartFile:
		return domain.PhaseBuffering, false
	case domain.EngineEventFileLoaded:
		return domain.PhaseReady, true
	case domain.EngineEventSeek:
		return domain.PhaseBuffering, false
	case domain.EngineEventPlaybackRestart:
		return domain.PhaseReady, false
	case domain.EngineEventEndFile:
		if starting {
			return prev, false
		}
		return domain.PhaseEnded, false
	case domain.EngineEventPausedForCacheStart:
		return domain.PhaseBuffering, false
	case domain.EngineEventPausedForCacheEnd:
		return domain.PhaseReady, false
	default:
		return prev, false
	}
}

// Snapshot builds a fresh player state. It never blocks on the engine event
// stream and never fails; absent properties read as zero and paused.
func (s *PlayerService) Snapshot() domain.PlayerState {
	return s.snapshotFor(s.channel.CurrentEvent())
}

func (s *PlayerService) snapshotFor(event domain.EngineEvent) domain.PlayerState {
	s.mu.Lock()
	phase, firstFrame := nextPhase(s.phase, event, s.starting.Load())
	s.phase = phase
	s.mu.Unlock()

	paused := s.channel.Bool(PropPause).OrElse(true)

	state := domain.PlayerState{
		Phase:                   phase,
		PlayWhenReady:           !paused,
		Duration:                secondsToDuration(s.channel.Double(PropDuration).OrElse(0)),
		Speed:                   s.channel.Double(PropSpeed).OrElse(0),
		NewlyRenderedFirstFrame: firstFrame,
		AvailableCommands:       availableCommands,
	}
	return state.WithPositionSource(
		func() time.Duration { return secondsToDuration(s.channel.Double(PropTimePos).OrElse(0)) },
		func() time.Duration { return secondsToDuration(s.channel.Double(PropCacheTime).OrElse(0)) },
	)
}

// secondsToDuration converts engine seconds to a microsecond-precision duration.
func secondsToDuration(sec float64) time.Duration {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec <= 0 {
		return 0
	}
	return time.Duration(sec*1e6) * time.Microsecond
}

// Catalog returns the current track catalog. It is replaced as a whole, never
// mutated, so callers always see one consistent list.
func (s *PlayerService) Catalog() *TrackCatalog {
	return s.catalog.Load()
}

// IsStarting reports whether a load is waiting for its StartFile.
func (s *PlayerService) IsStarting() bool {
	return s.starting.Load()
}

// CurrentItem returns the last loaded media item.
func (s *PlayerService) CurrentItem() domain.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.item
}

// Release unsubscribes from the engine and stops playback. Calling it again does nothing.
func (s *PlayerService) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()

	s.channel.Unsubscribe(s.subID)
	s.command("stop")
	s.logger.Debug("player released")
}

func (s *PlayerService) isReleased() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.released
}

// set writes a property. Writes are fire-and-forget; the channel logs failures.
func (s *PlayerService) set(name string, value any) {
	if err := s.channel.Set(name, value); err != nil {
		s.logger.Error("invalid property write", slog.String("property", name), slog.Any("error", err))
	}
}

func (s *PlayerService) command(args ...string) {
	if err := s.channel.Command(args...); err != nil {
		s.logger.Error("invalid command", slog.Any("error", err))
	}
}

// Commands

// SetPlayWhenReady resumes or pauses playback.
func (s *PlayerService) SetPlayWhenReady(play bool) {
	s.set(PropPause, !play)
}

// SeekTo seeks to an absolute position in milliseconds.
func (s *PlayerService) SeekTo(positionMs int64) {
	if positionMs < 0 {
		positionMs = 0
	}
	s.command("seek", strconv.FormatFloat(float64(positionMs)/1000, 'f', 3, 64), "absolute")
}

// Position returns the playback position in milliseconds.
func (s *PlayerService) Position() int64 {
	return secondsToDuration(s.channel.Double(PropTimePos).OrElse(0)).Milliseconds()
}

// Duration returns the media duration in milliseconds, zero when unknown.
func (s *PlayerService) Duration() int64 {
	return secondsToDuration(s.channel.Double(PropDuration).OrElse(0)).Milliseconds()
}

// FastForward seeks forward by the configured step, stopping at the end.
func (s *PlayerService) FastForward() {
	s.seekBy(s.opts.SeekStep)
}

// Rewind seeks back by the configured step, stopping at the start.
func (s *PlayerService) Rewind() {
	s.seekBy(-s.opts.SeekStep)
}

func (s *PlayerService) seekBy(delta time.Duration) {
	target := s.Position() + delta.Milliseconds()
	if duration := s.Duration(); duration > 0 {
		target = min(target, duration)
	}
	s.SeekTo(max(target, 0))
}

// SetSpeed sets the playback speed.
func (s *PlayerService) SetSpeed(speed float64) {
	s.set(PropSpeed, speed)
}

// PressSpeedUp switches to the long press speed, or back to the speed in use
// before the press.
func (s *PlayerService) PressSpeedUp(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active {
		if s.savedSpeed.IsAbsent() {
			s.savedSpeed = mo.Some(s.channel.Double(PropSpeed).OrElse(1))
		}
		s.set(PropSpeed, s.opts.PressSpeed)
		return
	}

	if speed, ok := s.savedSpeed.Get(); ok {
		s.set(PropSpeed, speed)
		s.savedSpeed = mo.None[float64]()
	}
}

// Stop stops playback.
func (s *PlayerService) Stop() {
	s.command("stop")
}

// LoadMedia replaces the current media. An item without a URI is ignored.
func (s *PlayerService) LoadMedia(item domain.MediaItem, start time.Duration, opts LoadOptions) {
	if !item.HasLocalConfiguration() {
		s.logger.Debug("load ignored: item has no uri", slog.String("id", item.ID))
		return
	}
	if s.isReleased() {
		s.logger.Warn("load after release ignored", slog.String("uri", item.URI))
		return
	}

	s.mu.Lock()
	s.item = item
	decoder := s.decoderSupplier()
	s.mu.Unlock()

	s.starting.Store(true)
	s.command("loadfile", item.URI, "replace", "0", loadOptions(item, start, opts, decoder))
	s.bus.Publish(domain.NewMediaLoadRequestedEvent(item, start))
}

// loadOptions builds the per-file option list passed with loadfile.
func loadOptions(item domain.MediaItem, start time.Duration, opts LoadOptions, decoder domain.DecoderType) string {
	subs := strings.Join(lo.Map(item.Subtitles, func(sub domain.SubtitleConfiguration, _ int) string {
		return strings.ReplaceAll(sub.URI, ":", `\:`)
	}), ":")

	hwdec := "auto"
	if decoder == domain.DecoderSoftware {
		hwdec = "no"
	}

	return strings.Join([]string{
		// %n% quoting keeps commas inside URIs from splitting the option list
		fmt.Sprintf("sub-files-set=%%%d%%%s", len(subs), subs),
		fmt.Sprintf("start=+%d", int64(start/time.Second)),
		"embeddedfonts=" + yesNo(opts.EmbeddedFonts),
		"hwdec=" + hwdec,
	}, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// SelectAudioTrack selects the track at index in the full track list and
// remembers it for the next load.
func (s *PlayerService) SelectAudioTrack(index int) {
	s.mu.Lock()
	s.selection.audio = mo.Some(index)
	s.mu.Unlock()

	if track, ok := s.Catalog().At(index).Get(); ok {
		s.set(PropAudioID, track.ID)
	}
}

// SelectSubtitleTrack selects a subtitle by delivery method. For Embed, index
// is a position in the full track list; for External it is the position of the
// subtitle in the loaded item's subtitle list.
func (s *PlayerService) SelectSubtitleTrack(index int, method domain.SubtitleDeliveryMethod) {
	req := subtitleRequest{method: method, index: index}
	if method == domain.SubtitleDeliveryExternal {
		s.mu.RLock()
		if index >= 0 && index < len(s.item.Subtitles) {
			req.name = subtitleFileName(s.item.Subtitles[index].URI)
		}
		s.mu.RUnlock()
	}
	s.selectSubtitle(req)
}

// SelectExternalSubtitle selects the first external subtitle whose file name
// contains name, or disables subtitles when none does.
func (s *PlayerService) SelectExternalSubtitle(name string) {
	s.selectSubtitle(subtitleRequest{method: domain.SubtitleDeliveryExternal, name: name})
}

// DisableSubtitles turns subtitles off, now and after later loads.
func (s *PlayerService) DisableSubtitles() {
	s.selectSubtitle(subtitleRequest{method: domain.SubtitleDeliveryNone})
}

func (s *PlayerService) selectSubtitle(req subtitleRequest) {
	s.mu.Lock()
	s.selection.subtitle = mo.Some(req)
	s.mu.Unlock()

	if w, ok := req.write(s.Catalog()); ok {
		s.set(w.name, w.value)
	}
}

// subtitleFileName extracts the last path element of a subtitle URI.
func subtitleFileName(uri string) string {
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(uri)
}

// AttachOutputSurface binds surface and enables video. Attaching the same
// surface again does nothing.
func (s *PlayerService) AttachOutputSurface(surface ports.Surface) {
	if surface == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface != nil && s.surface.WindowID() == surface.WindowID() {
		return
	}
	if err := s.channel.Engine().AttachSurface(surface); err != nil {
		s.logger.Warn("attach surface failed", slog.Any("error", err))
		return
	}
	s.surface = surface
	s.set(PropVideoID, "auto")
}

// ResizeOutputSurface tells the engine the surface size in pixels. Only mpv's
// Android video outputs read android-surface-size; desktop builds size the
// video from the embedding window and log the rejected write.
func (s *PlayerService) ResizeOutputSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.set(PropSurfaceSize, fmt.Sprintf("%dx%d", width, height))
}

// DetachOutputSurface disables video and unbinds the surface. Detaching
// without a surface does nothing.
func (s *PlayerService) DetachOutputSurface() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return
	}
	s.set(PropVideoID, "no")
	if err := s.channel.Engine().DetachSurface(); err != nil {
		s.logger.Warn("detach surface failed", slog.Any("error", err))
	}
	s.surface = nil
}

var _ ports.PlaybackActions = (*PlayerService)(nil)
