package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/logger"
)

type playerFixture struct {
	*channelFixture
	player *PlayerService
	states []domain.PlayerStateChangedEvent
}

func newPlayerFixture(t *testing.T) *playerFixture {
	t.Helper()

	f := &playerFixture{channelFixture: newChannelFixture(t)}
	f.player = NewPlayerService(logger.NewTestLogger(), f.channel, f.bus, DefaultPlayerOptions())
	f.bus.Subscribe(domain.EventPlayerStateChanged, func(e domain.Event) {
		f.states = append(f.states, e.(domain.PlayerStateChangedEvent))
	})
	return f
}

func (f *playerFixture) lastState(t *testing.T) domain.PlayerState {
	t.Helper()
	require.NotEmpty(t, f.states)
	return f.states[len(f.states)-1].State
}

type fakeSurface int64

func (s fakeSurface) WindowID() int64 { return int64(s) }

func TestNextPhase(t *testing.T) {
	tests := []struct {
		event      domain.EngineEvent
		starting   bool
		prev       domain.PlaybackPhase
		want       domain.PlaybackPhase
		firstFrame bool
	}{
		{event: domain.EngineEventStartFile, prev: domain.PhaseIdle, want: domain.PhaseBuffering},
		{event: domain.EngineEventFileLoaded, prev: domain.PhaseBuffering, want: domain.PhaseReady, firstFrame: true},
		{event: domain.EngineEventSeek, prev: domain.PhaseReady, want: domain.PhaseBuffering},
		{event: domain.EngineEventPlaybackRestart, prev: domain.PhaseBuffering, want: domain.PhaseReady},
		{event: domain.EngineEventEndFile, prev: domain.PhaseReady, want: domain.PhaseEnded},
		{event: domain.EngineEventEndFile, starting: true, prev: domain.PhaseReady, want: domain.PhaseReady},
		{event: domain.EngineEventPausedForCacheStart, prev: domain.PhaseReady, want: domain.PhaseBuffering},
		{event: domain.EngineEventPausedForCacheEnd, prev: domain.PhaseBuffering, want: domain.PhaseReady},
		{event: domain.EngineEventTrackListChanged, prev: domain.PhaseReady, want: domain.PhaseReady},
		{event: domain.EngineEventDecoderChanged, prev: domain.PhaseBuffering, want: domain.PhaseBuffering},
		{event: domain.EngineEventNone, prev: domain.PhaseEnded, want: domain.PhaseEnded},
	}

	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			phase, firstFrame := nextPhase(tt.prev, tt.event, tt.starting)
			assert.Equal(t, tt.want, phase)
			assert.Equal(t, tt.firstFrame, firstFrame)
		})
	}
}

func TestPlayerSnapshotDefaults(t *testing.T) {
	f := newPlayerFixture(t)

	state := f.player.Snapshot()
	assert.Equal(t, domain.PhaseIdle, state.Phase)
	assert.False(t, state.PlayWhenReady, "absent pause reads as paused")
	assert.Zero(t, state.Duration)
	assert.Zero(t, state.Speed)
	assert.Zero(t, state.Position())
	assert.Zero(t, state.BufferedPosition())
	assert.False(t, state.NewlyRenderedFirstFrame)
	assert.True(t, state.AvailableCommands.Contains(domain.CommandSeekInCurrentMediaItem))
	assert.True(t, state.AvailableCommands.Contains(domain.CommandRelease))
}

func TestPlayerSnapshotReadsEngine(t *testing.T) {
	f := newPlayerFixture(t)

	f.engine.Put(PropPause, domain.FlagValue(false))
	f.engine.Put(PropDuration, domain.DoubleValue(5400.25))
	f.engine.Put(PropSpeed, domain.DoubleValue(1.25))
	f.engine.Put(PropTimePos, domain.DoubleValue(12.5))
	f.engine.Put(PropCacheTime, domain.DoubleValue(30))

	state := f.player.Snapshot()
	assert.True(t, state.PlayWhenReady)
	assert.Equal(t, 5400250*time.Millisecond, state.Duration)
	assert.Equal(t, 1.25, state.Speed)
	assert.Equal(t, 12500*time.Millisecond, state.Position())
	assert.Equal(t, 30*time.Second, state.BufferedPosition())

	// positions are read when asked for, not when the snapshot was taken
	f.engine.Put(PropTimePos, domain.DoubleValue(13))
	assert.Equal(t, 13*time.Second, state.Position())
}

func TestPlayerPublishesStatePerEvent(t *testing.T) {
	f := newPlayerFixture(t)
	f.engine.Put(PropTrackList, domain.StringValue(sampleTrackList))

	events := []domain.EngineEvent{
		domain.EngineEventStartFile,
		domain.EngineEventFileLoaded,
		domain.EngineEventPlaybackRestart,
		domain.EngineEventSeek,
		domain.EngineEventPlaybackRestart,
	}
	for _, e := range events {
		f.engine.EmitEvent(e)
	}

	require.Len(t, f.states, len(events))
	wantPhases := []domain.PlaybackPhase{
		domain.PhaseBuffering,
		domain.PhaseReady,
		domain.PhaseReady,
		domain.PhaseBuffering,
		domain.PhaseReady,
	}
	for i, s := range f.states {
		assert.Equal(t, events[i], s.Cause)
		assert.Equal(t, wantPhases[i], s.State.Phase)
		assert.Equal(t, events[i] == domain.EngineEventFileLoaded, s.State.NewlyRenderedFirstFrame)
	}

	assert.Equal(t, domain.EngineEventNone, f.channel.CurrentEvent())
	assert.False(t, f.player.Snapshot().NewlyRenderedFirstFrame)
}

func TestPlayerBufferingFromCache(t *testing.T) {
	f := newPlayerFixture(t)

	f.engine.EmitFlag(PropPausedForCache, true)
	assert.Equal(t, domain.PhaseBuffering, f.lastState(t).Phase)

	f.engine.EmitFlag(PropPausedForCache, false)
	assert.Equal(t, domain.PhaseReady, f.lastState(t).Phase)
}

func TestPlayerIgnoresEndFileWhileStarting(t *testing.T) {
	f := newPlayerFixture(t)

	f.engine.EmitEvent(domain.EngineEventStartFile)
	f.engine.EmitEvent(domain.EngineEventFileLoaded)
	f.engine.EmitEvent(domain.EngineEventPlaybackRestart)
	require.Equal(t, domain.PhaseReady, f.lastState(t).Phase)
	published := len(f.states)

	// replacing the playing file makes the engine end the old one first
	f.player.LoadMedia(domain.MediaItem{ID: "b", URI: "http://media/b.mkv"}, 0, LoadOptions{})
	assert.True(t, f.player.IsStarting())

	f.engine.EmitEvent(domain.EngineEventEndFile)
	assert.Len(t, f.states, published, "ignored end-file publishes nothing")
	assert.Equal(t, domain.PhaseReady, f.player.Snapshot().Phase)

	f.engine.EmitEvent(domain.EngineEventStartFile)
	assert.False(t, f.player.IsStarting())
	assert.Equal(t, domain.PhaseBuffering, f.lastState(t).Phase)

	f.engine.EmitEvent(domain.EngineEventEndFile)
	assert.Equal(t, domain.PhaseEnded, f.lastState(t).Phase)
}

func TestPlayerDoubleLoadScopesStarting(t *testing.T) {
	f := newPlayerFixture(t)

	f.player.LoadMedia(domain.MediaItem{URI: "http://media/a.mkv"}, 0, LoadOptions{})
	f.engine.EmitEvent(domain.EngineEventStartFile)
	f.player.LoadMedia(domain.MediaItem{URI: "http://media/b.mkv"}, 0, LoadOptions{})

	f.engine.EmitEvent(domain.EngineEventEndFile)
	assert.Equal(t, domain.PhaseBuffering, f.player.Snapshot().Phase)

	f.engine.EmitEvent(domain.EngineEventStartFile)
	f.engine.EmitEvent(domain.EngineEventFileLoaded)
	assert.Equal(t, domain.PhaseReady, f.lastState(t).Phase)
	assert.Equal(t, "http://media/b.mkv", f.player.CurrentItem().URI)
}

func TestPlayerLoadMedia(t *testing.T) {
	f := newPlayerFixture(t)

	var requested []domain.MediaLoadRequestedEvent
	f.bus.Subscribe(domain.EventMediaLoadRequested, func(e domain.Event) {
		requested = append(requested, e.(domain.MediaLoadRequestedEvent))
	})

	item := domain.MediaItem{
		ID:  "abc",
		URI: "http://media/Videos/abc/stream?static=true",
		Subtitles: []domain.SubtitleConfiguration{
			{URI: "http://media/Videos/abc/Subtitles/5/Stream.es.srt"},
			{URI: "http://media/Videos/abc/Subtitles/6/Stream.fr,forced.srt"},
		},
	}
	f.player.LoadMedia(item, 90*time.Second+500*time.Millisecond, LoadOptions{EmbeddedFonts: true})

	require.Equal(t, [][]string{{
		"loadfile",
		item.URI,
		"replace",
		"0",
		`sub-files-set=%108%http\://media/Videos/abc/Subtitles/5/Stream.es.srt:http\://media/Videos/abc/Subtitles/6/Stream.fr,forced.srt,start=+90,embeddedfonts=yes,hwdec=auto`,
	}}, f.engine.Commands())

	require.Len(t, requested, 1)
	assert.Equal(t, item.ID, requested[0].Item.ID)
	assert.Equal(t, 90*time.Second+500*time.Millisecond, requested[0].Start)
}

func TestLoadOptions(t *testing.T) {
	item := domain.MediaItem{URI: "file:///movie.mkv"}

	assert.Equal(t, "sub-files-set=%0%,start=+0,embeddedfonts=no,hwdec=no",
		loadOptions(item, 0, LoadOptions{}, domain.DecoderSoftware))
	assert.Equal(t, "sub-files-set=%0%,start=+12,embeddedfonts=yes,hwdec=auto",
		loadOptions(item, 12*time.Second, LoadOptions{EmbeddedFonts: true}, domain.DecoderHardware))
}

func TestPlayerLoadIgnoresItemWithoutURI(t *testing.T) {
	f := newPlayerFixture(t)

	f.player.LoadMedia(domain.MediaItem{ID: "remote-only"}, 0, LoadOptions{})
	assert.Empty(t, f.engine.Commands())
	assert.False(t, f.player.IsStarting())
}

func TestPlayerDecoderSupplierAndListener(t *testing.T) {
	f := newPlayerFixture(t)

	var decoders []domain.DecoderType
	f.player.SetDecoderProcessor(
		func() domain.DecoderType { return domain.DecoderSoftware },
		func(d domain.DecoderType) { decoders = append(decoders, d) },
	)

	f.player.LoadMedia(domain.MediaItem{URI: "file:///a.mkv"}, 0, LoadOptions{})
	assert.Contains(t, f.engine.CommandLines()[0], "hwdec=no")

	var published []domain.DecoderType
	f.bus.Subscribe(domain.EventDecoderChanged, func(e domain.Event) {
		published = append(published, e.(domain.DecoderChangedEvent).Decoder)
	})

	f.engine.Put(PropHwdecCurrent, domain.StringValue("no"))
	f.engine.EmitPropertyChange(PropHwdecCurrent)
	f.engine.Put(PropHwdecCurrent, domain.StringValue("mediacodec"))
	f.engine.EmitPropertyChange(PropHwdecCurrent)

	want := []domain.DecoderType{domain.DecoderSoftware, domain.DecoderHardware}
	assert.Equal(t, want, decoders)
	assert.Equal(t, want, published)
}

func TestPlayerCatalogRefresh(t *testing.T) {
	f := newPlayerFixture(t)
	assert.Zero(t, f.player.Catalog().Len())

	var changes int
	f.bus.Subscribe(domain.EventTracksChanged, func(domain.Event) { changes++ })

	f.engine.Put(PropTrackList, domain.StringValue(sampleTrackList))
	f.engine.EmitPropertyChange(PropTrackList)
	assert.Equal(t, 6, f.player.Catalog().Len())

	f.engine.Put(PropTrackList, domain.StringValue("not json"))
	f.engine.EmitEvent(domain.EngineEventFileLoaded)
	assert.Zero(t, f.player.Catalog().Len())
	assert.Equal(t, 2, changes)
}

func TestPlayerSelectionReplayedAfterLoad(t *testing.T) {
	f := newPlayerFixture(t)
	f.engine.Put(PropTrackList, domain.StringValue(sampleTrackList))
	f.engine.EmitPropertyChange(PropTrackList)

	f.player.SelectAudioTrack(2)
	f.player.SelectSubtitleTrack(3, domain.SubtitleDeliveryEmbed)
	assert.Equal(t, []domain.PropertyValue{domain.IntValue(2)}, f.engine.WritesTo(PropAudioID))
	assert.Equal(t, []domain.PropertyValue{domain.IntValue(1)}, f.engine.WritesTo(PropSubtitleID))

	f.engine.ResetLogs()
	f.engine.EmitEvent(domain.EngineEventStartFile)
	f.engine.EmitEvent(domain.EngineEventFileLoaded)

	writes := f.engine.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, PropSubtitleID, writes[0].Name)
	assert.Equal(t, domain.IntValue(1), writes[0].Value)
	assert.Equal(t, PropAudioID, writes[1].Name)
	assert.Equal(t, domain.IntValue(2), writes[1].Value)
}

func TestPlayerSelectExternalSubtitle(t *testing.T) {
	f := newPlayerFixture(t)
	f.engine.Put(PropTrackList, domain.StringValue(sampleTrackList))
	f.engine.EmitPropertyChange(PropTrackList)

	f.player.LoadMedia(domain.MediaItem{
		URI: "http://media/abc",
		Subtitles: []domain.SubtitleConfiguration{
			{URI: "http://media/Videos/abc/Subtitles/5/Stream.es.srt"},
			{URI: "http://media/Videos/abc/Subtitles/6/Stream.fr.srt?api_key=x"},
		},
	}, 0, LoadOptions{})

	f.player.SelectSubtitleTrack(1, domain.SubtitleDeliveryExternal)
	f.player.SelectExternalSubtitle("Stream.es")
	f.player.SelectExternalSubtitle("Stream.de.srt")
	f.player.DisableSubtitles()

	assert.Equal(t, []domain.PropertyValue{
		domain.IntValue(3),
		domain.IntValue(2),
		domain.StringValue("no"),
		domain.StringValue("no"),
	}, f.engine.WritesTo(PropSubtitleID))
}

func TestPlayerSeekCommands(t *testing.T) {
	f := newPlayerFixture(t)
	f.engine.Put(PropDuration, domain.DoubleValue(100))
	f.engine.Put(PropTimePos, domain.DoubleValue(95))

	f.player.SeekTo(1500)
	f.player.SeekTo(-20)
	f.player.FastForward()
	f.engine.Put(PropTimePos, domain.DoubleValue(4))
	f.player.Rewind()

	assert.Equal(t, []string{
		"seek 1.500 absolute",
		"seek 0.000 absolute",
		"seek 100.000 absolute",
		"seek 0.000 absolute",
	}, f.engine.CommandLines())

	assert.Equal(t, int64(100000), f.player.Duration())
	assert.Equal(t, int64(4000), f.player.Position())
}

func TestPlayerPressSpeedUpRestoresSpeed(t *testing.T) {
	f := newPlayerFixture(t)
	f.engine.Put(PropSpeed, domain.DoubleValue(1.5))

	f.player.PressSpeedUp(true)
	f.player.PressSpeedUp(true)
	f.player.PressSpeedUp(false)
	f.player.PressSpeedUp(false)

	assert.Equal(t, []domain.PropertyValue{
		domain.DoubleValue(2),
		domain.DoubleValue(2),
		domain.DoubleValue(1.5),
	}, f.engine.WritesTo(PropSpeed))
}

func TestPlayerPlayPauseAndSpeed(t *testing.T) {
	f := newPlayerFixture(t)

	f.player.SetPlayWhenReady(true)
	f.player.SetPlayWhenReady(false)
	f.player.SetSpeed(0.75)
	f.player.Stop()

	assert.Equal(t, []domain.PropertyValue{domain.FlagValue(false), domain.FlagValue(true)}, f.engine.WritesTo(PropPause))
	assert.Equal(t, []domain.PropertyValue{domain.DoubleValue(0.75)}, f.engine.WritesTo(PropSpeed))
	assert.Equal(t, []string{"stop"}, f.engine.CommandLines())
}

func TestPlayerSurfaceLifecycle(t *testing.T) {
	f := newPlayerFixture(t)

	f.player.DetachOutputSurface()
	assert.Empty(t, f.engine.Writes())

	f.player.AttachOutputSurface(fakeSurface(7))
	f.player.AttachOutputSurface(fakeSurface(7))
	f.player.ResizeOutputSurface(1920, 1080)
	f.player.ResizeOutputSurface(0, 1080)
	assert.Equal(t, int64(7), f.engine.Surface().WindowID())

	f.player.DetachOutputSurface()
	f.player.DetachOutputSurface()
	assert.Nil(t, f.engine.Surface())

	assert.Equal(t, []domain.PropertyValue{domain.StringValue("auto"), domain.StringValue("no")}, f.engine.WritesTo(PropVideoID))
	assert.Equal(t, []domain.PropertyValue{domain.StringValue("1920x1080")}, f.engine.WritesTo(PropSurfaceSize))
}

func TestPlayerRelease(t *testing.T) {
	f := newPlayerFixture(t)

	f.player.Release()
	f.player.Release()
	assert.Equal(t, []string{"stop"}, f.engine.CommandLines())

	published := len(f.states)
	f.engine.EmitEvent(domain.EngineEventStartFile)
	assert.Len(t, f.states, published)

	f.player.LoadMedia(domain.MediaItem{URI: "file:///a.mkv"}, 0, LoadOptions{})
	assert.Equal(t, []string{"stop"}, f.engine.CommandLines())
}
