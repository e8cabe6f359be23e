package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sukerxi/mpvbridge/internal/adapter/engine/mock"
	"github.com/sukerxi/mpvbridge/internal/adapter/eventbus"
	"github.com/sukerxi/mpvbridge/internal/logger"
	"github.com/sukerxi/mpvbridge/internal/testutil"
)

type channelFixture struct {
	engine     *mock.Engine
	dispatcher *testutil.ManualDispatcher
	bus        *eventbus.SyncEventBus
	channel    *EngineChannel
}

func newChannelFixture(t *testing.T) *channelFixture {
	t.Helper()

	f := &channelFixture{
		engine:     mock.NewEngine(),
		dispatcher: testutil.NewManualDispatcher(),
		bus:        eventbus.NewSyncEventBus(),
	}
	f.bus.SetLogger(logger.NewTestLogger())
	f.channel = NewEngineChannel(logger.NewTestLogger(), f.engine, f.dispatcher, f.bus)
	require.NoError(t, f.channel.Start())

	t.Cleanup(func() {
		_ = f.channel.Close()
		_ = f.bus.Close()
	})
	return f
}

const sampleTrackList = `[
	{"id":1,"type":"video","src-id":0,"codec":"h264","demux-w":1920,"demux-h":1080,"demux-fps":23.976,"selected":true},
	{"id":1,"type":"audio","src-id":1,"lang":"jpn","codec":"aac","demux-channel-count":2,"demux-samplerate":48000,"selected":true,"default":true},
	{"id":2,"type":"audio","src-id":2,"lang":"eng","codec":"ac3","demux-channel-count":6},
	{"id":1,"type":"sub","src-id":3,"lang":"eng","codec":"ass","title":"Full"},
	{"id":2,"type":"sub","lang":"spa","codec":"subrip","external":true,"external-filename":"http://media/Videos/abc/Subtitles/5/Stream.es.srt","selected":true},
	{"id":3,"type":"sub","lang":"fre","codec":"subrip","external":true,"external-filename":"http://media/Videos/abc/Subtitles/6/Stream.fr.srt"}
]`
