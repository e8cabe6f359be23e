package service

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/sukerxi/mpvbridge/internal/domain"
)

// rawTrack mirrors one entry of mpv's track-list property.
type rawTrack struct {
	ID               int64   `json:"id"`
	Type             string  `json:"type"`
	SrcID            int64   `json:"src-id"`
	Title            string  `json:"title"`
	Lang             string  `json:"lang"`
	Codec            string  `json:"codec"`
	DecoderDesc      string  `json:"decoder-desc"`
	Default          bool    `json:"default"`
	Forced           bool    `json:"forced"`
	Selected         bool    `json:"selected"`
	External         bool    `json:"external"`
	ExternalFilename string  `json:"external-filename"`
	DemuxW           int64   `json:"demux-w"`
	DemuxH           int64   `json:"demux-h"`
	DemuxFPS         float64 `json:"demux-fps"`
	DemuxChannels    int64   `json:"demux-channel-count"`
	DemuxSamplerate  int64   `json:"demux-samplerate"`
	DemuxBitrate     int64   `json:"demux-bitrate"`
}

// ParseTracks decodes the engine's track-list JSON. Malformed or empty input
// yields an empty list; an empty catalog is always a valid state.
func ParseTracks(raw string) []domain.MediaTrack {
	if strings.TrimSpace(raw) == "" {
		return []domain.MediaTrack{}
	}

	var entries []rawTrack
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []domain.MediaTrack{}
	}

	return lo.Map(entries, func(r rawTrack, _ int) domain.MediaTrack {
		return domain.MediaTrack{
			ID:               r.ID,
			Type:             domain.ParseTrackType(r.Type),
			External:         r.External,
			ExternalFilename: r.ExternalFilename,
			Selected:         r.Selected,
			SrcID:            r.SrcID,
			Title:            r.Title,
			Language:         r.Lang,
			Codec:            r.Codec,
			Decoder:          r.DecoderDesc,
			Default:          r.Default,
			Forced:           r.Forced,
			Width:            r.DemuxW,
			Height:           r.DemuxH,
			FPS:              r.DemuxFPS,
			Channels:         r.DemuxChannels,
			SampleHz:         r.DemuxSamplerate,
			BitrateHz:        r.DemuxBitrate,
		}
	})
}

// TrackCatalog is an immutable view over one track list.
// A new catalog replaces the old one on every track-list change.
type TrackCatalog struct {
	tracks []domain.MediaTrack
}

// NewTrackCatalog creates a catalog over a copy of tracks.
func NewTrackCatalog(tracks []domain.MediaTrack) *TrackCatalog {
	return &TrackCatalog{tracks: append([]domain.MediaTrack(nil), tracks...)}
}

// EmptyCatalog returns a catalog with no tracks.
func EmptyCatalog() *TrackCatalog {
	return &TrackCatalog{}
}

// Tracks returns all tracks in engine order.
func (c *TrackCatalog) Tracks() []domain.MediaTrack {
	return append([]domain.MediaTrack(nil), c.tracks...)
}

// Len returns the number of tracks.
func (c *TrackCatalog) Len() int {
	return len(c.tracks)
}

// At returns the track at index in the full list.
func (c *TrackCatalog) At(index int) mo.Option[domain.MediaTrack] {
	if index < 0 || index >= len(c.tracks) {
		return mo.None[domain.MediaTrack]()
	}
	return mo.Some(c.tracks[index])
}

// TracksByType returns the tracks of type t in engine order.
func (c *TrackCatalog) TracksByType(t domain.TrackType) []domain.MediaTrack {
	return lo.Filter(c.tracks, func(track domain.MediaTrack, _ int) bool {
		return track.Type == t
	})
}

// Selected returns the selected track of type t.
func (c *TrackCatalog) Selected(t domain.TrackType) mo.Option[domain.MediaTrack] {
	track, ok := lo.Find(c.tracks, func(track domain.MediaTrack) bool {
		return track.Type == t && track.Selected
	})
	if !ok {
		return mo.None[domain.MediaTrack]()
	}
	return mo.Some(track)
}

// SelectedTracks returns the selected track of each type that has one.
func (c *TrackCatalog) SelectedTracks() map[domain.TrackType]domain.MediaTrack {
	selected := lo.Filter(c.tracks, func(track domain.MediaTrack, _ int) bool {
		return track.Selected
	})
	return lo.SliceToMap(lo.UniqBy(selected, func(t domain.MediaTrack) domain.TrackType { return t.Type }),
		func(t domain.MediaTrack) (domain.TrackType, domain.MediaTrack) { return t.Type, t })
}

// ExternalSubtitleTracks returns subtitle tracks loaded from separate files.
func (c *TrackCatalog) ExternalSubtitleTracks() []domain.MediaTrack {
	return lo.Filter(c.tracks, func(track domain.MediaTrack, _ int) bool {
		return track.Type == domain.TrackTypeSubtitle && track.External
	})
}

// FindExternalSubtitle returns the first external subtitle track whose file
// name contains name. Several files sharing a substring resolve to the first
// in engine order.
func (c *TrackCatalog) FindExternalSubtitle(name string) mo.Option[domain.MediaTrack] {
	track, ok := lo.Find(c.ExternalSubtitleTracks(), func(track domain.MediaTrack) bool {
		return strings.Contains(track.ExternalFilename, name)
	})
	if !ok {
		return mo.None[domain.MediaTrack]()
	}
	return mo.Some(track)
}
