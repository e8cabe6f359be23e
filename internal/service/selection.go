package service

import (
	"github.com/samber/mo"

	"github.com/sukerxi/mpvbridge/internal/domain"
)

// subtitleRequest is the last subtitle choice made by the user.
type subtitleRequest struct {
	method domain.SubtitleDeliveryMethod
	index  int    // track list index for Embed
	name   string // file name fragment for External
}

// trackSelection remembers the last requested audio and subtitle tracks.
// The engine resets active tracks on every load, so the selection is replayed
// after each FileLoaded.
type trackSelection struct {
	audio    mo.Option[int]
	subtitle mo.Option[subtitleRequest]
}

// propertyWrite is one planned engine write.
type propertyWrite struct {
	name  string
	value any
}

// plan returns the writes that apply the selection to catalog, subtitle first.
// Indexes outside the catalog produce no write; an External request with no
// matching file disables subtitles.
func (s trackSelection) plan(catalog *TrackCatalog) []propertyWrite {
	var writes []propertyWrite

	if req, ok := s.subtitle.Get(); ok {
		if w, ok := req.write(catalog); ok {
			writes = append(writes, w)
		}
	}

	if index, ok := s.audio.Get(); ok {
		if track, ok := catalog.At(index).Get(); ok {
			writes = append(writes, propertyWrite{name: PropAudioID, value: track.ID})
		}
	}

	return writes
}

func (r subtitleRequest) write(catalog *TrackCatalog) (propertyWrite, bool) {
	switch r.method {
	case domain.SubtitleDeliveryEmbed:
		track, ok := catalog.At(r.index).Get()
		if !ok {
			return propertyWrite{}, false
		}
		return propertyWrite{name: PropSubtitleID, value: track.ID}, true

	case domain.SubtitleDeliveryExternal:
		if track, ok := catalog.FindExternalSubtitle(r.name).Get(); ok && r.name != "" {
			return propertyWrite{name: PropSubtitleID, value: track.ID}, true
		}
		return propertyWrite{name: PropSubtitleID, value: "no"}, true

	default:
		// Encode is burned into the video by the server; None is explicit
		return propertyWrite{name: PropSubtitleID, value: "no"}, true
	}
}
