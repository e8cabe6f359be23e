package mpv

import (
	"fmt"
	"slices"
	"time"
)

// Options configures the mpv process.
type Options struct {
	Binary         string        // mpv executable
	Socket         string        // IPC socket path; a temporary one when empty
	ConfigDir      string        // mpv config directory; mpv's default when empty
	HwdecCodecs    string        // codecs allowed for hardware decoding
	CacheMegabytes int           // forward and back demuxer cache size
	StartupTimeout time.Duration // how long to wait for the IPC socket
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Binary:         "mpv",
		HwdecCodecs:    "h264,hevc,mpeg4,mpeg2video,vp8,vp9,av1",
		CacheMegabytes: 64,
		StartupTimeout: 5 * time.Second,
	}
}

type option struct {
	name  string
	value string
}

// optionList is an ordered option set; setting a name again replaces its value
// in place.
type optionList []option

func (l optionList) set(name, value string) optionList {
	if i := slices.IndexFunc(l, func(o option) bool { return o.name == name }); i >= 0 {
		l[i].value = value
		return l
	}
	return append(l, option{name: name, value: value})
}

func (l optionList) get(name string) (string, bool) {
	if i := slices.IndexFunc(l, func(o option) bool { return o.name == name }); i >= 0 {
		return l[i].value, true
	}
	return "", false
}

// args renders the list as mpv command line flags.
func (l optionList) args() []string {
	out := make([]string, 0, len(l))
	for _, o := range l {
		out = append(out, fmt.Sprintf("--%s=%s", o.name, o.value))
	}
	return out
}

// bootstrapOptions are the startup options every engine instance gets.
func bootstrapOptions(opts Options) optionList {
	cache := fmt.Sprintf("%dMiB", max(opts.CacheMegabytes, 1))

	var l optionList
	l = l.set("config", "yes")
	if opts.ConfigDir != "" {
		l = l.set("config-dir", opts.ConfigDir)
	}
	l = l.set("profile", "fast")
	l = l.set("hwdec", "auto")
	if opts.HwdecCodecs != "" {
		l = l.set("hwdec-codecs", opts.HwdecCodecs)
	}
	l = l.set("demuxer-max-bytes", cache)
	l = l.set("demuxer-max-back-bytes", cache)
	l = l.set("vd-lavc-film-grain", "cpu")
	l = l.set("ytdl", "no")
	l = l.set("cache-pause-initial", "yes")
	l = l.set("vo", "gpu-next,gpu")
	l = l.set("save-position-on-quit", "no")
	l = l.set("idle", "yes")
	return l
}
