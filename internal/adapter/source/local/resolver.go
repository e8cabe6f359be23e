// Package local resolves media references on the local filesystem or on plain
// http(s) servers into playable items.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/spf13/afero"

	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/ports"
)

// subtitleMimeTypes maps sidecar subtitle extensions to their MIME types.
var subtitleMimeTypes = map[string]string{
	".srt": "application/x-subrip",
	".ass": "text/x-ssa",
	".ssa": "text/x-ssa",
	".vtt": "text/vtt",
	".sub": "text/x-microdvd",
}

// Resolver implements ports.MediaSourceResolver for local files and http(s)
// URLs. Local files pick up sidecar subtitles named after them, e.g.
// movie.mkv with movie.en.srt.
type Resolver struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewResolver creates a resolver reading from fsys.
func NewResolver(fsys afero.Fs, logger *slog.Logger) *Resolver {
	return &Resolver{
		fs:     fsys,
		logger: logger.With(slog.String("adapter", "local_source")),
	}
}

// Resolve returns the playable item for a path or an http(s) URL.
func (r *Resolver) Resolve(ctx context.Context, ref string) (domain.MediaItem, error) {
	target, remote, err := sanitizeTarget(ref)
	if err != nil {
		return domain.MediaItem{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.MediaItem{}, err
	}

	if remote {
		return domain.MediaItem{ID: target, URI: target, Title: remoteTitle(target)}, nil
	}
	return r.resolveFile(ctx, target)
}

func (r *Resolver) resolveFile(ctx context.Context, file string) (domain.MediaItem, error) {
	info, err := r.fs.Stat(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.MediaItem{}, fmt.Errorf("%s: %w", file, domain.ErrFileNotFound)
		}
		return domain.MediaItem{}, fmt.Errorf("stat %s: %w", file, err)
	}
	if info.IsDir() {
		return domain.MediaItem{}, fmt.Errorf("%s is a directory: %w", file, domain.ErrInvalidMediaTarget)
	}

	item := domain.MediaItem{
		ID:    file,
		URI:   file,
		Title: r.title(file),
	}

	subtitles, err := r.sidecarSubtitles(ctx, file)
	if err != nil {
		// playable without them
		r.logger.Warn("sidecar subtitle scan failed", slog.String("file", file), slog.Any("error", err))
	}
	item.Subtitles = subtitles

	r.logger.Debug("resolved local media",
		slog.String("file", file),
		slog.String("title", item.Title),
		slog.Int("subtitles", len(subtitles)))
	return item, nil
}

// title prefers the container's title tag and falls back to the file name.
func (r *Resolver) title(file string) string {
	fallback := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	f, err := r.fs.Open(file)
	if err != nil {
		return fallback
	}
	defer f.Close()

	metadata, err := tag.ReadFrom(f)
	if err != nil || metadata == nil {
		return fallback
	}
	if title := strings.TrimSpace(metadata.Title()); title != "" {
		return title
	}
	return fallback
}

// sidecarSubtitles lists subtitle files next to file that share its base name.
// The segment between the base name and the extension, if any, is the language.
func (r *Resolver) sidecarSubtitles(ctx context.Context, file string) ([]domain.SubtitleConfiguration, error) {
	dir := filepath.Dir(file)
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, err
	}

	var subtitles []domain.SubtitleConfiguration
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return subtitles, err
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		mime, ok := subtitleMimeTypes[ext]
		if !ok || !strings.HasPrefix(name, base+".") {
			continue
		}

		var language string
		if stem := strings.TrimSuffix(name, filepath.Ext(name)); stem != base {
			language = strings.TrimPrefix(stem, base+".")
			if i := strings.LastIndexByte(language, '.'); i >= 0 {
				language = language[i+1:]
			}
		}

		label := name
		if language != "" {
			label = strings.ToUpper(language)
		}

		subtitles = append(subtitles, domain.SubtitleConfiguration{
			URI:      filepath.Join(dir, name),
			Label:    label,
			MimeType: mime,
			Language: language,
		})
	}
	return subtitles, nil
}

// sanitizeTarget rejects references that could be read as engine flags or
// carry control characters. remote is true for http(s) URLs.
func sanitizeTarget(ref string) (target string, remote bool, err error) {
	l := strings.TrimSpace(ref)
	if l == "" {
		return "", false, fmt.Errorf("empty reference: %w", domain.ErrInvalidMediaTarget)
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", false, fmt.Errorf("control characters in %q: %w", l, domain.ErrInvalidMediaTarget)
	}
	// would be parsed as an option
	if strings.HasPrefix(l, "-") {
		return "", false, fmt.Errorf("%q looks like a flag: %w", l, domain.ErrInvalidMediaTarget)
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", false, fmt.Errorf("parse %q: %w", l, errors.Join(domain.ErrInvalidMediaTarget, err))
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, true, nil
		default:
			return "", false, fmt.Errorf("unsupported scheme %q: %w", u.Scheme, domain.ErrInvalidMediaTarget)
		}
	}

	return filepath.Clean(l), false, nil
}

// remoteTitle is the last path segment of a URL, or its host.
func remoteTitle(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return u.Host
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// Verify interface implementation
var _ ports.MediaSourceResolver = (*Resolver)(nil)
