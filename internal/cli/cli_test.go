package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukerxi/mpvbridge/internal/config"
	"github.com/sukerxi/mpvbridge/internal/domain"
	"github.com/sukerxi/mpvbridge/internal/service"
)

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(fs)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigCommandListsEveryKey(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "config")
	require.NoError(t, err)

	for key := range config.Default {
		assert.Contains(t, out, key+" = ")
	}
	assert.Contains(t, out, "env MPVBRIDGE_MPV_BINARY")
}

func TestConfigCommandReadsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/mpvbridge/mpvbridge.toml", []byte("[mpv]\nbinary = \"/opt/mpv\"\n"), 0o644))

	out, err := execute(t, fs, "config", "--config", "/etc/mpvbridge", "--json", "-k", config.MpvBinary)
	require.NoError(t, err)

	var fields []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	require.Len(t, fields, 1)
	assert.Equal(t, config.MpvBinary, fields[0]["key"])
	assert.Equal(t, "/opt/mpv", fields[0]["value"])
	assert.Equal(t, "mpv", fields[0]["default"])
}

func TestConfigCommandUnknownKey(t *testing.T) {
	_, err := execute(t, afero.NewMemMapFs(), "config", "-k", "mpv.nope")
	assert.ErrorContains(t, err, `unknown key "mpv.nope"`)
}

func TestPlayRequiresTarget(t *testing.T) {
	_, err := execute(t, afero.NewMemMapFs(), "play")
	assert.Error(t, err)

	_, err = execute(t, afero.NewMemMapFs(), "tracks", "a.mkv", "b.mkv")
	assert.Error(t, err)
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "mpvbridge")
}

func TestPrintTracks(t *testing.T) {
	catalog := service.NewTrackCatalog([]domain.MediaTrack{
		{ID: 1, Type: domain.TrackTypeVideo, Codec: "h264", Selected: true},
		{ID: 1, Type: domain.TrackTypeAudio, Title: "Commentary", Language: "eng", Codec: "aac", Selected: true},
		{ID: 2, Type: domain.TrackTypeSubtitle, Language: "fr", External: true, ExternalFilename: "movie.fr.srt"},
	})

	var text bytes.Buffer
	require.NoError(t, printTracks(&text, catalog, false))
	assert.Equal(t,
		"* video      1  h264\n"+
			"* audio      1  Commentary / eng / aac\n"+
			"  subtitle   2  fr (external)\n",
		text.String())

	var js bytes.Buffer
	require.NoError(t, printTracks(&js, catalog, true))
	var rows []trackRow
	require.NoError(t, json.Unmarshal(js.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, trackRow{ID: 2, Type: "subtitle", Label: "fr (external)", External: true}, rows[2])
}

func TestSelectFieldsSorted(t *testing.T) {
	fields, err := selectFields(nil)
	require.NoError(t, err)
	require.Len(t, fields, len(config.Default))
	assert.IsIncreasing(t, keysOf(fields))
}

func keysOf(fields []config.Field) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}
