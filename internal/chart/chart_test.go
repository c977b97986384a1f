package chart

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

func sampleSongs() []domain.Song {
	return []domain.Song{
		{Title: "Blinding Lights", Artist: "The Weeknd", Streams: ptr(4.6)},
		{Title: "Shape of You", Artist: "Ed Sheeran", Streams: ptr(4.0)},
		{Title: "Someone You Loved", Artist: "Lewis Capaldi", Streams: ptr(3.6)},
		{Title: "Sunflower", Artist: "Post Malone", Streams: ptr(3.6)},
		{Title: "Perfect", Artist: "Ed Sheeran", Streams: nil},
		{Title: "A title long enough to need truncating in the label column", Artist: "Someone", Streams: ptr(2.1)},
	}
}

func TestRenderer_Render(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	r := NewRenderer(dir, discardLogger())

	paths, err := r.Render(context.Background(), sampleSongs())

	require.NoError(t, err)
	require.Len(t, paths, 3)
	for i, name := range Files {
		assert.Equal(t, filepath.Join(dir, name), paths[i])
		data, err := os.ReadFile(paths[i])
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), name)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, name)
		assert.Equal(t, defaultWidth, img.Bounds().Dx())
		assert.Equal(t, defaultHeight, img.Bounds().Dy())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files left behind")
}

func TestRenderer_Render_Overwrites(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, TopSongsFile)
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	r := NewRenderer(dir, discardLogger())

	_, err := r.Render(context.Background(), sampleSongs())

	require.NoError(t, err)
	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestRenderer_Render_NoNumericStreams(t *testing.T) {
	r := NewRenderer(t.TempDir(), discardLogger())

	paths, err := r.Render(context.Background(), []domain.Song{{Title: "a", Artist: "b"}})

	require.NoError(t, err)
	assert.Len(t, paths, 3)
}

func TestRenderer_Render_SingleSong(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(t.TempDir(), discardLogger())

	err := r.StreamsVsRank(&buf, []domain.Song{{Title: "a", Artist: "b", Streams: ptr(1.5)}})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderer_Render_CancelledContext(t *testing.T) {
	r := NewRenderer(t.TempDir(), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := r.Render(ctx, sampleSongs())

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
}

func TestRenderer_Render_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	r := NewRenderer(filepath.Join(file, "charts"), discardLogger())

	_, err := r.Render(context.Background(), sampleSongs())

	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	long := truncate("A title long enough to need truncating in the label column")
	assert.Len(t, []rune(long), maxLabelRunes)
	assert.Equal(t, "...", long[len(long)-3:])
}
