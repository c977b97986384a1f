package objectstore_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/streams-chart-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/streams-chart-etl/internal/adapter/objectstore/local"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestArchiver_Archive_Local(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	a := objectstore.NewArchiver(local.New(dest), discardLogger())

	err := a.Archive(context.Background(), "2024-06-02",
		writeFile(t, src, "spotify_streams.db", "db"),
		writeFile(t, src, "top_10_songs.png", "png"),
	)

	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dest, "2024-06-02", "top_10_songs.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))
	assert.FileExists(t, filepath.Join(dest, "2024-06-02", "spotify_streams.db"))
}

func TestArchiver_Archive_Overwrites(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	a := objectstore.NewArchiver(local.New(dest), discardLogger())

	require.NoError(t, a.Archive(context.Background(), "day", writeFile(t, src, "chart.png", "v1")))
	require.NoError(t, a.Archive(context.Background(), "day", writeFile(t, src, "chart.png", "v2")))

	got, err := os.ReadFile(filepath.Join(dest, "day", "chart.png"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestArchiver_Archive_JoinsErrors(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	a := objectstore.NewArchiver(local.New(dest), discardLogger())

	err := a.Archive(context.Background(), "day",
		filepath.Join(src, "missing.png"),
		writeFile(t, src, "present.png", "ok"),
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "day/missing.png")
	assert.FileExists(t, filepath.Join(dest, "day", "present.png"))
}

func TestLocal_Put_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := local.New(t.TempDir()).Put(ctx, "k", "unused")

	require.ErrorIs(t, err, context.Canceled)
}
