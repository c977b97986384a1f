// Package chart renders the three PNG charts of a snapshot: the ten most
// streamed songs, the artists with the most entries, and streams against
// dense rank.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// Fixed output names, overwritten on every run.
const (
	TopSongsFile     = "top_10_songs.png"
	TopArtistsFile   = "top_artists.png"
	StreamsRankFile  = "streams_vs_rank.png"
	defaultWidth     = 1000
	defaultHeight    = 600
	topN             = 10
	maxLabelRunes    = 40
	placeholderLabel = "no data"
)

// Files lists the chart names in render order.
var Files = []string{TopSongsFile, TopArtistsFile, StreamsRankFile}

// Renderer writes chart PNGs into a directory.
// It implements pipeline.Plotter.
type Renderer struct {
	dir    string
	width  int
	height int
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing into dir.
func NewRenderer(dir string, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, width: defaultWidth, height: defaultHeight, logger: logger}
}

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.dir }

// Render draws all three charts and returns the written paths in order.
// A chart that fails does not prevent the others from being written.
func (r *Renderer) Render(ctx context.Context, songs []domain.Song) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	jobs := []struct {
		name string
		draw func(io.Writer) error
	}{
		{TopSongsFile, func(w io.Writer) error { return r.TopSongs(w, songs) }},
		{TopArtistsFile, func(w io.Writer) error { return r.TopArtists(w, songs) }},
		{StreamsRankFile, func(w io.Writer) error { return r.StreamsVsRank(w, songs) }},
	}

	var paths []string
	var firstErr error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(r.dir, job.name)
		if err := r.writeFile(path, job.draw); err != nil {
			r.logger.Error("chart render failed", "chart", job.name, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("render %s: %w", job.name, err)
			}
			continue
		}
		paths = append(paths, path)
	}
	return paths, firstErr
}

// writeFile renders into memory and replaces path atomically.
func (r *Renderer) writeFile(path string, draw func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// TopSongs draws the ten most streamed songs as horizontal bars, largest on top.
func (r *Renderer) TopSongs(w io.Writer, songs []domain.Song) error {
	top := domain.TopSongs(songs, topN)
	bars := make([]bar, len(top))
	for i, s := range top {
		bars[i] = bar{
			label: truncate(fmt.Sprintf("%s - %s", s.Title, s.Artist)),
			value: *s.Streams,
			text:  fmt.Sprintf("%.2f", *s.Streams),
		}
	}
	return r.horizontalBars(w, "Top 10 most streamed songs (billions)", bars)
}

// TopArtists draws the artists with the most songs in the table.
func (r *Renderer) TopArtists(w io.Writer, songs []domain.Song) error {
	top := domain.TopArtists(songs, topN)
	bars := make([]bar, len(top))
	for i, a := range top {
		bars[i] = bar{
			label: truncate(a.Artist),
			value: float64(a.Songs),
			text:  fmt.Sprintf("%d", a.Songs),
		}
	}
	return r.horizontalBars(w, "Artists with the most songs", bars)
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:maxLabelRunes-3]) + "..."
}
