package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var captureTime = time.Date(2024, 6, 1, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(captureTime))
	t.Cleanup(func() { SetClock(nil) })
}

func row(values ...string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = TextCell(v)
	}
	return cells
}

func chartTable(rows ...[]Cell) RawTable {
	return RawTable{
		Headers: []string{"Song", "Artist(s)", "Streams (billions)", "Release date"},
		Rows:    rows,
	}
}

func ptr[T any](v T) *T { return &v }

func TestNormalize_Scenario(t *testing.T) {
	freezeClock(t)

	table := RawTable{
		Headers: []string{"Song", "Artist", "Streams"},
		Rows: [][]Cell{
			row("Song A", "Artist X", "3,2"),
			row("Song B", "Artist Y", "2,9"),
			row("As of Jan 2024", "", ""),
		},
	}

	snap, err := Normalize(table, NormalizeOptions{})

	require.NoError(t, err)
	require.Len(t, snap.Songs, 2)
	assert.Equal(t, "Song A", snap.Songs[0].Title)
	assert.Equal(t, "Song B", snap.Songs[1].Title)
	assert.InDelta(t, 3.2, *snap.Songs[0].Streams, 1e-9)
	assert.InDelta(t, 2.9, *snap.Songs[1].Streams, 1e-9)
	assert.Equal(t, 1, snap.Dropped.MissingRequired)
}

func TestNormalize(t *testing.T) {
	t.Run("stamps the UTC capture date on every row", func(t *testing.T) {
		freezeClock(t)

		snap, err := Normalize(chartTable(
			row("Blinding Lights", "The Weeknd", "4.6", "29 November 2019"),
			row("Shape of You", "Ed Sheeran", "4.0", "6 January 2017"),
		), NormalizeOptions{})

		require.NoError(t, err)
		want := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, snap.CapturedOn)
		for _, s := range snap.Songs {
			assert.Equal(t, want, s.ScrapingDate)
		}
	})

	t.Run("drops rows missing required values", func(t *testing.T) {
		freezeClock(t)

		snap, err := Normalize(chartTable(
			row("Blinding Lights", "The Weeknd", "4.6"),
			row("", "Nobody", "1.0"),
			row("No Artist", "", "1.0"),
			row("No Streams", "Someone"),
		), NormalizeOptions{})

		require.NoError(t, err)
		require.Len(t, snap.Songs, 1)
		assert.Equal(t, 3, snap.Dropped.MissingRequired)
		assert.Equal(t, 4, snap.SourceRows)
	})

	t.Run("drops footnote rows in any case", func(t *testing.T) {
		freezeClock(t)

		snap, err := Normalize(chartTable(
			row("Blinding Lights", "The Weeknd", "4.6"),
			row("As of 1 June 2024", "n/a", "n/a"),
			row("AS OF today", "x", "1"),
			row("Chart (as Of May)", "x", "1"),
		), NormalizeOptions{})

		require.NoError(t, err)
		require.Len(t, snap.Songs, 1)
		assert.Equal(t, 3, snap.Dropped.Footnote)
		for _, s := range snap.Songs {
			assert.NotEmpty(t, s.Title)
			assert.NotEmpty(t, s.Artist)
			assert.False(t, IsFootnote(s.Title))
		}
	})

	t.Run("keeps unparsed streams as absent by default", func(t *testing.T) {
		freezeClock(t)

		snap, err := Normalize(chartTable(
			row("Blinding Lights", "The Weeknd", "N/A"),
		), NormalizeOptions{})

		require.NoError(t, err)
		require.Len(t, snap.Songs, 1)
		assert.Nil(t, snap.Songs[0].Streams)
		assert.Equal(t, 1, snap.UnparsedKept)
	})

	t.Run("drops unparsed streams when configured", func(t *testing.T) {
		freezeClock(t)

		snap, err := Normalize(chartTable(
			row("Blinding Lights", "The Weeknd", "N/A"),
			row("Shape of You", "Ed Sheeran", "4.0"),
		), NormalizeOptions{DropUnparsedStreams: true})

		require.NoError(t, err)
		require.Len(t, snap.Songs, 1)
		assert.Equal(t, "Shape of You", snap.Songs[0].Title)
		assert.Equal(t, 1, snap.Dropped.Unparsed)
		assert.Zero(t, snap.UnparsedKept)
	})

	t.Run("removes exact duplicates and renumbers", func(t *testing.T) {
		freezeClock(t)

		snap, err := Normalize(chartTable(
			row("Blinding Lights", "The Weeknd", "4.6", "2019"),
			row("Shape of You", "Ed Sheeran", "4.0", "2017"),
			row("Blinding Lights", "The Weeknd", "4.6", "2019"),
			row("Blinding Lights", "The Weeknd", "4.6", "2020"),
			row("Someone You Loved", "Lewis Capaldi", "3.6"),
		), NormalizeOptions{})

		require.NoError(t, err)
		var titles []string
		var ids []int
		for _, s := range snap.Songs {
			titles = append(titles, s.Title)
			ids = append(ids, s.ID)
		}
		assert.Equal(t, []string{"Blinding Lights", "Shape of You", "Blinding Lights", "Someone You Loved"}, titles)
		assert.Equal(t, []int{0, 1, 2, 3}, ids)
		assert.Equal(t, 1, snap.Dropped.Duplicate)
	})

	t.Run("duplicates compare parsed streams and absent values", func(t *testing.T) {
		freezeClock(t)

		snap, err := Normalize(chartTable(
			row("Song", "Artist", "1,234.5"),
			row("Song", "Artist", "1234.5"),
			row("Other", "Artist", "N/A"),
			row("Other", "Artist", "unknown"),
		), NormalizeOptions{})

		require.NoError(t, err)
		assert.Len(t, snap.Songs, 2)
		assert.Equal(t, 2, snap.Dropped.Duplicate)
	})

	t.Run("carries passthrough columns", func(t *testing.T) {
		freezeClock(t)

		table := RawTable{
			Headers: []string{"Rank", "Song", "Artist", "Streams", "Ref."},
			Rows: [][]Cell{
				row("1", "Blinding Lights", "The Weeknd", "4.6", "[1]"),
				row("2", "Shape of You", "Ed Sheeran", "4.0"),
			},
		}

		snap, err := Normalize(table, NormalizeOptions{})

		require.NoError(t, err)
		assert.Equal(t, []string{"rank", "ref"}, snap.ExtraColumns)
		if diff := cmp.Diff([]Cell{{Value: "2", Valid: true}, {}}, snap.Songs[1].Extra); diff != "" {
			t.Errorf("extra mismatch (-want +got):\n%s", diff)
		}
		assert.Nil(t, snap.Songs[1].ReleaseDate)
	})

	t.Run("collision keeps later column by default", func(t *testing.T) {
		freezeClock(t)

		table := RawTable{
			Headers: []string{"Song", "Title", "Artist", "Streams"},
			Rows:    [][]Cell{row("old name", "new name", "A", "1")},
		}

		snap, err := Normalize(table, NormalizeOptions{})

		require.NoError(t, err)
		assert.Equal(t, "new name", snap.Songs[0].Title)
		assert.Equal(t, []string{"song"}, snap.ExtraColumns)
		assert.Equal(t, "old name", snap.Songs[0].Extra[0].Value)
		assert.Len(t, snap.Collisions, 1)
	})

	t.Run("collision rejected when configured", func(t *testing.T) {
		table := RawTable{
			Headers: []string{"Song", "Title", "Artist", "Streams"},
			Rows:    [][]Cell{row("old name", "new name", "A", "1")},
		}

		_, err := Normalize(table, NormalizeOptions{RejectCollisions: true})

		var collErr *CollisionError
		require.ErrorAs(t, err, &collErr)
		assert.Equal(t, ColumnTitle, collErr.Collisions[0].Column)
	})

	t.Run("missing required column", func(t *testing.T) {
		table := RawTable{
			Headers: []string{"Song", "Artist", "Views"},
			Rows:    [][]Cell{row("a", "b", "1")},
		}

		_, err := Normalize(table, NormalizeOptions{})

		require.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), ColumnStreams)
	})

	t.Run("custom rules", func(t *testing.T) {
		freezeClock(t)

		rules := append([]RenameRule{{Column: ColumnStreams, Match: containsAny("plays")}}, DefaultRenameRules...)
		table := RawTable{
			Headers: []string{"Track", "Artist", "Plays"},
			Rows:    [][]Cell{row("a", "b", "1.5")},
		}

		_, err := Normalize(table, NormalizeOptions{Rules: rules})
		require.ErrorIs(t, err, ErrMissingColumn, "no rule maps Track to title")

		rules = append(rules, RenameRule{Column: ColumnTitle, Match: containsAny("track")})
		snap, err := Normalize(table, NormalizeOptions{Rules: rules})
		require.NoError(t, err)
		assert.Equal(t, ptr(1.5), snap.Songs[0].Streams)
	})
}

func TestNormalize_Deterministic(t *testing.T) {
	table := chartTable(
		row("Blinding Lights", "The Weeknd", "4.6", "2019"),
		row("Shape of You", "Ed Sheeran", "4.0", "2017"),
		row("Shape of You", "Ed Sheeran", "4.0", "2017"),
	)

	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))
	first, err := Normalize(table, NormalizeOptions{})
	require.NoError(t, err)

	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)))
	second, err := Normalize(table, NormalizeOptions{})
	require.NoError(t, err)
	SetClock(nil)

	assert.NotEqual(t, first.CapturedOn, second.CapturedOn)
	ignoreDate := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".ScrapingDate"
	}, cmp.Ignore())
	if diff := cmp.Diff(first.Songs, second.Songs, ignoreDate); diff != "" {
		t.Errorf("songs differ beyond scraping date (-first +second):\n%s", diff)
	}
}

func TestSetClock(t *testing.T) {
	t.Run("set custom clock", func(t *testing.T) {
		fixedTime := time.Date(2024, 1, 1, 15, 4, 5, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(fixedTime))
		defer SetClock(nil)

		assert.Equal(t, fixedTime, clock.Now())
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Today())
	})

	t.Run("reset to real clock", func(t *testing.T) {
		SetClock(clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		SetClock(nil)

		now := clock.Now()
		assert.True(t, time.Since(now) < time.Second)
	})
}
