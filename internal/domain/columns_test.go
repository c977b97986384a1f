package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Song", "song"},
		{"  Streams (billions) ", "streams_billions"},
		{"Artist(s)", "artists"},
		{"Release date", "release_date"},
		{"Ref.", "ref"},
		{"Rank\u00a0#", "rank"},
		{"Rank #", "rank_"},
		{"", ""},
		{"Ünïcode Title", "ncode_title"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalHeader(tt.in))
		})
	}
}

func TestCanonicalHeader_Idempotent(t *testing.T) {
	inputs := []string{
		"Song", " Streams (billions) ", "Artist(s)", "Published on", "İstanbul",
		"a  b\tc", "__x__", "12 Monkeys", " Title ", "Ref.[1]", "—",
	}
	for _, in := range inputs {
		once := CanonicalHeader(in)
		assert.Equal(t, once, CanonicalHeader(once), "input %q", in)
	}
}

func TestResolveColumns(t *testing.T) {
	t.Run("chart headers", func(t *testing.T) {
		cm := ResolveColumns([]string{"Rank", "Song", "Artist(s)", "Streams (billions)", "Release date", "Ref."}, DefaultRenameRules)

		assert.Equal(t, map[string]int{
			ColumnTitle:       1,
			ColumnArtist:      2,
			ColumnStreams:     3,
			ColumnReleaseDate: 4,
		}, cm.Index)
		assert.Equal(t, []int{0, 5}, cm.Extra)
		assert.Equal(t, []string{"rank", "ref"}, cm.ExtraNames)
		assert.Empty(t, cm.Collisions)
	})

	t.Run("first matching rule wins", func(t *testing.T) {
		// "song_streams" matches both the title and streams rules.
		cm := ResolveColumns([]string{"Song streams", "Artist", "Streams"}, DefaultRenameRules)

		assert.Equal(t, 0, cm.Index[ColumnTitle])
		assert.Equal(t, 2, cm.Index[ColumnStreams])
	})

	t.Run("later column wins a collision", func(t *testing.T) {
		cm := ResolveColumns([]string{"Song", "Title", "Artist", "Streams"}, DefaultRenameRules)

		assert.Equal(t, 1, cm.Index[ColumnTitle])
		assert.Equal(t, []Collision{{Column: ColumnTitle, Kept: "Title", Shadowed: "Song"}}, cm.Collisions)
		assert.Equal(t, []int{0}, cm.Extra)
		assert.Equal(t, []string{"song"}, cm.ExtraNames)
	})

	t.Run("passthrough names are unique", func(t *testing.T) {
		cm := ResolveColumns([]string{"Song", "Artist", "Streams", "Notes", "notes", "", "Scraping date"}, DefaultRenameRules)

		assert.Equal(t, []string{"notes", "notes_2", "column_5", "scraping_date_2"}, cm.ExtraNames)
	})

	t.Run("missing required columns", func(t *testing.T) {
		cm := ResolveColumns([]string{"Song", "Views"}, DefaultRenameRules)

		assert.Equal(t, []string{ColumnArtist, ColumnStreams}, cm.missing())
	})
}

func TestCollisionError(t *testing.T) {
	err := &CollisionError{Collisions: []Collision{{Column: ColumnTitle, Kept: "Title", Shadowed: "Song"}}}

	assert.Equal(t, `header collision: "Song" and "Title" both map to title`, err.Error())
}
