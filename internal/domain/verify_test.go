package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySnapshot(t *testing.T) {
	day := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	stamp := func(s Song) Song {
		s.ScrapingDate = day
		return s
	}

	t.Run("clean snapshot passes", func(t *testing.T) {
		snap := Snapshot{CapturedOn: day, Songs: []Song{
			stamp(song("A", "X", ptr(1.0))),
			stamp(song("B", "Y", nil)),
		}}

		for _, c := range VerifySnapshot(snap) {
			assert.True(t, c.Passed(), "%s: %v", c.Name, c.Errors)
		}
	})

	t.Run("reports each violation", func(t *testing.T) {
		other := song("D", "W", ptr(1.0))
		other.ScrapingDate = day.AddDate(0, 0, -1)
		snap := Snapshot{CapturedOn: day, Songs: []Song{
			stamp(song("", "X", ptr(1.0))),
			stamp(song("As of May", "Y", nil)),
			stamp(song("C", "Z", ptr(2.0))),
			stamp(song("C", "Z", ptr(2.0))),
			other,
		}}

		checks := VerifySnapshot(snap)

		require.Len(t, checks, 4)
		for _, c := range checks {
			assert.False(t, c.Passed(), c.Name)
		}
		assert.Equal(t, []string{"row 3 duplicates row 2"}, checks[2].Errors)
	})
}
