package domain

import (
	"errors"
	"sort"
)

// ErrNoNumericStreams is returned when no song carries a numeric stream count.
var ErrNoNumericStreams = errors.New("no songs with numeric streams")

// Stats summarizes the numeric stream counts of a snapshot.
type Stats struct {
	Count int
	Total float64
	Mean  float64

	// Top is the song with the most streams; ties go to the first-seen song.
	Top Song
}

// ComputeStats aggregates songs with a present stream count.
func ComputeStats(songs []Song) (Stats, error) {
	var st Stats
	for _, s := range songs {
		if s.Streams == nil {
			continue
		}
		if st.Count == 0 || *s.Streams > *st.Top.Streams {
			st.Top = s
		}
		st.Count++
		st.Total += *s.Streams
	}
	if st.Count == 0 {
		return Stats{}, ErrNoNumericStreams
	}
	st.Mean = st.Total / float64(st.Count)
	return st, nil
}

// RankedSong pairs a song with its dense rank (1 = most streams).
type RankedSong struct {
	Song
	Rank int
}

// DenseRank orders songs with numeric streams from most to fewest streams.
// Equal values share a rank and keep their first-seen order.
func DenseRank(songs []Song) []RankedSong {
	ranked := make([]RankedSong, 0, len(songs))
	for _, s := range songs {
		if s.Streams != nil {
			ranked = append(ranked, RankedSong{Song: s})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Streams > *ranked[j].Streams
	})
	for i := range ranked {
		switch {
		case i == 0:
			ranked[i].Rank = 1
		case *ranked[i].Streams == *ranked[i-1].Streams:
			ranked[i].Rank = ranked[i-1].Rank
		default:
			ranked[i].Rank = ranked[i-1].Rank + 1
		}
	}
	return ranked
}

// TopSongs returns at most n songs with the most streams.
func TopSongs(songs []Song, n int) []RankedSong {
	ranked := DenseRank(songs)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ArtistCount is the number of chart songs credited to one artist string.
type ArtistCount struct {
	Artist string
	Songs  int
}

// TopArtists counts songs per artist over all songs and returns at most n,
// most songs first. Ties keep first-seen artist order.
func TopArtists(songs []Song, n int) []ArtistCount {
	idx := make(map[string]int)
	var counts []ArtistCount
	for _, s := range songs {
		i, ok := idx[s.Artist]
		if !ok {
			i = len(counts)
			idx[s.Artist] = i
			counts = append(counts, ArtistCount{Artist: s.Artist})
		}
		counts[i].Songs++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Songs > counts[j].Songs
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
