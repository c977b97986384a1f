package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// songMessage is the JSON shape published for each song.
type songMessage struct {
	Key          string            `json:"key"`
	Position     int               `json:"position"`
	Title        string            `json:"title"`
	Artist       string            `json:"artist"`
	Streams      *float64          `json:"streams_billions"`
	ReleaseDate  *string           `json:"release_date"`
	ScrapingDate string            `json:"scraping_date"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// SongKey produces a deterministic identifier for a song across snapshots.
func SongKey(title, artist string) string {
	hash := sha256.Sum256([]byte(title + "|" + artist))
	return hex.EncodeToString(hash[:8])
}

// SerializeSong converts a song into a keyed message. Extra values are
// named by extraColumns; absent extras are omitted.
func SerializeSong(s Song, extraColumns []string) (OutputEvent, error) {
	key := SongKey(s.Title, s.Artist)
	msg := songMessage{
		Key:          key,
		Position:     s.ID,
		Title:        s.Title,
		Artist:       s.Artist,
		Streams:      s.Streams,
		ReleaseDate:  s.ReleaseDate,
		ScrapingDate: s.ScrapingDate.Format(DateLayout),
	}
	for i, c := range s.Extra {
		if !c.Valid || i >= len(extraColumns) {
			continue
		}
		if msg.Extra == nil {
			msg.Extra = make(map[string]string)
		}
		msg.Extra[extraColumns[i]] = c.Value
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("marshal song: %w", err)
	}
	return OutputEvent{
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			"captured_on": msg.ScrapingDate,
		},
	}, nil
}
