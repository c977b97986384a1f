package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// ErrMissingColumn is returned when a required column has no source column.
var ErrMissingColumn = errors.New("required column missing")

// footnoteMarker is the case-folded text that identifies footnote rows.
const footnoteMarker = "as of"

// NormalizeOptions controls the cleaning policy.
type NormalizeOptions struct {
	// Rules defaults to DefaultRenameRules when nil.
	Rules []RenameRule

	// RejectCollisions turns header collisions into a CollisionError.
	RejectCollisions bool

	// DropUnparsedStreams removes rows whose streams did not parse instead
	// of keeping them with an absent value.
	DropUnparsedStreams bool
}

// Normalize turns a raw table into a cleaned snapshot stamped with today's date.
// Steps run in a fixed order: rename columns, drop rows missing required
// values, drop footnote rows, coerce streams, dedupe, stamp.
func Normalize(table RawTable, opts NormalizeOptions) (Snapshot, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRenameRules
	}

	cm := ResolveColumns(table.Headers, rules)
	if len(cm.Collisions) > 0 && opts.RejectCollisions {
		return Snapshot{}, &CollisionError{Collisions: cm.Collisions}
	}
	if missing := cm.missing(); len(missing) > 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	snap := Snapshot{
		ExtraColumns: cm.ExtraNames,
		Collisions:   cm.Collisions,
		SourceRows:   len(table.Rows),
		CapturedOn:   Today(),
	}

	seen := make(map[string]bool, len(table.Rows))
	for _, row := range table.Rows {
		title := cellAt(row, cm.Index[ColumnTitle])
		artist := cellAt(row, cm.Index[ColumnArtist])
		rawStreams := cellAt(row, cm.Index[ColumnStreams])
		if !title.Valid || !artist.Valid || !rawStreams.Valid {
			snap.Dropped.MissingRequired++
			continue
		}
		if IsFootnote(title.Value) {
			snap.Dropped.Footnote++
			continue
		}

		song := Song{Title: title.Value, Artist: artist.Value}
		if v, ok := ParseStreams(rawStreams.Value); ok {
			song.Streams = &v
		} else if opts.DropUnparsedStreams {
			snap.Dropped.Unparsed++
			continue
		}
		if idx, ok := cm.Index[ColumnReleaseDate]; ok {
			if c := cellAt(row, idx); c.Valid {
				release := c.Value
				song.ReleaseDate = &release
			}
		}
		song.Extra = make([]Cell, len(cm.Extra))
		for j, idx := range cm.Extra {
			song.Extra[j] = cellAt(row, idx)
		}

		key := rowKey(song)
		if seen[key] {
			snap.Dropped.Duplicate++
			continue
		}
		seen[key] = true

		song.ID = len(snap.Songs)
		song.ScrapingDate = snap.CapturedOn
		if song.Streams == nil {
			snap.UnparsedKept++
		}
		snap.Songs = append(snap.Songs, song)
	}
	return snap, nil
}

// IsFootnote reports whether a title marks a footnote row ("As of ...").
func IsFootnote(title string) bool {
	return strings.Contains(cases.Fold().String(title), footnoteMarker)
}

func cellAt(row []Cell, idx int) Cell {
	if idx < 0 || idx >= len(row) {
		return Cell{}
	}
	return row[idx]
}

// rowKey identifies a row by every column value; absent values compare equal.
func rowKey(s Song) string {
	var b strings.Builder
	field := func(v string, ok bool) {
		if ok {
			b.WriteByte('v')
			b.WriteString(strconv.Quote(v))
		} else {
			b.WriteByte('-')
		}
		b.WriteByte('|')
	}
	field(s.Title, true)
	field(s.Artist, true)
	if s.Streams != nil {
		field(strconv.FormatFloat(*s.Streams, 'g', -1, 64), true)
	} else {
		field("", false)
	}
	if s.ReleaseDate != nil {
		field(*s.ReleaseDate, true)
	} else {
		field("", false)
	}
	for _, c := range s.Extra {
		field(c.Value, c.Valid)
	}
	return b.String()
}
