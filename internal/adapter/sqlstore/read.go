package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// nullText is how absent values appear in previews.
const nullText = "NULL"

// Preview returns the first limit rows of the destination table as text.
func (s *Store) Preview(ctx context.Context, limit int) (domain.TablePreview, error) {
	var out domain.TablePreview
	err := s.withDB(ctx, func(db *sql.DB) error {
		query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(s.table), limit)
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("query %s: %w", s.table, err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read columns: %w", err)
		}
		out.Columns = cols

		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
			line := make([]string, len(cols))
			for i, v := range vals {
				line[i] = formatValue(v)
			}
			out.Rows = append(out.Rows, line)
		}
		return rows.Err()
	})
	return out, err
}

// Load reads the whole destination table back into a snapshot. Row order
// follows insertion order.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(s.table))
		if err != nil {
			return fmt.Errorf("query %s: %w", s.table, err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read columns: %w", err)
		}
		pos := make(map[string]int, len(cols))
		var extraIdx []int
		for i, c := range cols {
			switch c {
			case domain.ColumnTitle, domain.ColumnArtist, domain.ColumnStreams,
				domain.ColumnReleaseDate, domain.ColumnScrapingDate:
				pos[c] = i
			default:
				extraIdx = append(extraIdx, i)
				snap.ExtraColumns = append(snap.ExtraColumns, c)
			}
		}
		for _, required := range []string{domain.ColumnTitle, domain.ColumnArtist, domain.ColumnStreams, domain.ColumnScrapingDate} {
			if _, ok := pos[required]; !ok {
				return fmt.Errorf("table %s: %w: %s", s.table, domain.ErrMissingColumn, required)
			}
		}

		for rows.Next() {
			vals := make([]sql.NullString, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
			song, err := songFromRow(vals, pos, extraIdx)
			if err != nil {
				return fmt.Errorf("row %d: %w", len(snap.Songs), err)
			}
			song.ID = len(snap.Songs)
			snap.Songs = append(snap.Songs, song)
		}
		return rows.Err()
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.SourceRows = len(snap.Songs)
	if len(snap.Songs) > 0 {
		snap.CapturedOn = snap.Songs[0].ScrapingDate
	}
	return snap, nil
}

func songFromRow(vals []sql.NullString, pos map[string]int, extraIdx []int) (domain.Song, error) {
	song := domain.Song{
		Title:  vals[pos[domain.ColumnTitle]].String,
		Artist: vals[pos[domain.ColumnArtist]].String,
	}
	if v := vals[pos[domain.ColumnStreams]]; v.Valid {
		f, err := strconv.ParseFloat(v.String, 64)
		if err != nil {
			return domain.Song{}, fmt.Errorf("parse %s: %w", domain.ColumnStreams, err)
		}
		song.Streams = &f
	}
	if i, ok := pos[domain.ColumnReleaseDate]; ok && vals[i].Valid {
		release := vals[i].String
		song.ReleaseDate = &release
	}
	date, err := parseDate(vals[pos[domain.ColumnScrapingDate]].String)
	if err != nil {
		return domain.Song{}, err
	}
	song.ScrapingDate = date
	for _, i := range extraIdx {
		song.Extra = append(song.Extra, domain.Cell{Value: vals[i].String, Valid: vals[i].Valid})
	}
	return song, nil
}

// parseDate accepts the stored date text, or a timestamp rendered by drivers
// that return date columns as time values.
func parseDate(s string) (time.Time, error) {
	if len(s) >= len(domain.DateLayout) {
		if t, err := time.Parse(domain.DateLayout, s[:len(domain.DateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse %s %q", domain.ColumnScrapingDate, s)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return nullText
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
