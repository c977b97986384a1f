package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// Replace drops the destination table and recreates it with the snapshot's
// rows inside one transaction. On error the previous table is left intact.
func (s *Store) Replace(ctx context.Context, snap domain.Snapshot) error {
	return s.withDB(ctx, func(db *sql.DB) (err error) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(s.table)); err != nil {
			return fmt.Errorf("drop table %s: %w", s.table, err)
		}
		if _, err = tx.ExecContext(ctx, s.createTableSQL(snap.ExtraColumns)); err != nil {
			return fmt.Errorf("create table %s: %w", s.table, err)
		}

		stmt, err := tx.PrepareContext(ctx, s.insertSQL(snap.Columns()))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, song := range snap.Songs {
			if _, err = stmt.ExecContext(ctx, rowValues(song)...); err != nil {
				return fmt.Errorf("insert row %d: %w", song.ID, err)
			}
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		s.logger.Debug("table replaced", "table", s.table, "rows", len(snap.Songs))
		return nil
	})
}

func (s *Store) createTableSQL(extra []string) string {
	cols := []string{
		quoteIdent(domain.ColumnTitle) + " TEXT NOT NULL",
		quoteIdent(domain.ColumnArtist) + " TEXT NOT NULL",
		quoteIdent(domain.ColumnStreams) + " " + s.realType(),
		quoteIdent(domain.ColumnReleaseDate) + " TEXT",
		quoteIdent(domain.ColumnScrapingDate) + " TEXT NOT NULL",
	}
	for _, name := range extra {
		cols = append(cols, quoteIdent(name)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(s.table), strings.Join(cols, ", "))
}

func (s *Store) insertSQL(columns []string) string {
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c)
		marks[i] = s.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

func rowValues(song domain.Song) []any {
	vals := []any{
		song.Title,
		song.Artist,
		nullFloat(song.Streams),
		nullString(song.ReleaseDate),
		song.ScrapingDate.Format(domain.DateLayout),
	}
	for _, c := range song.Extra {
		if c.Valid {
			vals = append(vals, c.Value)
		} else {
			vals = append(vals, nil)
		}
	}
	return vals
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
