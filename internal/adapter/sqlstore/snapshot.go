package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSnapshotUnsupported is returned by SnapshotTo for non-SQLite drivers.
var ErrSnapshotUnsupported = errors.New("snapshot is only supported for sqlite")

// SnapshotTo writes a consistent copy of the SQLite database to outPath
// with VACUUM INTO. The copy is written beside outPath and renamed into
// place because VACUUM INTO refuses to overwrite an existing file.
func (s *Store) SnapshotTo(ctx context.Context, outPath string) error {
	if s.driver != DriverSQLite {
		return ErrSnapshotUnsupported
	}
	tmp := outPath + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}

	err := s.withDB(ctx, func(db *sql.DB) error {
		// VACUUM INTO cannot take a bound parameter.
		stmt := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(tmp, "'", "''"))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("vacuum into %s: %w", tmp, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, outPath); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
