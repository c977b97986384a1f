// Package sqlstore persists chart snapshots to SQLite or PostgreSQL.
//
// Every operation opens its own connection and closes it before returning,
// so a run never holds the database between stages.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const busyTimeoutMs = 5000

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidTable is returned for table names that are not plain identifiers.
var ErrInvalidTable = errors.New("invalid table name")

// Config selects the database and destination table.
type Config struct {
	Driver string
	DSN    string
	Table  string
}

// Store reads and writes one destination table plus the run audit table.
type Store struct {
	driver string
	dsn    string
	table  string
	logger *slog.Logger

	// connect is swapped in tests.
	connect func(ctx context.Context) (*sql.DB, error)
}

// New validates cfg and returns a store. No connection is opened.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if !identRe.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, cfg.Table)
	}
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	s := &Store{driver: cfg.Driver, dsn: cfg.DSN, table: cfg.Table, logger: logger}
	switch cfg.Driver {
	case DriverSQLite:
		s.connect = s.openDriver("sqlite", dsnWithPragma(cfg.DSN))
	case DriverPostgres:
		s.connect = s.openDriver("pgx", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return s, nil
}

// Table returns the destination table name.
func (s *Store) Table() string { return s.table }

// Location describes where rows are stored, for console output.
func (s *Store) Location() string {
	if s.driver == DriverSQLite {
		return s.dsn
	}
	return s.driver + ":" + s.table
}

func dsnWithPragma(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)", path, sep, busyTimeoutMs)
}

func (s *Store) openDriver(name, dsn string) func(ctx context.Context) (*sql.DB, error) {
	return func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open(name, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s database: %w", s.driver, err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping %s database: %w", s.driver, err)
		}
		return db, nil
	}
}

// withDB runs fn on a fresh connection and always closes it.
func (s *Store) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			s.logger.Warn("close database", "error", cerr)
		}
	}()
	return fn(db)
}

func (s *Store) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *Store) realType() string {
	if s.driver == DriverPostgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
