package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timestampLayout sorts lexically in UTC.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// gooseMu guards goose's package-level dialect and filesystem settings.
var gooseMu sync.Mutex

// gooseLogger routes goose output through slog.
type gooseLogger struct{ logger *slog.Logger }

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "goose")
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "goose")
}

func (s *Store) gooseDialect() string {
	if s.driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// migrate applies pending audit-table migrations on db.
func (s *Store) migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: s.logger})
	if err := goose.SetDialect(s.gooseDialect()); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Migrate applies pending audit-table migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		return s.migrate(ctx, db)
	})
}

// RecordRun appends one run to the audit table, migrating it first.
func (s *Store) RecordRun(ctx context.Context, run domain.Run) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		if err := s.migrate(ctx, db); err != nil {
			return err
		}
		query := fmt.Sprintf(`INSERT INTO scrape_runs
			(run_id, started_at, captured_on, source_url, rows_parsed, rows_stored, status, error)
			VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
			s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
			s.placeholder(5), s.placeholder(6), s.placeholder(7), s.placeholder(8))

		var errText any
		if run.Error != "" {
			errText = run.Error
		}
		capturedOn := ""
		if !run.CapturedOn.IsZero() {
			capturedOn = run.CapturedOn.Format(domain.DateLayout)
		}
		_, err := db.ExecContext(ctx, query,
			run.ID,
			run.StartedAt.UTC().Format(timestampLayout),
			capturedOn,
			run.SourceURL,
			run.RowsParsed,
			run.RowsStored,
			string(run.Status),
			errText,
		)
		if err != nil {
			return fmt.Errorf("insert run %s: %w", run.ID, err)
		}
		return nil
	})
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	var runs []domain.Run
	err := s.withDB(ctx, func(db *sql.DB) error {
		if err := s.migrate(ctx, db); err != nil {
			return err
		}
		query := fmt.Sprintf(`SELECT run_id, started_at, captured_on, source_url, rows_parsed, rows_stored, status, error
			FROM scrape_runs ORDER BY started_at DESC LIMIT %d`, limit)
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				run                 domain.Run
				startedAt, captured string
				status              string
				errText             sql.NullString
			)
			if err := rows.Scan(&run.ID, &startedAt, &captured, &run.SourceURL,
				&run.RowsParsed, &run.RowsStored, &status, &errText); err != nil {
				return fmt.Errorf("scan run: %w", err)
			}
			run.StartedAt, _ = time.Parse(timestampLayout, startedAt)
			if captured != "" {
				run.CapturedOn, _ = time.Parse(domain.DateLayout, captured)
			}
			run.Status = domain.RunStatus(status)
			run.Error = errText.String
			runs = append(runs, run)
		}
		return rows.Err()
	})
	return runs, err
}
