// Package postgres keeps the run ledger in Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"clusterprep/internal/history/core"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/clusterprep?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store implements core.Recorder on Postgres.
type Store struct {
	db *sql.DB
}

var _ core.Recorder = (*Store)(nil)

// NewStore connects with dsn (falls back to defaultDSN) and ensures the runs
// table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureRunsTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func ensureRunsTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		provider_area TEXT NOT NULL DEFAULT '',
		samples INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure runs table: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, run core.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+core.Columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		string(run.Status),
		run.ExitCode,
		run.ProviderArea,
		run.Samples,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, limit int) ([]core.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+core.Columns+` FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Run
	for rows.Next() {
		var (
			run    core.Run
			status string
		)
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &status, &run.ExitCode, &run.ProviderArea, &run.Samples, &run.Error); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		run.Status = core.Status(status)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
