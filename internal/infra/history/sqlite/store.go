// Package sqlite keeps the run ledger in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"clusterprep/internal/history/core"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// timestamps are fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements core.Recorder on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ core.Recorder = (*Store)(nil)

// NewStore opens (creating if needed) the database at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "clusterprep-history.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		status TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		provider_area TEXT NOT NULL DEFAULT '',
		samples INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Record(ctx context.Context, run core.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+core.Columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
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
		`SELECT `+core.Columns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Run
	for rows.Next() {
		var (
			run               core.Run
			started, finished string
			status            string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &status, &run.ExitCode, &run.ProviderArea, &run.Samples, &run.Error); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("decode started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("decode finished_at: %w", err)
		}
		run.Status = core.Status(status)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
