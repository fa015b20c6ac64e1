package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"clusterprep/internal/history/core"
	"clusterprep/internal/infra/history/postgres/testutil"
)

func TestNewStoreCreatesRunsTable(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.DB() != db {
		t.Fatalf("expected stub db")
	}
	if len(conn.Execs) != 1 || !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS runs") {
		t.Fatalf("expected runs DDL, got %v", conn.Execs)
	}
}

func TestRecordAndList(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	ctx := context.Background()
	store, err := NewStore(ctx, "ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := core.Run{ID: "r1", StartedAt: started, FinishedAt: started.Add(time.Second), Status: core.StatusSucceeded, ProviderArea: "Region X", Samples: 2}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := len(conn.Tables["runs"]); got != 1 {
		t.Fatalf("expected one stored row, got %d", got)
	}
	runs, err := store.List(ctx, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "r1" || runs[0].Samples != 2 || runs[0].Status != core.StatusSucceeded {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if !runs[0].StartedAt.Equal(started) {
		t.Fatalf("started_at not preserved: %v", runs[0].StartedAt)
	}
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("no driver") })
	if _, err := NewStore(ctx, "x"); err == nil || !strings.Contains(err.Error(), "open postgres") {
		t.Fatalf("expected open error, got %v", err)
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	if _, err := NewStore(ctx, "x"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
	restore()

	db, conn = testutil.NewStubDB()
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore(ctx, "x")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailExec = true
	if err := store.Record(ctx, core.Run{ID: "r"}); err == nil {
		t.Fatalf("expected insert error")
	}
	conn.FailExec = false
	conn.RowsErr = errors.New("rows broke")
	if _, err := store.List(ctx, 1); err == nil {
		t.Fatalf("expected rows error")
	}
}

func TestLiveRoundTrip(t *testing.T) {
	dsn := os.Getenv("CLUSTERPREP_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CLUSTERPREP_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()
	if err := store.Record(ctx, core.Run{ID: id, StartedAt: now.Add(time.Hour), FinishedAt: now.Add(time.Hour), Status: core.StatusFailed, ExitCode: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	runs, err := store.List(ctx, 1)
	if err != nil || len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("expected newest run %s first, got %+v (%v)", id, runs, err)
	}
}
