package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clusterprep/internal/history/core"
)

func TestStoreRecordAndList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Path() != path {
		t.Fatalf("unexpected path %s", store.Path())
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []core.Run{
		{ID: "a", StartedAt: base, FinishedAt: base.Add(time.Second), Status: core.StatusSucceeded, ProviderArea: "Region X", Samples: 3},
		{ID: "b", StartedAt: base.Add(time.Minute + 500*time.Millisecond), FinishedAt: base.Add(2 * time.Minute), Status: core.StatusFailed, ExitCode: 1, Error: "input not found: sample.ndJson"},
		{ID: "c", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute), Status: core.StatusSucceeded},
	}
	for _, r := range runs {
		if err := store.Record(ctx, r); err != nil {
			t.Fatalf("Record %s: %v", r.ID, err)
		}
	}
	if err := store.Record(ctx, runs[0]); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}

	got, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("expected newest first [b c], got %+v", got)
	}
	if got[0].ExitCode != 1 || got[0].Status != core.StatusFailed || got[0].Error == "" {
		t.Fatalf("unexpected failed run %+v", got[0])
	}
	if !got[0].StartedAt.Equal(runs[1].StartedAt) {
		t.Fatalf("timestamp not preserved: %v", got[0].StartedAt)
	}

	all, err := store.List(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected default limit to list all 3, got %d (%v)", len(all), err)
	}
	if all[2].ProviderArea != "Region X" || all[2].Samples != 3 {
		t.Fatalf("unexpected oldest run %+v", all[2])
	}
}

func TestStoreReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	now := time.Now()
	if err := store.Record(ctx, core.Run{ID: "x", StartedAt: now, FinishedAt: now, Status: core.StatusSucceeded}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	reopened, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.List(ctx, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected persisted run, got %v %v", runs, err)
	}
}
