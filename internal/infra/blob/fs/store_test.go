package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"clusterprep/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStore_PutGetHeadListDelete(t *testing.T) { //nolint:cyclop
	ctx := context.Background()
	store := newTempStore(t)
	info, err := store.Put(ctx, "attachments/info.html", bytes.NewReader([]byte("<p>hi</p>")), core.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "attachments/info.html" || info.Size != 9 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}
	if _, err := store.Put(ctx, "attachments/info.html", bytes.NewReader([]byte("<p>again</p>")), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	h, err := store.Head(ctx, "attachments/info.html")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if h.Size != 12 {
		t.Fatalf("expected overwritten size 12, got %d", h.Size)
	}
	_, rc, err := store.Get(ctx, "attachments/info.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(b) != "<p>again</p>" {
		t.Fatalf("unexpected content %q", b)
	}
	list, err := store.List(ctx, "attachments/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "attachments/info.html" {
		t.Fatalf("unexpected list %+v", list)
	}
	ok, err := store.Delete(ctx, "attachments/info.html")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "attachments/info.html")
	if err != nil || ok {
		t.Fatalf("second delete should be false")
	}
}

func TestStore_ReadsPlainFilesWithoutSidecars(t *testing.T) {
	store := newTempStore(t)
	if err := os.WriteFile(filepath.Join(store.Root(), "params.json"), []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	info, rc, err := store.Get(context.Background(), "params.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	if info.Size != 7 || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no sidecar files, got %d entries", len(entries))
	}
}

func TestStore_MissingKeyIsNotFound(t *testing.T) {
	store := newTempStore(t)
	ctx := context.Background()
	if _, _, err := store.Get(ctx, "sample.ndJson"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Head(ctx, "sample.ndJson"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if err := os.Mkdir(filepath.Join(store.Root(), "dir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, _, err := store.Get(ctx, "dir"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected directory to read as not found, got %v", err)
	}
}

func TestStore_PathTraversal(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"", "../escape.txt", "/abs.txt", "a/../b"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestStore_ListSkipsTempFiles(t *testing.T) {
	store := newTempStore(t)
	if err := os.WriteFile(filepath.Join(store.Root(), tempPrefix+"123"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Put(context.Background(), "sample.csv", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	list, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ContentType != "text/csv" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestNewDefaultsRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	store, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.Root() != "./data" || store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected store %+v", store)
	}
}
