package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"clusterprep/internal/blob/core"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	md := map[string]string{"role": "feedback"}
	if _, err := s.Put(ctx, "attachments/info.html", bytes.NewReader([]byte("a")), core.PutOptions{ContentType: "text/html", Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["role"] = "mutated"
	if _, err := s.Put(ctx, "attachments/info.html", bytes.NewReader([]byte("ab")), core.PutOptions{ContentType: "text/html", Metadata: map[string]string{"role": "feedback"}}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	info, rc, err := s.Get(ctx, "attachments/info.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "ab" || info.Metadata["role"] != "feedback" {
		t.Fatalf("unexpected get %q %+v", b, info)
	}
	if got := string(s.Bytes("attachments/info.html")); got != "ab" {
		t.Fatalf("bytes: %q", got)
	}
	if s.Bytes("missing") != nil {
		t.Fatalf("expected nil bytes for missing key")
	}
	if _, err := s.Put(ctx, "sample.csv", bytes.NewReader(nil), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, _ := s.List(ctx, "attachments/")
	if len(list) != 1 {
		t.Fatalf("expected 1 listed, got %d", len(list))
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 || all[0].Key != "attachments/info.html" {
		t.Fatalf("unexpected full list %+v", all)
	}
	if ok, _ := s.Delete(ctx, "sample.csv"); !ok {
		t.Fatalf("expected delete true")
	}
	if ok, _ := s.Delete(ctx, "sample.csv"); ok {
		t.Fatalf("expected delete false")
	}
}

func TestMemoryStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, _, err := s.Get(ctx, "params.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Head(ctx, "params.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Put(ctx, " ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
}
