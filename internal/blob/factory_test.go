package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		opts   Options
		driver Driver
	}{
		{"default is fs", Options{Root: t.TempDir()}, DriverFilesystem},
		{"fs", Options{Driver: "FS", Root: t.TempDir()}, DriverFilesystem},
		{"memory", Options{Driver: "memory"}, DriverMemory},
		{"s3", Options{Driver: "s3", S3: S3Config{Bucket: "runs", Endpoint: "http://localhost:9000", PathStyle: true, AccessKeyID: "a", SecretAccessKey: "b"}}, DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.opts)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if store.Driver() != tc.driver {
				t.Fatalf("expected %s, got %s", tc.driver, store.Driver())
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Options{Driver: "gcs"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	store, err := Open(ctx, Options{Driver: "s3"})
	if err == nil || store != nil {
		t.Fatalf("expected missing bucket error and nil store, got %v %v", store, err)
	}
}

func TestMockS3RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockS3ForTests()
	if _, err := store.Put(ctx, "params.csv", bytes.NewReader([]byte("\"a\"\r\n")), PutOptions{ContentType: "text/csv"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Head(ctx, "params.csv"); err != nil {
		t.Fatalf("head: %v", err)
	}
	if _, err := store.Head(ctx, "sample.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
