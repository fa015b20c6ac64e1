// Package ingest reads the run's input documents from the artifact store.
// A missing or unparsable input is fatal for the run; callers classify the
// failure with errors.Is against ErrNotFound and ErrMalformed.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"clusterprep/internal/blob"
	"clusterprep/internal/record"
)

var (
	// ErrNotFound reports an input key absent from the store.
	ErrNotFound = errors.New("input not found")
	// ErrMalformed reports an input that is not the expected JSON shape.
	ErrMalformed = errors.New("input malformed")
)

// LoadParams reads a single JSON object and returns it as a Row in document
// key order.
func LoadParams(ctx context.Context, store blob.Store, key string) (*record.Row, error) {
	data, err := read(ctx, store, key)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrMalformed, key)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: %s must hold a JSON object", ErrMalformed, key)
	}
	return record.RowFromObject(doc), nil
}

// LoadSamples reads newline-delimited JSON, one object per line. Blank lines
// are skipped. Any other invalid line fails the whole load.
func LoadSamples(ctx context.Context, store blob.Store, key string) ([]gjson.Result, error) {
	data, err := read(ctx, store, key)
	if err != nil {
		return nil, err
	}
	var samples []gjson.Result
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("%w: %s line %d is not valid JSON", ErrMalformed, key, i+1)
		}
		sample := gjson.ParseBytes(line)
		if !sample.IsObject() {
			return nil, fmt.Errorf("%w: %s line %d must hold a JSON object", ErrMalformed, key, i+1)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func read(ctx context.Context, store blob.Store, key string) ([]byte, error) {
	_, rc, err := store.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), nil
}
