package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clusterprep/internal/blob"
)

func seed(t *testing.T, files map[string]string) blob.Store {
	t.Helper()
	store := blob.NewMemory()
	for key, body := range files {
		_, err := store.Put(context.Background(), key, bytes.NewReader([]byte(body)), blob.PutOptions{})
		require.NoError(t, err)
	}
	return store
}

func TestLoadParams(t *testing.T) {
	t.Run("Should keep document key order", func(t *testing.T) {
		store := seed(t, map[string]string{
			"params.json": `{"season_year":["2021","2022"],"_provider":{"_administrative_area":{"administrative_area":"Region X"}},"a":1}`,
		})
		row, err := LoadParams(t.Context(), store, "params.json")
		require.NoError(t, err)
		assert.Equal(t, []string{"season_year", "_provider", "a"}, row.Keys())
		v, _ := row.Get("a")
		assert.Equal(t, json.Number("1"), v)
	})

	t.Run("Should report missing file as not found", func(t *testing.T) {
		_, err := LoadParams(t.Context(), seed(t, nil), "params.json")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should report malformed input", func(t *testing.T) {
		for _, body := range []string{`{"a":`, `[1,2]`, `"text"`, ``} {
			store := seed(t, map[string]string{"params.json": body})
			_, err := LoadParams(t.Context(), store, "params.json")
			assert.ErrorIs(t, err, ErrMalformed, body)
		}
	})

	t.Run("Should tolerate a byte order mark", func(t *testing.T) {
		store := seed(t, map[string]string{"params.json": "\xef\xbb\xbf{\"a\":true}"})
		row, err := LoadParams(t.Context(), store, "params.json")
		require.NoError(t, err)
		assert.Equal(t, 1, row.Len())
	})
}

func TestLoadSamples(t *testing.T) {
	t.Run("Should load one object per line and skip blanks", func(t *testing.T) {
		store := seed(t, map[string]string{
			"sample.ndJson": "{\"_id\":\"a\"}\r\n\n  \n{\"_id\":\"b\"}\n",
		})
		samples, err := LoadSamples(t.Context(), store, "sample.ndJson")
		require.NoError(t, err)
		require.Len(t, samples, 2)
		assert.Equal(t, "a", samples[0].Get("_id").String())
		assert.Equal(t, "b", samples[1].Get("_id").String())
	})

	t.Run("Should return no samples for an empty file", func(t *testing.T) {
		store := seed(t, map[string]string{"sample.ndJson": ""})
		samples, err := LoadSamples(t.Context(), store, "sample.ndJson")
		require.NoError(t, err)
		assert.Empty(t, samples)
	})

	t.Run("Should fail the whole load on one invalid line", func(t *testing.T) {
		store := seed(t, map[string]string{"sample.ndJson": "{\"_id\":\"a\"}\n{broken\n"})
		_, err := LoadSamples(t.Context(), store, "sample.ndJson")
		assert.ErrorIs(t, err, ErrMalformed)
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("Should reject non-object lines", func(t *testing.T) {
		store := seed(t, map[string]string{"sample.ndJson": "[1]\n"})
		_, err := LoadSamples(t.Context(), store, "sample.ndJson")
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("Should report missing file as not found", func(t *testing.T) {
		_, err := LoadSamples(t.Context(), seed(t, nil), "sample.ndJson")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
