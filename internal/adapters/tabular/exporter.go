package tabular

import (
	"bytes"
	"context"
	"fmt"

	"clusterprep/internal/blob"
	"clusterprep/internal/record"
)

const contentType = "text/csv"

// Render writes a header of columns and one record per row. Only the listed
// columns are written; a column missing from a row is written empty.
func Render(columns []string, rows []*record.Row) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := NewWriter(buf)
	if err := writer.WriteHeader(columns); err != nil {
		return nil, err
	}
	fields := make([]record.Value, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			fields[i], _ = row.Get(column)
		}
		if err := writer.Write(fields); err != nil {
			return nil, err
		}
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export renders rows and stores them at key, replacing any earlier table.
func Export(ctx context.Context, store blob.Store, key string, columns []string, rows []*record.Row) (blob.Info, error) {
	payload, err := Render(columns, rows)
	if err != nil {
		return blob.Info{}, fmt.Errorf("render %s: %w", key, err)
	}
	info, err := store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"rows": fmt.Sprint(len(rows))},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store %s: %w", key, err)
	}
	return info, nil
}

// ExportParams writes the single-row parameter table; its columns are the
// row's own keys.
func ExportParams(ctx context.Context, store blob.Store, key string, params *record.Row) (blob.Info, error) {
	return Export(ctx, store, key, params.Keys(), []*record.Row{params})
}
