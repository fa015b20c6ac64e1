// Package tabular renders normalized rows as delimited text for the
// downstream analysis step and stores the result as an artifact.
package tabular

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"clusterprep/internal/record"
)

// Writer emits comma separated records where every non-numeric field is
// double quoted. Numbers and booleans are written bare; absent values are
// written as "". Records end with CRLF.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes column names as a quoted record.
func (w *Writer) WriteHeader(columns []string) error {
	fields := make([]record.Value, len(columns))
	for i, c := range columns {
		fields[i] = c
	}
	return w.Write(fields)
}

// Write writes one record.
func (w *Writer) Write(fields []record.Value) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.w.WriteByte(','); err != nil {
				return err
			}
		}
		text, bare := formatValue(f)
		if bare {
			if _, err := w.w.WriteString(text); err != nil {
				return err
			}
			continue
		}
		if err := w.quote(text); err != nil {
			return err
		}
	}
	_, err := w.w.WriteString("\r\n")
	return err
}

func (w *Writer) quote(s string) error {
	if err := w.w.WriteByte('"'); err != nil {
		return err
	}
	if _, err := w.w.WriteString(strings.ReplaceAll(s, `"`, `""`)); err != nil {
		return err
	}
	return w.w.WriteByte('"')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// formatValue returns the cell text and whether it is written unquoted.
func formatValue(value record.Value) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, false
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "True", true
		}
		return "False", true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case json.RawMessage:
		return string(v), false
	case fmt.Stringer:
		return v.String(), false
	default:
		return fmt.Sprint(v), false
	}
}
