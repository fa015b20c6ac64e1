// Package record holds the ordered key/value rows that flow from the
// normalizers to the tabular exporter and the run report.
package record

import (
	"encoding/json"
	"slices"
)

// Value is a decoded JSON value: nil (absent or null), string, json.Number,
// bool, or json.RawMessage for objects and arrays.
type Value = any

// Row is an insertion-ordered mapping from field name to Value. The zero
// value is ready to use.
type Row struct {
	keys   []string
	values map[string]Value
}

// NewRow returns an empty row with room for n fields.
func NewRow(n int) *Row {
	return &Row{keys: make([]string, 0, n), values: make(map[string]Value, n)}
}

// Get returns the value stored under key and whether the key is present.
// A present key may hold nil.
func (r *Row) Get(key string) (Value, bool) {
	if r == nil || r.values == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Row) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores v under key. Existing keys keep their position; new keys are
// appended.
func (r *Row) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Delete removes key, returning false when it was absent.
func (r *Row) Delete(key string) bool {
	if _, ok := r.Get(key); !ok {
		return false
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns the field names in insertion order.
func (r *Row) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Len returns the number of fields.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// IsEmpty reports whether v renders as an empty cell.
func IsEmpty(v Value) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case json.RawMessage:
		return len(t) == 0 || string(t) == "null"
	default:
		return false
	}
}
