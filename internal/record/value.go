package record

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// FromResult converts a gjson lookup into a Value. Missing paths and JSON
// null both become nil; composites keep their compact source text.
func FromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return r.String()
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.JSON:
		return json.RawMessage(gjson.Get(r.Raw, "@ugly").Raw)
	}
	return nil
}

// IsScalar reports whether r is a present string, number or boolean.
func IsScalar(r gjson.Result) bool {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return true
	}
	return false
}

// RowFromObject decodes a JSON object into a Row, keeping the document's key
// order. A repeated key keeps its first position and its last value.
func RowFromObject(obj gjson.Result) *Row {
	row := NewRow(8)
	obj.ForEach(func(key, value gjson.Result) bool {
		row.Set(key.String(), FromResult(value))
		return true
	})
	return row
}
