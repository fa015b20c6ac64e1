package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"clusterprep/internal/logger"
	"clusterprep/internal/record"
)

// ErrProviderMissing reports a parameter document without a usable
// _provider._administrative_area.administrative_area value.
var ErrProviderMissing = errors.New("provider administrative area missing")

const (
	providerField    = "_provider"
	providerAreaPath = "_administrative_area.administrative_area"
	seasonYearField  = "season_year"
)

// NormalizeParams extracts the provider's administrative area, removes the
// _provider field and collapses a season_year list of strings into one
// comma separated string. params is modified in place and returned. The
// area name and the resulting row are handed to rep.
func NormalizeParams(params *record.Row, rep Reporter, log logger.Logger) (*record.Row, error) {
	area, err := providerArea(params)
	if err != nil {
		return nil, err
	}
	params.Delete(providerField)

	if v, ok := params.Get(seasonYearField); ok {
		if joined, ok := joinStrings(v); ok {
			params.Set(seasonYearField, joined)
		} else {
			log.Warn("season_year is not a list of strings; exported unchanged", "value", fmt.Sprint(v))
		}
	}

	rep.ProviderArea(area)
	rep.Parameters(params)
	return params, nil
}

func providerArea(params *record.Row) (string, error) {
	v, ok := params.Get(providerField)
	if !ok {
		return "", fmt.Errorf("%w: no %s field", ErrProviderMissing, providerField)
	}
	raw, ok := v.(json.RawMessage)
	if !ok {
		return "", fmt.Errorf("%w: %s is not an object", ErrProviderMissing, providerField)
	}
	res := gjson.GetBytes(raw, providerAreaPath)
	if !record.IsScalar(res) {
		return "", fmt.Errorf("%w: %s.%s is absent or not a scalar", ErrProviderMissing, providerField, providerAreaPath)
	}
	return res.String(), nil
}

// joinStrings collapses a JSON array whose elements are all strings. An
// empty array collapses to the empty string.
func joinStrings(v record.Value) (string, bool) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		return "", false
	}
	arr := gjson.ParseBytes(raw)
	if !arr.IsArray() {
		return "", false
	}
	items := arr.Array()
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return "", false
		}
		parts = append(parts, item.String())
	}
	return strings.Join(parts, ", "), true
}
