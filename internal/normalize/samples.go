package normalize

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/tidwall/gjson"

	"clusterprep/internal/logger"
	"clusterprep/internal/record"
)

// SampleColumns is the flat sample schema in export order.
var SampleColumns = []string{
	"id",
	"sub_administrative_area_id",
	"season_year",
	"species",
	"age_group",
	"sex",
	"date_harvested",
	"result",
	"geolocation_precision",
	"latitude",
	"longitude",
}

// harvestedLayout matches warehouse timestamps such as
// 2023-05-01T00:00:00.000000Z (one to six fractional digits).
var harvestedLayout = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,6}Z$`)

// Stats summarises a NormalizeSamples pass.
type Stats struct {
	Samples int
	// EmptyByColumn counts rows whose column is empty after normalization.
	EmptyByColumn    map[string]int
	DatesReformatted int
	// AmbiguousResults counts samples with more than one selected
	// definitive test; their result is left empty.
	AmbiguousResults int
}

// NormalizeSamples flattens every sample, returning rows in input order.
// No sample is dropped: unreadable nested values leave their fields empty.
func NormalizeSamples(samples []gjson.Result, rep Reporter, log logger.Logger) ([]*record.Row, Stats) {
	rep.SampleCount(len(samples))
	stats := Stats{Samples: len(samples), EmptyByColumn: make(map[string]int, len(SampleColumns))}
	rows := make([]*record.Row, 0, len(samples))
	for i, sample := range samples {
		n := sampleNormalizer{sample: sample, row: record.NewRow(len(SampleColumns)), log: log.With("sample", i)}
		n.run(&stats)
		for _, col := range SampleColumns {
			if v, _ := n.row.Get(col); record.IsEmpty(v) {
				stats.EmptyByColumn[col]++
			}
		}
		rows = append(rows, n.row)
	}
	return rows, stats
}

type sampleNormalizer struct {
	sample gjson.Result
	row    *record.Row
	log    logger.Logger
}

// geolocationColumns are filled from lat_lng only.
var geolocationColumns = map[string]bool{"geolocation_precision": true, "latitude": true, "longitude": true}

func (n *sampleNormalizer) run(stats *Stats) {
	for _, col := range SampleColumns {
		if geolocationColumns[col] {
			n.row.Set(col, nil)
			continue
		}
		n.row.Set(col, record.FromResult(n.sample.Get(col)))
	}
	n.copyScalar("_id", "id")
	n.copyScalar("_sub_administrative_area._id", "sub_administrative_area_id")
	if n.reformatDate() {
		stats.DatesReformatted++
	}
	if n.selectResult() {
		stats.AmbiguousResults++
	}
	n.extractGeolocation()
}

func (n *sampleNormalizer) copyScalar(path, field string) {
	res := n.sample.Get(path)
	if record.IsScalar(res) {
		n.row.Set(field, record.FromResult(res))
		return
	}
	if res.Exists() {
		n.log.Debug("non-scalar value ignored", "path", path, "field", field)
	}
}

func (n *sampleNormalizer) reformatDate() bool {
	v, _ := n.row.Get("date_harvested")
	s, ok := v.(string)
	if !ok || !harvestedLayout.MatchString(s) {
		return false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		n.log.Debug("date_harvested is not a valid instant", "value", s, "error", err)
		return false
	}
	n.row.Set("date_harvested", ts.Format(time.DateOnly))
	return true
}

// selectResult sets result from the single selected definitive test and
// reports whether the selection was ambiguous.
func (n *sampleNormalizer) selectResult() bool {
	var selected []gjson.Result
	if tests := n.sample.Get("tests"); tests.IsArray() {
		tests.ForEach(func(_, test gjson.Result) bool {
			if test.Get("selected_definitive").Type == gjson.True {
				selected = append(selected, test)
			}
			return true
		})
	}
	n.row.Set("result", nil)
	switch len(selected) {
	case 0:
		return false
	case 1:
		res := selected[0].Get("result")
		if record.IsScalar(res) {
			n.row.Set("result", record.FromResult(res))
		} else {
			n.log.Debug("selected definitive test has no readable result")
		}
		return false
	default:
		n.log.Debug("multiple selected definitive tests; result left empty", "count", len(selected))
		return true
	}
}

func (n *sampleNormalizer) extractGeolocation() {
	if !n.sample.Get("lat_lng").Exists() {
		return
	}
	precision := n.sample.Get("lat_lng.properties.geolocation_precision")
	if record.IsScalar(precision) {
		n.row.Set("geolocation_precision", record.FromResult(precision))
	} else {
		n.row.Set("geolocation_precision", nil)
	}

	lon, lat, ok := coordinates(n.sample.Get("lat_lng.geometry.coordinates"))
	if !ok {
		n.log.Debug("lat_lng coordinates unreadable; latitude and longitude left empty")
		n.row.Set("longitude", nil)
		n.row.Set("latitude", nil)
		return
	}
	n.row.Set("longitude", lon)
	n.row.Set("latitude", lat)
}

// coordinates reads a GeoJSON position [longitude, latitude(, altitude)].
// Longer arrays are not positions, so they empty the pair.
func coordinates(res gjson.Result) (lon, lat json.Number, ok bool) {
	if !res.IsArray() {
		return "", "", false
	}
	items := res.Array()
	if len(items) < 2 || len(items) > 3 {
		return "", "", false
	}
	if items[0].Type != gjson.Number || items[1].Type != gjson.Number {
		return "", "", false
	}
	return json.Number(items[0].Raw), json.Number(items[1].Raw), true
}
