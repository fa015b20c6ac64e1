// Package normalize projects the run's parameter document and sample
// records onto the flat rows the downstream analysis step reads.
package normalize

import "clusterprep/internal/record"

// Reporter observes what the normalizers extracted. Implementations must not
// modify the rows they receive.
type Reporter interface {
	ProviderArea(name string)
	Parameters(params *record.Row)
	SampleCount(n int)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) ProviderArea(string)    {}
func (NopReporter) Parameters(*record.Row) {}
func (NopReporter) SampleCount(int)        {}
