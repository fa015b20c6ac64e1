// Package metrics aggregates per-run counters in a Prometheus registry and
// renders them in the text exposition format so a run can store them next
// to its other artifacts.
package metrics

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "clusterprep"

// Recorder tracks stage outcomes and sample statistics for one run.
type Recorder struct {
	registry         *prometheus.Registry
	stageSeconds     *prometheus.CounterVec
	stageResults     *prometheus.CounterVec
	samples          prometheus.Gauge
	emptyFields      *prometheus.GaugeVec
	datesReformatted prometheus.Gauge
	ambiguous        prometheus.Gauge
	exitCode         prometheus.Gauge
}

// NewRecorder builds a recorder on its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds_total",
			Help:      "Time spent in each pipeline stage.",
		}, []string{"stage"}),
		stageResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Pipeline stage outcomes by status.",
		}, []string{"stage", "status"}),
		samples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "samples",
			Help:      "Samples read from the warehouse export.",
		}),
		emptyFields: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sample_empty_fields",
			Help:      "Samples whose column is empty after normalization.",
		}, []string{"column"}),
		datesReformatted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dates_reformatted",
			Help:      "date_harvested values shortened to a calendar date.",
		}),
		ambiguous: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ambiguous_results",
			Help:      "Samples with more than one selected definitive test.",
		}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exit_code",
			Help:      "Process exit code of the run.",
		}),
	}
	r.registry.MustRegister(r.stageSeconds, r.stageResults, r.samples, r.emptyFields, r.datesReformatted, r.ambiguous, r.exitCode)
	return r
}

// Observe records a stage outcome.
func (r *Recorder) Observe(_ context.Context, stage string, success bool, duration time.Duration) {
	if stage == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.stageSeconds.WithLabelValues(stage).Add(duration.Seconds())
	r.stageResults.WithLabelValues(stage, status).Inc()
}

// SampleStats records the sample normalization summary.
func (r *Recorder) SampleStats(samples int, emptyByColumn map[string]int, datesReformatted, ambiguous int) {
	r.samples.Set(float64(samples))
	for column, n := range emptyByColumn {
		r.emptyFields.WithLabelValues(column).Set(float64(n))
	}
	r.datesReformatted.Set(float64(datesReformatted))
	r.ambiguous.Set(float64(ambiguous))
}

func (r *Recorder) ExitCode(code int) {
	r.exitCode.Set(float64(code))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Text renders every gathered family in the Prometheus text format.
func (r *Recorder) Text() ([]byte, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}
