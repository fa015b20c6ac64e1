// Package app runs one input-preparation pass: it loads the parameter and
// sample documents, normalizes them, writes the tables and reports how the
// run went.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"clusterprep/internal/adapters/tabular"
	"clusterprep/internal/blob"
	"clusterprep/internal/config"
	"clusterprep/internal/history"
	"clusterprep/internal/ingest"
	"clusterprep/internal/logger"
	"clusterprep/internal/metrics"
	"clusterprep/internal/normalize"
	"clusterprep/internal/record"
	"clusterprep/internal/report"
)

const (
	ExitOK      = 0
	ExitFailure = 1
)

// Result describes a finished run.
type Result struct {
	RunID        string
	ExitCode     int
	ProviderArea string
	Stats        normalize.Stats
	Err          error
}

// Runner executes runs against one artifact store.
type Runner struct {
	cfg     *config.Config
	store   blob.Store
	history history.Recorder
	console io.Writer
	now     func() time.Time
	newID   func() string
}

type Option func(*Runner)

// WithStore replaces the store built from the configuration.
func WithStore(store blob.Store) Option { return func(r *Runner) { r.store = store } }

// WithHistory replaces the ledger opened from the configuration.
func WithHistory(rec history.Recorder) Option { return func(r *Runner) { r.history = rec } }

// WithConsole sets where the execution log is mirrored when console logging
// is enabled. Defaults to stderr.
func WithConsole(w io.Writer) Option { return func(r *Runner) { r.console = w } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New builds a runner. The artifact store is opened here; a store that
// cannot be opened fails construction.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{cfg: cfg, console: os.Stderr, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		store, err := blob.Open(ctx, cfg.BlobOptions())
		if err != nil {
			return nil, fmt.Errorf("open artifact store: %w", err)
		}
		r.store = store
	}
	return r, nil
}

// Store returns the artifact store the runner reads and writes.
func (r *Runner) Store() blob.Store { return r.store }

// stageError carries the diagnostic shown in the run summary.
type stageError struct {
	diagnostic string
	err        error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func fatal(diagnostic string, err error) error {
	return &stageError{diagnostic: diagnostic, err: err}
}

type run struct {
	*Runner
	id      string
	started time.Time
	log     logger.Logger
	execLog *logger.ExecutionLog
	summary *report.HTML
	metrics *metrics.Recorder
	ledger  history.Recorder
	result  Result
}

// providerCapture keeps the provider area for the ledger while forwarding
// everything to the summary.
type providerCapture struct {
	*report.HTML
	result *Result
}

func (p providerCapture) ProviderArea(name string) {
	p.result.ProviderArea = name
	p.HTML.ProviderArea(name)
}

// Run performs one pass and returns its result; Result.ExitCode is the
// process exit code.
func (r *Runner) Run(ctx context.Context) Result {
	var tee io.Writer
	if r.cfg.Log.Console {
		tee = r.console
	}
	execLog := logger.NewExecutionLog(tee)
	lvl, err := logger.ParseLevel(r.cfg.Log.Level)
	if err != nil {
		lvl = logger.DebugLevel
	}
	rn := &run{
		Runner:  r,
		id:      r.newID(),
		started: r.now(),
		execLog: execLog,
		log:     execLog.Logger(lvl, r.cfg.Log.JSON),
		summary: report.NewHTML(),
		metrics: metrics.NewRecorder(),
	}
	rn.result.RunID = rn.id
	ctx = logger.ContextWithLogger(ctx, rn.log)

	func() {
		defer func() {
			if p := recover(); p != nil {
				rn.log.Error("Uncaught panic", "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
				rn.result.Err = fatal("Unexpected error during input processing. Execution halted.", fmt.Errorf("panic: %v", p))
			}
		}()
		rn.result.Err = rn.execute(ctx)
	}()

	if rn.result.Err != nil {
		rn.result.ExitCode = ExitFailure
		var se *stageError
		if errors.As(rn.result.Err, &se) {
			rn.log.Fatal(se.diagnostic, "error", se.err)
			rn.summary.Fatal(se.diagnostic)
		}
	}
	rn.finish(ctx)
	return rn.result
}

func (rn *run) execute(ctx context.Context) error {
	rn.ledger = rn.openLedger(ctx)
	if err := rn.writeManifest(ctx); err != nil {
		return fatal("Attachments manifest could not be written.", err)
	}

	rn.summary.Start(rn.started)
	rn.log.Info("Model: "+report.ModelName, "run_id", rn.id)
	rn.log.Info("Date: " + rn.started.UTC().Format(report.DateLayout) + " GMT")
	rn.log.Info("This log records data for debugging purposes in the case of a model execution error.")

	if err := rn.processParams(ctx); err != nil {
		return err
	}
	if err := rn.processSamples(ctx); err != nil {
		return err
	}
	rn.log.Info("Model input processing successfully completed.")
	return nil
}

func (rn *run) writeManifest(ctx context.Context) error {
	manifest := report.NewManifest()
	for _, a := range report.DefaultAttachments(config.ExecutionLogFile, config.ReportFile) {
		manifest.Add(a)
	}
	payload, err := manifest.Bytes()
	if err != nil {
		return err
	}
	return rn.put(ctx, rn.cfg.Outputs.Manifest, payload, "application/json")
}

func (rn *run) processParams(ctx context.Context) error {
	key := rn.cfg.Inputs.Params
	row, err := stage(ctx, rn, "load_params", func() (*record.Row, error) {
		return ingest.LoadParams(ctx, rn.store, key)
	})
	switch {
	case errors.Is(err, ingest.ErrNotFound):
		return fatal(fmt.Sprintf("Parameters (%s) file not found.", key), err)
	case err != nil:
		return fatal(fmt.Sprintf("Parameters (%s) file could not be read as a JSON object.", key), err)
	}
	rn.log.Info("Parameter file loaded successfully")

	row, err = stage(ctx, rn, "normalize_params", func() (*record.Row, error) {
		return normalize.NormalizeParams(row, providerCapture{HTML: rn.summary, result: &rn.result}, rn.log)
	})
	if err != nil {
		return fatal(fmt.Sprintf("Parameters (%s) do not name the provider's administrative area.", key), err)
	}

	if _, err := stage(ctx, rn, "export_params", func() (blob.Info, error) {
		return tabular.ExportParams(ctx, rn.store, rn.cfg.Outputs.ParamsTable, row)
	}); err != nil {
		return fatal("Parameters table could not be written.", err)
	}
	return nil
}

func (rn *run) processSamples(ctx context.Context) error {
	key := rn.cfg.Inputs.Samples
	samples, err := stage(ctx, rn, "load_samples", func() ([]gjson.Result, error) {
		return ingest.LoadSamples(ctx, rn.store, key)
	})
	switch {
	case errors.Is(err, ingest.ErrNotFound):
		return fatal(fmt.Sprintf("Samples (%s) file not found. Sample data are required to run this model. Execution halted.", key), err)
	case err != nil:
		return fatal(fmt.Sprintf("Samples (%s) file could not be parsed. Execution halted.", key), err)
	}
	rn.log.Info("Sample file loaded successfully", "samples", len(samples))

	rows, stats := normalize.NormalizeSamples(samples, rn.summary, rn.log)
	rn.result.Stats = stats
	rn.metrics.SampleStats(stats.Samples, stats.EmptyByColumn, stats.DatesReformatted, stats.AmbiguousResults)
	if stats.AmbiguousResults > 0 {
		rn.log.Warn("samples with more than one selected definitive test exported without a result", "count", stats.AmbiguousResults)
	}

	if _, err := stage(ctx, rn, "export_samples", func() (blob.Info, error) {
		return tabular.Export(ctx, rn.store, rn.cfg.Outputs.SampleTable, normalize.SampleColumns, rows)
	}); err != nil {
		return fatal("Sample table could not be written.", err)
	}
	return nil
}

// stage times fn and records its outcome.
func stage[T any](ctx context.Context, rn *run, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	rn.metrics.Observe(ctx, name, err == nil, time.Since(start))
	return out, err
}

func (rn *run) put(ctx context.Context, key string, payload []byte, contentType string) error {
	_, err := rn.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
