package app

import (
	"context"
	"fmt"
	"os"

	"clusterprep/internal/history"
	"clusterprep/internal/logger"
)

// openLedger opens the configured history ledger. The ledger is optional:
// failures are logged and the run continues without it.
func (rn *run) openLedger(ctx context.Context) history.Recorder {
	if rn.history != nil {
		return rn.history
	}
	rec, err := history.Open(ctx, rn.cfg.History.Driver, rn.cfg.HistoryDSN())
	if err != nil {
		rn.log.Warn("run history unavailable", "driver", rn.cfg.History.Driver, "error", err)
		return history.Nop{}
	}
	return rec
}

// finish records metrics and history, then stores the summary and the
// execution log. Only a failure to store those two changes the exit code.
func (rn *run) finish(ctx context.Context) {
	log := logger.FromContext(ctx)
	rn.metrics.ExitCode(rn.result.ExitCode)
	if rn.cfg.Metrics.Enabled {
		if err := rn.writeMetrics(ctx); err != nil {
			log.Warn("metrics not written", "key", rn.cfg.Metrics.Key, "error", err)
		}
	}
	rn.recordHistory(ctx, log)

	if err := rn.put(ctx, rn.cfg.ReportKey(), rn.summary.Bytes(), "text/html"); err != nil {
		log.Error("execution summary not written", "error", err)
		rn.fail(err)
	}
	if err := rn.put(ctx, rn.cfg.ExecutionLogKey(), rn.execLog.Bytes(), "text/plain"); err != nil {
		// the execution log itself is gone; tell the console
		fmt.Fprintf(os.Stderr, "execution log not written: %v\n", err)
		rn.fail(err)
	}
}

func (rn *run) writeMetrics(ctx context.Context) error {
	payload, err := rn.metrics.Text()
	if err != nil {
		return err
	}
	return rn.put(ctx, rn.cfg.Metrics.Key, payload, "text/plain; version=0.0.4")
}

func (rn *run) recordHistory(ctx context.Context, log logger.Logger) {
	if rn.ledger == nil {
		return
	}
	status := history.StatusSucceeded
	if rn.result.ExitCode != ExitOK {
		status = history.StatusFailed
	}
	entry := history.Run{
		ID:           rn.id,
		StartedAt:    rn.started,
		FinishedAt:   rn.now(),
		Status:       status,
		ExitCode:     rn.result.ExitCode,
		ProviderArea: rn.result.ProviderArea,
		Samples:      rn.result.Stats.Samples,
	}
	if rn.result.Err != nil {
		entry.Error = rn.result.Err.Error()
	}
	if err := rn.ledger.Record(ctx, entry); err != nil {
		log.Warn("run not recorded in history", "error", err)
	}
	// injected ledgers belong to the caller
	if rn.history == nil {
		if err := rn.ledger.Close(); err != nil {
			log.Warn("closing run history", "error", err)
		}
	}
}

func (rn *run) fail(err error) {
	rn.result.ExitCode = ExitFailure
	if rn.result.Err == nil {
		rn.result.Err = err
	}
}
