// Package core defines the run ledger shared by the history drivers.
package core

import (
	"context"
	"time"
)

// Status summarises how a run ended.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one ledger entry.
type Run struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       Status    `json:"status"`
	ExitCode     int       `json:"exit_code"`
	ProviderArea string    `json:"provider_area,omitempty"`
	Samples      int       `json:"samples"`
	Error        string    `json:"error,omitempty"`
}

// Recorder stores and lists runs. List returns the most recent runs first.
type Recorder interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// DDL column order shared by the SQL drivers.
const Columns = "id, started_at, finished_at, status, exit_code, provider_area, samples, error"
