// Package history opens the optional ledger of past runs. Callers depend on
// history.Recorder, never on the infra drivers directly.
package history

import (
	"context"
	"fmt"
	"strings"

	"clusterprep/internal/history/core"
	"clusterprep/internal/infra/history/postgres"
	"clusterprep/internal/infra/history/sqlite"
)

type (
	Run      = core.Run
	Status   = core.Status
	Recorder = core.Recorder
)

const (
	StatusSucceeded = core.StatusSucceeded
	StatusFailed    = core.StatusFailed
)

// Drivers accepted by Open.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the recorder for driver. An empty driver or "none" yields a
// recorder that keeps nothing.
func Open(ctx context.Context, driver, dsn string) (Recorder, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverNone:
		return Nop{}, nil
	case DriverSQLite:
		store, err := sqlite.NewStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history driver %s", driver)
	}
}

// Nop discards runs.
type Nop struct{}

func (Nop) Record(context.Context, Run) error        { return nil }
func (Nop) List(context.Context, int) ([]Run, error) { return nil, nil }
func (Nop) Close() error                             { return nil }
