package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return a no-op recorder when disabled", func(t *testing.T) {
		for _, driver := range []string{"", "none", " NONE "} {
			rec, err := Open(ctx, driver, "")
			require.NoError(t, err)
			assert.IsType(t, Nop{}, rec)
			require.NoError(t, rec.Record(ctx, Run{ID: "x"}))
			runs, err := rec.List(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, runs)
			require.NoError(t, rec.Close())
		}
	})

	t.Run("Should open a sqlite ledger", func(t *testing.T) {
		rec, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		defer func() { _ = rec.Close() }()
		now := time.Now()
		require.NoError(t, rec.Record(ctx, Run{ID: "r", StartedAt: now, FinishedAt: now, Status: StatusSucceeded}))
		runs, err := rec.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, StatusSucceeded, runs[0].Status)
	})

	t.Run("Should reject unknown drivers", func(t *testing.T) {
		_, err := Open(ctx, "mysql", "")
		assert.ErrorContains(t, err, "unknown history driver")
	})
}
