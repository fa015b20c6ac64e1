package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should load defaults", func(t *testing.T) {
		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.Equal(t, "params.json", cfg.Inputs.Params)
		assert.Equal(t, "sample.ndJson", cfg.Inputs.Samples)
		assert.Equal(t, "params.csv", cfg.Outputs.ParamsTable)
		assert.Equal(t, "sample.csv", cfg.Outputs.SampleTable)
		assert.Equal(t, "attachments.json", cfg.Outputs.Manifest)
		assert.Equal(t, "attachments/info.html", cfg.ReportKey())
		assert.Equal(t, "attachments/execution_log.log", cfg.ExecutionLogKey())
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "fs", cfg.Blob.Driver)
		assert.Equal(t, "none", cfg.History.Driver)
		assert.False(t, cfg.Metrics.Enabled)
	})

	t.Run("Should apply environment over defaults", func(t *testing.T) {
		t.Setenv("CLUSTERPREP_BASE_PATH", "/tmp/run")
		t.Setenv("CLUSTERPREP_LOG_LEVEL", "warn")
		t.Setenv("CLUSTERPREP_METRICS_ENABLED", "true")
		t.Setenv("CLUSTERPREP_S3_PATH_STYLE", "true")
		t.Setenv("CLUSTERPREP_UNRELATED", "ignored")
		cfg, err := Load(nil)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/run", cfg.BasePath)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.True(t, cfg.Blob.S3.PathStyle)
	})

	t.Run("Should apply overrides over environment", func(t *testing.T) {
		t.Setenv("CLUSTERPREP_LOG_LEVEL", "warn")
		cfg, err := Load(map[string]any{"log.level": "error", "base_path": "/srv/data"})
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Log.Level)
		assert.Equal(t, "/srv/data", cfg.BasePath)
		assert.Equal(t, "/srv/data", cfg.BlobOptions().Root)
	})

	t.Run("Should reject unknown override keys", func(t *testing.T) {
		_, err := Load(map[string]any{"log.colour": true})
		assert.ErrorContains(t, err, "unknown configuration key")
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		cases := map[string]map[string]any{
			"log level":       {"log.level": "verbose"},
			"blob driver":     {"blob.driver": "gcs"},
			"history driver":  {"history.driver": "mysql"},
			"postgres no dsn": {"history.driver": "postgres"},
			"s3 no bucket":    {"blob.driver": "s3"},
			"empty base path": {"base_path": ""},
		}
		for name, overrides := range cases {
			_, err := Load(overrides)
			assert.Error(t, err, name)
		}
	})
}

func TestDefaultBasePath(t *testing.T) {
	assert.Equal(t, "data", DefaultBasePath("windows"))
	assert.Equal(t, "/data", DefaultBasePath("linux"))
}

func TestHistoryDSN(t *testing.T) {
	cfg := Default()
	cfg.BasePath = "/data"
	assert.Empty(t, cfg.HistoryDSN())
	cfg.History.Driver = "sqlite"
	assert.Equal(t, "/data/clusterprep-history.db", cfg.HistoryDSN())
	cfg.History.DSN = "file:runs.db"
	assert.Equal(t, "file:runs.db", cfg.HistoryDSN())
}

func TestGenerateEnvMappings(t *testing.T) {
	m := envToConfigMap()
	assert.Equal(t, "log.level", m["CLUSTERPREP_LOG_LEVEL"])
	assert.Equal(t, "blob.s3.bucket", m["CLUSTERPREP_S3_BUCKET"])
	assert.Equal(t, "inputs.samples", m["CLUSTERPREP_INPUT_SAMPLES"])
	for env := range m {
		assert.Regexp(t, "^"+EnvPrefix, env)
	}
}
