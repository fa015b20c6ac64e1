// Package config loads the run configuration from defaults, CLUSTERPREP_*
// environment variables and command-line overrides.
package config

import (
	"path"
	"path/filepath"
	"runtime"

	"clusterprep/internal/blob"
)

// Config is the complete run configuration.
type Config struct {
	// BasePath roots the filesystem artifact store: inputs are read from and
	// outputs written under it.
	BasePath string        `koanf:"base_path" validate:"required" env:"CLUSTERPREP_BASE_PATH"`
	Inputs   InputsConfig  `koanf:"inputs"`
	Outputs  OutputsConfig `koanf:"outputs"`
	Log      LogConfig     `koanf:"log"`
	Blob     BlobConfig    `koanf:"blob"`
	History  HistoryConfig `koanf:"history"`
	Metrics  MetricsConfig `koanf:"metrics"`
}

// InputsConfig names the input artifact keys.
type InputsConfig struct {
	Params  string `koanf:"params"  validate:"required" env:"CLUSTERPREP_INPUT_PARAMS"`
	Samples string `koanf:"samples" validate:"required" env:"CLUSTERPREP_INPUT_SAMPLES"`
}

// OutputsConfig names the output artifact keys. Report and execution log
// live under AttachmentsDir; the manifest lists them by file name.
type OutputsConfig struct {
	ParamsTable    string `koanf:"params_table"    validate:"required" env:"CLUSTERPREP_OUTPUT_PARAMS_TABLE"`
	SampleTable    string `koanf:"sample_table"    validate:"required" env:"CLUSTERPREP_OUTPUT_SAMPLE_TABLE"`
	Manifest       string `koanf:"manifest"        validate:"required" env:"CLUSTERPREP_OUTPUT_MANIFEST"`
	AttachmentsDir string `koanf:"attachments_dir" validate:"required" env:"CLUSTERPREP_OUTPUT_ATTACHMENTS_DIR"`
}

type LogConfig struct {
	Level   string `koanf:"level"   validate:"oneof=debug info warn error" env:"CLUSTERPREP_LOG_LEVEL"`
	JSON    bool   `koanf:"json"                                           env:"CLUSTERPREP_LOG_JSON"`
	Console bool   `koanf:"console"                                        env:"CLUSTERPREP_LOG_CONSOLE"`
}

type BlobConfig struct {
	Driver string        `koanf:"driver" validate:"oneof=fs s3 memory" env:"CLUSTERPREP_BLOB_DRIVER"`
	S3     blob.S3Config `koanf:"s3"`
}

type HistoryConfig struct {
	Driver string `koanf:"driver" validate:"oneof=none sqlite postgres"  env:"CLUSTERPREP_HISTORY_DRIVER"`
	DSN    string `koanf:"dsn"    validate:"required_if=Driver postgres" env:"CLUSTERPREP_HISTORY_DSN"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled" env:"CLUSTERPREP_METRICS_ENABLED"`
	Key     string `koanf:"key"     validate:"required_if=Enabled true" env:"CLUSTERPREP_METRICS_KEY"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		BasePath: DefaultBasePath(runtime.GOOS),
		Inputs: InputsConfig{
			Params:  "params.json",
			Samples: "sample.ndJson",
		},
		Outputs: OutputsConfig{
			ParamsTable:    "params.csv",
			SampleTable:    "sample.csv",
			Manifest:       "attachments.json",
			AttachmentsDir: "attachments",
		},
		Log: LogConfig{
			Level:   "debug",
			Console: true,
		},
		Blob:    BlobConfig{Driver: string(blob.DriverFilesystem)},
		History: HistoryConfig{Driver: "none"},
		Metrics: MetricsConfig{Key: "attachments/metrics.prom"},
	}
}

// DefaultBasePath is "data" relative to the working directory on Windows
// and "/data" elsewhere (the container mount point).
func DefaultBasePath(goos string) string {
	if goos == "windows" {
		return "data"
	}
	return "/data"
}

// ReportKey is the artifact key of the HTML execution summary.
func (c *Config) ReportKey() string { return path.Join(c.Outputs.AttachmentsDir, ReportFile) }

// ExecutionLogKey is the artifact key of the execution log.
func (c *Config) ExecutionLogKey() string {
	return path.Join(c.Outputs.AttachmentsDir, ExecutionLogFile)
}

// HistoryDSN returns the ledger DSN, defaulting the SQLite database to a
// file under the base path.
func (c *Config) HistoryDSN() string {
	if c.History.DSN != "" || c.History.Driver != "sqlite" {
		return c.History.DSN
	}
	return filepath.Join(c.BasePath, "clusterprep-history.db")
}

// BlobOptions maps the configuration onto artifact store options.
func (c *Config) BlobOptions() blob.Options {
	return blob.Options{Driver: c.Blob.Driver, Root: c.BasePath, S3: c.Blob.S3}
}

const (
	ReportFile       = "info.html"
	ExecutionLogFile = "execution_log.log"
)
