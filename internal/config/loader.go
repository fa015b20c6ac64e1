package config

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes the environment variables the loader reads.
const EnvPrefix = "CLUSTERPREP_"

type loader struct {
	koanf     *koanf.Koanf
	validator *validator.Validate
}

// Load builds the configuration. Precedence, lowest first: defaults,
// environment, overrides. Override keys are koanf paths such as
// "log.level"; unknown keys are rejected.
func Load(overrides map[string]any) (*Config, error) {
	l := &loader{koanf: koanf.New("."), validator: validator.New()}
	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}
	if err := l.applyOverrides(overrides); err != nil {
		return nil, err
	}
	return l.unmarshalAndValidate()
}

func (l *loader) loadEnvironment() error {
	envToPath := envToConfigMap()
	provider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key string, value string) (string, any) {
			// unmapped variables are dropped
			return envToPath[key], value
		},
	})
	if err := l.koanf.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func (l *loader) applyOverrides(overrides map[string]any) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !l.koanf.Exists(key) {
			return fmt.Errorf("unknown configuration key %q", key)
		}
		if err := l.koanf.Set(key, overrides[key]); err != nil {
			return fmt.Errorf("failed to set key %s: %w", key, err)
		}
	}
	return nil
}

func (l *loader) unmarshalAndValidate() (*Config, error) {
	var cfg Config
	if err := l.koanf.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.validator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.Blob.Driver == "s3" && cfg.Blob.S3.Bucket == "" {
		return nil, fmt.Errorf("configuration validation failed: blob.s3.bucket is required for the s3 driver")
	}
	return &cfg, nil
}
