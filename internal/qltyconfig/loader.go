package qltyconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"

	"github.com/qlty-go/qlty/internal/qltyerr"
)

// configName is the config file name without extension.
const configName = "qlty"

// configType is the config file format.
const configType = "toml"

// envPrefix is the environment variable prefix for qlty settings.
const envPrefix = "QLTY"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// DefaultRuntimeJobs is the default worker pool size when runtime.jobs
// is unset or zero: one job per logical CPU is applied by the caller
// (executor.New), this constant only seeds viper's default.
const DefaultRuntimeJobs = 0

// DefaultRuntimeTimeout is the default per-invocation timeout.
const DefaultRuntimeTimeout = "5m"

// DefaultDownloadCacheMax is the default size cap for the tool download cache.
const DefaultDownloadCacheMax = "1GB"

// LoadConfig loads qlty.toml from configPath (or, when configPath is empty,
// searches the working directory and then its .qlty subdirectory for
// "qlty.toml"), overlays environment variables and defaults, unmarshals
// into a Config, migrates deprecated override blocks, and validates the
// result. When the search finds no config file the defaults apply; an
// explicit configPath that cannot be read is an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath(".qlty")
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, qltyerr.Wrap(qltyerr.KindConfig, fmt.Errorf("read config: %w", readErr))
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, qltyerr.Wrap(qltyerr.KindConfig, fmt.Errorf("unmarshal config: %w", unmarshalErr))
	}

	if cfg.MigrateOverrides() {
		qltyerr.WarnOnce("qlty.toml [[override]] is deprecated, use [[triage]] instead")
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, qltyerr.Wrap(qltyerr.KindConfig, fmt.Errorf("validate config: %w", validateErr))
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("runtime.jobs", DefaultRuntimeJobs)
	viperCfg.SetDefault("runtime.timeout", DefaultRuntimeTimeout)
	viperCfg.SetDefault("runtime.download_cache_max", DefaultDownloadCacheMax)
}

// ValidateAgainstSchema validates documentJSON against the JSON schema in
// schemaJSON, returning a KindConfig error that lists every violation.
// LoadConfig does not call it.
func ValidateAgainstSchema(schemaJSON, documentJSON string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewStringLoader(documentJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return qltyerr.Wrap(qltyerr.KindConfig, fmt.Errorf("validate schema: %w", err))
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}

		return qltyerr.Wrap(qltyerr.KindConfig, fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; ")))
	}

	return nil
}
