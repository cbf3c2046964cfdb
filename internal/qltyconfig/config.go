// Package qltyconfig loads and validates the qlty.toml project configuration:
// enabled plugins, source repositories, ignore/exclude rules, triage
// overrides, and coverage settings.
package qltyconfig

import (
	"errors"
	"strings"
)

// Config is the top-level, unmarshalled shape of qlty.toml.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Sources  []Source         `mapstructure:"source"`
	Plugins  []Plugin         `mapstructure:"plugin"`
	Ignores  []Ignore         `mapstructure:"ignore"`
	Excludes []Exclude        `mapstructure:"exclude"`
	Triage   []Triage         `mapstructure:"triage"`
	Override []Override       `mapstructure:"override"`
	Coverage CoverageConfig   `mapstructure:"coverage"`
	Types    []FileType       `mapstructure:"type"`
	Runtime  RuntimeConfig    `mapstructure:"runtime"`
}

// Source declares a remote plugin-definition repository qlty fetches
// plugin manifests from.
type Source struct {
	Name      string `mapstructure:"name"`
	Repository string `mapstructure:"repository"`
	Ref       string `mapstructure:"tag"`
	Default   bool   `mapstructure:"default"`
}

// Plugin enables a tool and optionally pins its version and config.
type Plugin struct {
	Name       string            `mapstructure:"name"`
	Version    string            `mapstructure:"version"`
	Mode       string            `mapstructure:"mode"`
	Prefix     string            `mapstructure:"prefix"`
	ConfigFile string            `mapstructure:"config_file"`
	Drivers    []string          `mapstructure:"drivers"`
	Ignores    []string          `mapstructure:"ignores"`
	Triggers   []string          `mapstructure:"triggers"`
	Extra      map[string]string `mapstructure:"extra"`
}

// Ignore silences issues matching a rule/file pattern without removing the check.
type Ignore struct {
	Plugins    []string `mapstructure:"plugins"`
	FilePatterns []string `mapstructure:"file_patterns"`
	Rules      []string `mapstructure:"rules"`
	Reason     string   `mapstructure:"reason"`
}

// Exclude removes workspace entries from consideration entirely, optionally
// scoped to a single plugin.
type Exclude struct {
	Plugin       string   `mapstructure:"plugin"`
	FilePatterns []string `mapstructure:"file_patterns"`
}

// Triage reclassifies matching issues, nesting its match criteria and its
// overrides under [triage.match]/[triage.set] subtables the way qlty.toml
// authors write them, mirroring qlty-config's Match/Set split.
type Triage struct {
	Match TriageMatch `mapstructure:"match"`
	Set   TriageSet   `mapstructure:"set"`
}

// TriageMatch selects which issues a Triage entry applies to.
type TriageMatch struct {
	Plugins      []string `mapstructure:"plugins"`
	FilePatterns []string `mapstructure:"file_patterns"`
	Rules        []string `mapstructure:"rules"`
}

// TriageSet carries the overrides applied to a matched issue. Ignored, when
// true, drops the issue entirely instead of reclassifying it; Level,
// Category, and Mode are otherwise applied non-destructively (only a
// non-empty override field is copied onto the issue).
type TriageSet struct {
	Level    string `mapstructure:"level"`
	Category string `mapstructure:"category"`
	Mode     string `mapstructure:"mode"`
	Ignored  bool   `mapstructure:"ignored"`
}

// Override is the deprecated predecessor of Triage, still accepted and
// migrated into an equivalent Triage entry at load time.
type Override struct {
	FilePatterns []string `mapstructure:"file_patterns"`
	Level        string   `mapstructure:"level"`
}

// CoverageConfig holds coverage-ingestion defaults.
type CoverageConfig struct {
	Paths         []string `mapstructure:"paths"`
	IgnoreSuffix  string   `mapstructure:"ignore_suffix"`
	ReporterOpts  string   `mapstructure:"reporter_opts"`
	PublishURL    string   `mapstructure:"publish_url"`
}

// FileType maps glob patterns to a named language, used when enry's
// heuristics are insufficient or must be overridden.
type FileType struct {
	Name         string   `mapstructure:"name"`
	FilePatterns []string `mapstructure:"file_patterns"`
}

// RuntimeConfig holds pipeline resource knobs.
type RuntimeConfig struct {
	Jobs           int    `mapstructure:"jobs"`
	Timeout        string `mapstructure:"timeout"`
	CacheDir       string `mapstructure:"cache_dir"`
	DownloadCacheMax string `mapstructure:"download_cache_max"`
}

// Sentinel errors for configuration validation.
var (
	ErrInvalidJobs               = errors.New("runtime.jobs must be non-negative")
	ErrEmptySourceName           = errors.New("source.name must not be empty")
	ErrEmptySourceRepo           = errors.New("source.repository must not be empty")
	ErrEmptyPluginName           = errors.New("plugin.name must not be empty")
	ErrInvalidTriageLevel        = errors.New("triage.set.level must be one of: fmt, low, medium, high")
	ErrInvalidTriageCategory     = errors.New("triage.set.category must be one of: lint, fmt, security, structure")
	ErrInvalidTriageMode         = errors.New("triage.set.mode must be one of: block, comment, monitor, disabled")
	ErrInvalidOverrideLevel      = errors.New("override.level must be one of: fmt, low, medium, high")
	ErrEmptyExcludeFilePatterns  = errors.New("exclude.file_patterns must not be empty")
	ErrNegatedExcludeFilePattern = errors.New("exclude.file_patterns must not contain a \"!\"-prefixed pattern")
)

var validLevels = map[string]bool{
	"fmt": true, "low": true, "medium": true, "high": true,
}

var validCategories = map[string]bool{
	"lint": true, "fmt": true, "security": true, "structure": true,
}

var validModes = map[string]bool{
	"block": true, "comment": true, "monitor": true, "disabled": true,
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Runtime.Jobs < 0 {
		return ErrInvalidJobs
	}

	for _, src := range c.Sources {
		if src.Name == "" {
			return ErrEmptySourceName
		}

		if src.Repository == "" {
			return ErrEmptySourceRepo
		}
	}

	for _, plg := range c.Plugins {
		if plg.Name == "" {
			return ErrEmptyPluginName
		}
	}

	for _, tri := range c.Triage {
		if tri.Set.Level != "" && !validLevels[tri.Set.Level] {
			return ErrInvalidTriageLevel
		}

		if tri.Set.Category != "" && !validCategories[tri.Set.Category] {
			return ErrInvalidTriageCategory
		}

		if tri.Set.Mode != "" && !validModes[tri.Set.Mode] {
			return ErrInvalidTriageMode
		}
	}

	for _, ovr := range c.Override {
		if ovr.Level != "" && !validLevels[ovr.Level] {
			return ErrInvalidOverrideLevel
		}
	}

	for _, ex := range c.Excludes {
		if len(ex.FilePatterns) == 0 {
			return ErrEmptyExcludeFilePatterns
		}

		for _, p := range ex.FilePatterns {
			if strings.HasPrefix(p, "!") {
				return ErrNegatedExcludeFilePattern
			}
		}
	}

	return nil
}

// MigrateOverrides converts deprecated Override entries into equivalent
// Triage entries, appended after any explicit Triage entries so that
// triage ordering (explicit rules, then migrated overrides) matches the
// precedence qlty.toml authors expect. It reports whether any migration
// occurred, so callers can emit a deprecation warning exactly once.
func (c *Config) MigrateOverrides() bool {
	if len(c.Override) == 0 {
		return false
	}

	for _, ovr := range c.Override {
		c.Triage = append(c.Triage, Triage{
			Match: TriageMatch{FilePatterns: ovr.FilePatterns},
			Set:   TriageSet{Level: ovr.Level},
		})
	}

	c.Override = nil

	return true
}
