// Package observability wires up OpenTelemetry tracing, metrics, and
// structured logging for the qlty CLI process lifetime: construction of
// providers on startup, and a single Shutdown call that flushes them on
// exit. The per-signal metric/health helpers used by long-running
// invocations live in internal/observability; this package owns the
// process-level Init/Providers lifecycle that the root command drives.
package observability

import (
	"log/slog"
	"os"
)

// AppMode identifies how the qlty binary was invoked.
type AppMode string

const (
	// ModeCLI is a one-shot command invocation (check, fmt, coverage, ...).
	ModeCLI AppMode = "cli"
	// ModeServer is the long-running dashboard/server mode.
	ModeServer AppMode = "server"
)

const (
	defaultServiceName       = "qlty"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration for a process run.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables
	// export entirely; providers become no-op.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	DebugTrace   bool
	SampleRatio  float64
	LogLevel     slog.Level
	TraceVerbose bool
	LogJSON      bool

	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config
// startup: no OTLP export, info-level text logging to stderr.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// envOTLPEndpoint, envOTLPHeaders, and envOTLPInsecure are the environment
// variables ConfigFromEnv overlays onto DefaultConfig.
const (
	envOTLPEndpoint = "QLTY_OTLP_ENDPOINT"
	envOTLPHeaders  = "QLTY_OTLP_HEADERS"
	envOTLPInsecure = "QLTY_OTLP_INSECURE"
)

// ConfigFromEnv returns DefaultConfig overlaid with any QLTY_OTLP_*
// environment variables, so a plain `qlty check` stays a true no-export
// no-op while setting QLTY_OTLP_ENDPOINT turns on real OTLP export without
// a qlty.toml change.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.OTLPEndpoint = os.Getenv(envOTLPEndpoint)
	cfg.OTLPHeaders = ParseOTLPHeaders(os.Getenv(envOTLPHeaders))
	cfg.OTLPInsecure = os.Getenv(envOTLPInsecure) == "true"

	return cfg
}
