// Package qltyerr classifies errors into the kinds qlty's CLI reports with
// distinct process exit codes, and provides a process-wide "warn once" gate
// for deprecation and advisory messages that would otherwise repeat once
// per file or per invocation.
package qltyerr

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Kind classifies an error for exit-code selection and log severity.
type Kind int

const (
	// KindUnknown is the zero value; treated as a fatal, unclassified error.
	KindUnknown Kind = iota
	// KindInvalidOptions indicates a bad CLI invocation (flags, arguments).
	KindInvalidOptions
	// KindConfig indicates an invalid or unreadable qlty.toml.
	KindConfig
	// KindLint indicates the run completed but issues were found at or
	// above the failure threshold; not a process failure by itself.
	KindLint
	// KindInstallation indicates a plugin/tool failed to install. During a
	// run the executor logs the failure and continues with other plugins,
	// and the run's exit code does not reflect it.
	KindInstallation
	// KindParse indicates a tool produced output qlty could not parse.
	KindParse
	// KindIO indicates a filesystem or process I/O failure.
	KindIO
	// KindNetwork indicates a network failure (download, cloud API).
	KindNetwork
)

// String returns the human-readable name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidOptions:
		return "invalid_options"
	case KindConfig:
		return "config_error"
	case KindLint:
		return "lint"
	case KindInstallation:
		return "installation_error"
	case KindParse:
		return "parse_error"
	case KindIO:
		return "io_error"
	case KindNetwork:
		return "network_error"
	case KindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code qlty's CLI uses for this Kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindInvalidOptions:
		return 1
	case KindConfig:
		return 2
	case KindLint:
		return 3
	case KindInstallation, KindParse:
		return 1
	case KindIO, KindNetwork, KindUnknown:
		return 99
	default:
		return 99
	}
}

// Error wraps an underlying error with a Kind so callers can select an
// exit code without string-matching error messages.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap annotates err with Kind. Wrap(k, nil) returns nil so call sites can
// wrap unconditionally: `return qltyerr.Wrap(KindIO, err)`.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Err: err}
}

// As extracts the Kind of err, defaulting to KindUnknown when err was never
// wrapped with a Kind.
func As(err error) Kind {
	var e *Error

	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// ExitCode returns the exit code appropriate for err, or 0 if err is nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	return As(err).ExitCode()
}

// ErrNotImplemented is returned by CLI leaves that parse their arguments
// but have no core-package behavior to delegate to.
var ErrNotImplemented = &Error{Kind: KindInvalidOptions, Err: errors.New("not implemented")}

var (
	warnOnceMu   sync.Mutex
	warnOnceSeen = make(map[string]struct{})
)

// WarnOnce logs msg at warn level the first time it is seen for the life
// of the process, and silently does nothing on subsequent calls with the
// same message. Used for deprecation notices (e.g. a qlty.toml [[override]]
// block) that would otherwise be repeated once per matching issue.
func WarnOnce(msg string) {
	warnOnceMu.Lock()
	defer warnOnceMu.Unlock()

	if _, seen := warnOnceSeen[msg]; seen {
		return
	}

	warnOnceSeen[msg] = struct{}{}

	slog.Warn(msg)
}

// ResetWarnOnce clears the warn-once dedup set. Exposed for tests that need
// deterministic WarnOnce behavior across cases in the same process.
func ResetWarnOnce() {
	warnOnceMu.Lock()
	defer warnOnceMu.Unlock()

	warnOnceSeen = make(map[string]struct{})
}

// Fatalf builds a formatted error wrapped with kind. Convenience for call
// sites that construct an ad hoc message rather than wrapping an existing err.
func Fatalf(kind Kind, format string, args ...any) error {
	return Wrap(kind, fmt.Errorf(format, args...))
}
