// Package parser converts a driver's raw stdout/stderr into issue.Issue
// values. Each supported plugin.OutputFormat has one Parser implementation;
// new formats are added here and registered in the Registry.
package parser

import "github.com/qlty-go/qlty/internal/issue"

// Parser interprets a single driver invocation's output.
type Parser interface {
	// Parse converts raw output into issues, attributing each to toolName.
	// A parser must never fail on a single malformed line; it logs and
	// skips, returning only a hard error for output it cannot interpret
	// at all (e.g. empty input when output was required).
	Parse(toolName, output string) ([]issue.Issue, error)
}

// Registry maps an OutputFormat name to its Parser.
type Registry map[string]Parser

// NewRegistry returns a Registry with every built-in Parser registered.
func NewRegistry() Registry {
	return Registry{
		"mypy":       Mypy{},
		"shellcheck": Shellcheck{},
		"sarif":      SARIF{},
		"jsonlines":  JSONLines{},
		"json":       JSONLines{},
		"regex":      Regex{},
	}
}

// For looks up the Parser for a format name, returning ok=false if no
// Parser is registered for it.
func (r Registry) For(format string) (Parser, bool) {
	p, ok := r[format]
	return p, ok
}
