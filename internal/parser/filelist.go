package parser

import (
	"strings"

	"github.com/qlty-go/qlty/internal/issue"
)

// Regex parses the output of formatter drivers that print one changed-file
// path per line and nothing else (gofmt -l, prettier --list-different).
// Despite the name (kept for plugin.FormatRegex's OutputFormat tag), it
// does not evaluate a user-supplied pattern; it is the simplest possible
// driver contract a formatter can satisfy, with no flags to express a
// richer one.
type Regex struct{}

// Parse emits one fmt-category issue per non-empty output line, one for
// each file the driver reports as not already formatted.
func (Regex) Parse(toolName, output string) ([]issue.Issue, error) {
	var issues []issue.Issue

	for _, line := range strings.Split(output, "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}

		issues = append(issues, issue.Issue{
			Tool:     toolName,
			RuleKey:  "unformatted",
			Message:  "file is not formatted",
			Level:    issue.LevelFmt,
			Category: issue.CategoryFmt,
			Path:     path,
		})
	}

	return issues, nil
}
