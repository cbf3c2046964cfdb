package parser

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/qlty-go/qlty/internal/issue"
)

// Mypy parses mypy's `--output json` line-delimited format: one JSON object
// per diagnostic, newline separated.
type Mypy struct{}

type mypyMessage struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
}

// Parse implements Parser.
func (Mypy) Parse(toolName, output string) ([]issue.Issue, error) {
	var issues []issue.Issue

	for _, rawLine := range strings.Split(output, "\n") {
		rawLine = strings.TrimSpace(rawLine)
		if rawLine == "" {
			continue
		}

		var msg mypyMessage

		err := json.Unmarshal([]byte(rawLine), &msg)
		if err != nil {
			slog.Warn("failed to parse mypy output line", "error", err, "line", rawLine)
			continue
		}

		ruleKey := msg.Code
		if strings.TrimSpace(ruleKey) == "" {
			ruleKey = "mypy_issue"
		}

		issues = append(issues, issue.Issue{
			Tool:     toolName,
			RuleKey:  ruleKey,
			Message:  msg.Message,
			Level:    mypySeverityToLevel(msg.Severity),
			Category: issue.CategoryLint,
			Path:     msg.File,
			Range: issue.Range{
				StartLine:   msg.Line,
				StartColumn: normalizeMypyColumn(msg.Column),
			},
		})
	}

	return issues, nil
}

// normalizeMypyColumn converts mypy's 0-based JSON column (-1 meaning "no
// column") to qlty's 1-based convention, with a floor of 1.
func normalizeMypyColumn(column int) int {
	if column > 0 {
		return column + 1
	}

	return 1
}

func mypySeverityToLevel(severity string) issue.Level {
	switch severity {
	case "error":
		return issue.LevelHigh
	case "warning":
		return issue.LevelMedium
	case "note":
		return issue.LevelLow
	default:
		return issue.LevelLow
	}
}
