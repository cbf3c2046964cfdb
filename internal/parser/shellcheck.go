package parser

import (
	"encoding/json"
	"fmt"

	"github.com/qlty-go/qlty/internal/issue"
)

// Shellcheck parses `shellcheck --format json` output: a JSON array of
// diagnostic objects.
type Shellcheck struct{}

type shellcheckFinding struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	EndLine   int    `json:"endLine"`
	Column    int    `json:"column"`
	EndColumn int    `json:"endColumn"`
	Level     string `json:"level"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}

// Parse implements Parser.
func (Shellcheck) Parse(toolName, output string) ([]issue.Issue, error) {
	if output == "" {
		return nil, nil
	}

	var findings []shellcheckFinding

	err := json.Unmarshal([]byte(output), &findings)
	if err != nil {
		return nil, fmt.Errorf("parse shellcheck json: %w", err)
	}

	issues := make([]issue.Issue, 0, len(findings))

	for _, f := range findings {
		issues = append(issues, issue.Issue{
			Tool:     toolName,
			RuleKey:  fmt.Sprintf("SC%d", f.Code),
			Message:  f.Message,
			Level:    shellcheckLevelToLevel(f.Level),
			Category: issue.CategoryLint,
			Path:     f.File,
			Range: issue.Range{
				StartLine:   f.Line,
				StartColumn: f.Column,
				EndLine:     f.EndLine,
				EndColumn:   f.EndColumn,
			},
		})
	}

	return issues, nil
}

func shellcheckLevelToLevel(level string) issue.Level {
	switch level {
	case "error":
		return issue.LevelHigh
	case "warning":
		return issue.LevelMedium
	case "info":
		return issue.LevelLow
	case "style":
		return issue.LevelFmt
	default:
		return issue.LevelLow
	}
}
