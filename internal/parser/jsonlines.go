package parser

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/qlty-go/qlty/internal/issue"
)

// JSONLines is the fallback parser for drivers that emit one JSON object
// per diagnostic, newline separated, using qlty's own generic field names
// rather than a tool-specific schema. It is the format qlty asks plugin
// authors to target when wrapping a tool with no native structured output.
type JSONLines struct{}

type genericMessage struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	EndLine  int    `json:"endLine"`
	EndCol   int    `json:"endColumn"`
	Message  string `json:"message"`
	Rule     string `json:"rule"`
	Level    string `json:"level"`
}

// Parse implements Parser.
func (JSONLines) Parse(toolName, output string) ([]issue.Issue, error) {
	var issues []issue.Issue

	for _, rawLine := range strings.Split(output, "\n") {
		rawLine = strings.TrimSpace(rawLine)
		if rawLine == "" {
			continue
		}

		var msg genericMessage

		err := json.Unmarshal([]byte(rawLine), &msg)
		if err != nil {
			slog.Warn("failed to parse jsonlines output", "tool", toolName, "error", err, "line", rawLine)
			continue
		}

		issues = append(issues, issue.Issue{
			Tool:     toolName,
			RuleKey:  msg.Rule,
			Message:  msg.Message,
			Level:    issue.ParseLevel(msg.Level),
			Category: issue.CategoryLint,
			Path:     msg.Path,
			Range: issue.Range{
				StartLine:   msg.Line,
				StartColumn: msg.Column,
				EndLine:     msg.EndLine,
				EndColumn:   msg.EndCol,
			},
		})
	}

	return issues, nil
}
