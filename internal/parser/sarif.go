package parser

import (
	"encoding/json"
	"fmt"

	"github.com/qlty-go/qlty/internal/issue"
)

// SARIF parses the subset of the Static Analysis Results Interchange
// Format (SARIF 2.1.0) that qlty's drivers emit: one run, a flat results
// list, with a single physical location per result.
type SARIF struct{}

type sarifLog struct {
	Runs []sarifRun `json:"runs"`
}

type sarifRun struct {
	Results []sarifResult `json:"results"`
}

type sarifResult struct {
	RuleID  string `json:"ruleId"`
	Level   string `json:"level"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	Locations []struct {
		PhysicalLocation struct {
			ArtifactLocation struct {
				URI string `json:"uri"`
			} `json:"artifactLocation"`
			Region struct {
				StartLine   int `json:"startLine"`
				StartColumn int `json:"startColumn"`
				EndLine     int `json:"endLine"`
				EndColumn   int `json:"endColumn"`
			} `json:"region"`
		} `json:"physicalLocation"`
	} `json:"locations"`
}

// Parse implements Parser.
func (SARIF) Parse(toolName, output string) ([]issue.Issue, error) {
	if output == "" {
		return nil, nil
	}

	var doc sarifLog

	err := json.Unmarshal([]byte(output), &doc)
	if err != nil {
		return nil, fmt.Errorf("parse sarif json: %w", err)
	}

	var issues []issue.Issue

	for _, run := range doc.Runs {
		for _, result := range run.Results {
			if len(result.Locations) == 0 {
				continue
			}

			loc := result.Locations[0].PhysicalLocation

			issues = append(issues, issue.Issue{
				Tool:     toolName,
				RuleKey:  result.RuleID,
				Message:  result.Message.Text,
				Level:    sarifLevelToLevel(result.Level),
				Category: issue.CategoryLint,
				Path:     loc.ArtifactLocation.URI,
				Range: issue.Range{
					StartLine:   loc.Region.StartLine,
					StartColumn: loc.Region.StartColumn,
					EndLine:     loc.Region.EndLine,
					EndColumn:   loc.Region.EndColumn,
				},
			})
		}
	}

	return issues, nil
}

func sarifLevelToLevel(level string) issue.Level {
	switch level {
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
