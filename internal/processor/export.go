package processor

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonReport is the wire shape for `qlty check --format json`: the same
// Report a terminal render would show, but machine-readable for CI
// integrations that parse qlty's own output rather than a SARIF upload.
type jsonReport struct {
	Issues []jsonIssue `json:"issues"`
	Total  int         `json:"total"`
	Worst  string      `json:"worst_level"`
}

type jsonIssue struct {
	Tool      string `json:"tool"`
	Rule      string `json:"rule"`
	Message   string `json:"message"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line,omitempty"`
}

// EncodeJSON writes r as indented JSON to w.
func EncodeJSON(w io.Writer, r Report) error {
	out := jsonReport{
		Issues: make([]jsonIssue, 0, len(r.Issues)),
		Total:  r.Stats.Total,
		Worst:  r.WorstLevel().String(),
	}

	for _, i := range r.Issues {
		if i.Ignored || i.Muted {
			continue
		}

		out.Issues = append(out.Issues, jsonIssue{
			Tool:      i.Tool,
			Rule:      i.RuleKey,
			Message:   i.Message,
			Level:     i.Level.String(),
			Category:  i.Category.String(),
			Path:      i.Path,
			StartLine: i.Range.StartLine,
			EndLine:   i.Range.EndLine,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	return nil
}
