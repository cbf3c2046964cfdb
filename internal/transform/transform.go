// Package transform implements the issue transformer chain: a sequence of
// steps that each see every raw-parsed issue.Issue and may annotate, drop,
// or replace it before it reaches the report. Chain order matters — see
// Chain's doc comment.
package transform

import "github.com/qlty-go/qlty/internal/issue"

// Transformer maps a single issue to zero-or-one issues. Returning ok=false
// drops the issue from the report entirely (used by Ignore, IssueMuter, and
// a Triage rule with Ignored set); every other transformer always returns
// ok=true and only mutates fields.
type Transformer interface {
	Transform(i issue.Issue) (issue.Issue, bool)
}

// Chain applies a sequence of Transformers in order. Ordering is load-
// bearing: Ignore and IssueMuter must run before Triage so a muted issue
// never gets re-leveled and reported, and Triage must run last among the
// severity-affecting steps so its re-level is the one that sticks.
type Chain struct {
	Steps []Transformer
}

// Apply runs every step over issues, in order, dropping any issue a step
// rejects.
func (c Chain) Apply(issues []issue.Issue) []issue.Issue {
	out := make([]issue.Issue, 0, len(issues))

	for _, i := range issues {
		kept := true

		for _, step := range c.Steps {
			var ok bool

			i, ok = step.Transform(i)
			if !ok {
				kept = false
				break
			}
		}

		if kept {
			out = append(out, i)
		}
	}

	return out
}
