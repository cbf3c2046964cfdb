package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qlty-go/qlty/internal/issue"
)

func TestTriage_GlobMatchesRuleKey(t *testing.T) {
	t.Parallel()

	tr := Triage{Rules: []TriageRule{{
		Rules:    []string{"no-unused-*"},
		Level:    issue.LevelLow,
		HasLevel: true,
	}}}

	i, ok := tr.Transform(issue.Issue{RuleKey: "no-unused-vars", Level: issue.LevelHigh})

	assert.True(t, ok)
	assert.Equal(t, issue.LevelLow, i.Level)
}

func TestTriage_IgnoredDropsIssue(t *testing.T) {
	t.Parallel()

	tr := Triage{Rules: []TriageRule{{Rules: []string{"SA1000"}, Ignored: true}}}

	_, ok := tr.Transform(issue.Issue{RuleKey: "SA1000"})

	assert.False(t, ok)
}

func TestTriage_SetsCategoryAndMode(t *testing.T) {
	t.Parallel()

	tr := Triage{Rules: []TriageRule{{
		Rules:       []string{"SA1000"},
		Category:    issue.CategorySecurity,
		HasCategory: true,
		Mode:        issue.ModeMonitor,
		HasMode:     true,
	}}}

	i, ok := tr.Transform(issue.Issue{RuleKey: "SA1000", Category: issue.CategoryLint, Mode: issue.ModeBlock})

	assert.True(t, ok)
	assert.Equal(t, issue.CategorySecurity, i.Category)
	assert.Equal(t, issue.ModeMonitor, i.Mode)
}

func TestTriage_UnsetFieldsLeftUntouched(t *testing.T) {
	t.Parallel()

	tr := Triage{Rules: []TriageRule{{Rules: []string{"SA1000"}, Ignored: false}}}

	i, ok := tr.Transform(issue.Issue{RuleKey: "SA1000", Level: issue.LevelHigh, Category: issue.CategoryLint})

	assert.True(t, ok)
	assert.Equal(t, issue.LevelHigh, i.Level)
	assert.Equal(t, issue.CategoryLint, i.Category)
}
