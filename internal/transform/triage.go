package transform

import (
	"github.com/qlty-go/qlty/internal/issue"
	"github.com/qlty-go/qlty/internal/workspace"
)

// Triage reclassifies issues matching a qlty.toml [[triage]] rule (or a
// migrated, deprecated [[override]] block — see
// internal/qltyconfig.Config.MigrateOverrides). A rule can also drop an
// issue entirely via Ignored, so it must run after Ignore and IssueMuter in
// the Chain: both the unconditional ignore list and mute comments take
// precedence over a triage rule's own ignored clause.
type Triage struct {
	Rules []TriageRule
}

// TriageRule is a single compiled [[triage]] entry, split into its match
// criteria and the overrides it sets on a matching issue — mirroring
// qlty.toml's [triage.match]/[triage.set] subtables.
type TriageRule struct {
	Plugins      []string
	FilePatterns []string
	Rules        []string

	Level    issue.Level
	HasLevel bool

	Category    issue.Category
	HasCategory bool

	Mode    issue.Mode
	HasMode bool

	Ignored bool
}

// Transform implements Transformer. The last matching rule wins for each
// field it sets, so qlty.toml authors can order broad-then-specific rules
// the way CSS cascades specificity. A rule with Ignored set drops the issue
// immediately, without applying any later rule.
func (t Triage) Transform(i issue.Issue) (issue.Issue, bool) {
	for _, rule := range t.Rules {
		if !rule.matches(i) {
			continue
		}

		if rule.Ignored {
			return i, false
		}

		if rule.HasLevel {
			i.Level = rule.Level
		}

		if rule.HasCategory {
			i.Category = rule.Category
		}

		if rule.HasMode {
			i.Mode = rule.Mode
		}
	}

	return i, true
}

func (r TriageRule) matches(i issue.Issue) bool {
	if len(r.Plugins) > 0 && !contains(r.Plugins, i.Tool) {
		return false
	}

	if len(r.Rules) > 0 && !containsRuleGlob(r.Rules, i.RuleKey) {
		return false
	}

	if len(r.FilePatterns) > 0 {
		matched := false

		for _, pattern := range r.FilePatterns {
			if workspace.GlobsMatcher{Patterns: []string{pattern}}.Match(workspace.Entry{Path: i.Path}) {
				matched = true
				break
			}
		}

		if !matched {
			return false
		}
	}

	return true
}
