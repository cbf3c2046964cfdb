package transform

import (
	"path/filepath"

	"github.com/qlty-go/qlty/internal/issue"
	"github.com/qlty-go/qlty/internal/workspace"
)

// Ignore drops issues matching a qlty.toml [[ignore]] rule: scoped by
// plugin, file pattern, and rule key, all of which must match (an empty
// field on the rule matches anything).
type Ignore struct {
	Rules []IgnoreRule
}

// IgnoreRule is a single compiled [[ignore]] entry.
type IgnoreRule struct {
	Plugins      []string
	FilePatterns []string
	Rules        []string
}

// Transform implements Transformer, dropping the issue if any rule matches.
func (t Ignore) Transform(i issue.Issue) (issue.Issue, bool) {
	for _, rule := range t.Rules {
		if rule.matches(i) {
			return i, false
		}
	}

	return i, true
}

func (r IgnoreRule) matches(i issue.Issue) bool {
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

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

// containsRuleGlob reports whether needle (an issue's rule key, e.g.
// "no-unused-vars") matches any of patterns, each interpreted as a
// path/filepath glob so a rule like "no-unused-*" matches every
// no-unused-* lint rule a plugin reports.
func containsRuleGlob(patterns []string, needle string) bool {
	for _, pattern := range patterns {
		if pattern == needle {
			return true
		}

		if ok, _ := filepath.Match(pattern, needle); ok {
			return true
		}
	}

	return false
}
