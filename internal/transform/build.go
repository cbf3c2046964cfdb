package transform

import (
	"github.com/qlty-go/qlty/internal/issue"
	"github.com/qlty-go/qlty/internal/qltyconfig"
)

// Build compiles a qlty.toml Config's [[ignore]] and [[triage]] blocks
// (plus any migrated [[override]] blocks, already folded into Triage by
// Config.MigrateOverrides) into a ready-to-run Chain. Step order follows
// Chain's doc comment: Ignore and IssueMuter must run before Triage.
func Build(cfg *qltyconfig.Config) Chain {
	return Chain{
		Steps: []Transformer{
			Ignore{Rules: buildIgnoreRules(cfg.Ignores)},
			NewIssueMuter(),
			Triage{Rules: buildTriageRules(cfg.Triage)},
		},
	}
}

func buildIgnoreRules(ignores []qltyconfig.Ignore) []IgnoreRule {
	rules := make([]IgnoreRule, 0, len(ignores))

	for _, ig := range ignores {
		rules = append(rules, IgnoreRule{
			Plugins:      ig.Plugins,
			FilePatterns: ig.FilePatterns,
			Rules:        ig.Rules,
		})
	}

	return rules
}

func buildTriageRules(triage []qltyconfig.Triage) []TriageRule {
	rules := make([]TriageRule, 0, len(triage))

	for _, t := range triage {
		rule := TriageRule{
			Plugins:      t.Match.Plugins,
			FilePatterns: t.Match.FilePatterns,
			Rules:        t.Match.Rules,
			Ignored:      t.Set.Ignored,
		}

		if t.Set.Level != "" {
			rule.Level = issue.ParseLevel(t.Set.Level)
			rule.HasLevel = true
		}

		if t.Set.Category != "" {
			rule.Category = issue.ParseCategory(t.Set.Category)
			rule.HasCategory = true
		}

		if t.Set.Mode != "" {
			rule.Mode = issue.ParseMode(t.Set.Mode)
			rule.HasMode = true
		}

		rules = append(rules, rule)
	}

	return rules
}
