// Package processor turns a finished run's issues into the reports a user
// actually looks at: a deterministic in-memory Report, a terminal table, and
// an HTML trend chart, plus the few small formatting helpers those views
// share.
package processor

import (
	"sort"

	"github.com/qlty-go/qlty/internal/issue"
)

// Report is the deterministically ordered, deduplicated result of a run,
// ready for rendering or for export to the coverage/cloud layers.
type Report struct {
	Issues []issue.Issue
	Stats  Stats
}

// Stats summarizes a Report's issue counts by level and by tool, computed
// once so every renderer (table, chart, CLI summary line) reads the same
// numbers instead of re-walking the issue slice.
type Stats struct {
	Total    int
	ByLevel  map[issue.Level]int
	ByTool   map[string]int
	ByPath   map[string]int
}

// Build deduplicates issues by their Key, sorts them into a stable
// presentation order (path, then line, then tool, then rule), and computes
// Stats over the result.
func Build(issues []issue.Issue) Report {
	deduped := dedupe(issues)

	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]

		switch {
		case a.Path != b.Path:
			return a.Path < b.Path
		case a.Range.StartLine != b.Range.StartLine:
			return a.Range.StartLine < b.Range.StartLine
		case a.Tool != b.Tool:
			return a.Tool < b.Tool
		default:
			return a.RuleKey < b.RuleKey
		}
	})

	return Report{Issues: deduped, Stats: computeStats(deduped)}
}

func dedupe(issues []issue.Issue) []issue.Issue {
	seen := make(map[issue.Key]struct{}, len(issues))
	out := make([]issue.Issue, 0, len(issues))

	for _, i := range issues {
		key := i.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, i)
	}

	return out
}

func computeStats(issues []issue.Issue) Stats {
	stats := Stats{
		ByLevel: make(map[issue.Level]int),
		ByTool:  make(map[string]int),
		ByPath:  make(map[string]int),
	}

	for _, i := range issues {
		if i.Ignored || i.Muted {
			continue
		}

		stats.Total++
		stats.ByLevel[i.Level]++
		stats.ByTool[i.Tool]++
		stats.ByPath[i.Path]++
	}

	return stats
}

// WorstLevel returns the most severe Level present in the report, or
// issue.LevelFmt if it contains no issues, used by the CLI to pick the
// process exit code.
func (r Report) WorstLevel() issue.Level {
	worst := issue.LevelFmt

	for level, count := range r.Stats.ByLevel {
		if count > 0 && level > worst {
			worst = level
		}
	}

	return worst
}
