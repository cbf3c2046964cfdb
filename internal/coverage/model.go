// Package coverage parses third-party coverage report formats into a
// unified per-file hit-count model, packs that model for low-memory
// retention across a run, and exports it as the coverage.zip bundle
// internal/cloudclient uploads.
package coverage

// FileCoverage is one source file's line hit counts, 1-indexed by line
// number (LineHits[0] corresponds to line 1).
type FileCoverage struct {
	Path      string
	LineHits  []int64 // -1 marks a non-instrumented line
	Covered   int
	Total     int
}

// CoverageMetadata describes the run a coverage report belongs to, mirroring
// the fields qlty's cloud API records per upload.
type CoverageMetadata struct {
	CommitSHA   string            `json:"commit_sha"`
	Branch      string            `json:"branch"`
	Tag         string            `json:"tag,omitempty"`
	BuildID     string            `json:"build_id,omitempty"`
	BuildURL    string            `json:"build_url,omitempty"`
	PullRequest string            `json:"pull_request_number,omitempty"`
	Total       int               `json:"total_lines"`
	Covered     int               `json:"covered_lines"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// Ratio returns the fraction of covered lines, or 0 if Total is 0.
func (m CoverageMetadata) Ratio() float64 {
	if m.Total == 0 {
		return 0
	}

	return float64(m.Covered) / float64(m.Total)
}

// Parser converts a single coverage report file's raw bytes into per-file
// coverage. Implementations never fail on a single malformed record; an
// error return means the report as a whole could not be interpreted.
type Parser interface {
	Parse(data []byte) ([]FileCoverage, error)
}

// summarize fills Covered/Total from LineHits.
func summarize(fc *FileCoverage) {
	for _, hits := range fc.LineHits {
		if hits < 0 {
			continue
		}

		fc.Total++

		if hits > 0 {
			fc.Covered++
		}
	}
}

// Summarize computes aggregate metadata totals across a set of files.
func Summarize(files []FileCoverage) (covered, total int) {
	for _, f := range files {
		covered += f.Covered
		total += f.Total
	}

	return covered, total
}

// Merge combines FileCoverage entries for the same path across one or more
// reports (e.g. unit and integration test runs uploaded together) by
// element-wise addition of their LineHits, zero-padding the shorter array
// to the longer one's length. Paths are kept in first-seen order. This is
// the cross-report counterpart to the per-format merges SimpleCov and
// Qlty-native already do internally (mergeSimpleCovHits, Native.Parse).
func Merge(files []FileCoverage) []FileCoverage {
	order := make([]string, 0, len(files))
	byPath := make(map[string]*FileCoverage, len(files))

	for _, fc := range files {
		existing, ok := byPath[fc.Path]
		if !ok {
			cp := FileCoverage{Path: fc.Path, LineHits: append([]int64(nil), fc.LineHits...)}
			byPath[fc.Path] = &cp
			order = append(order, fc.Path)

			continue
		}

		mergeLineHits(existing, fc.LineHits)
	}

	merged := make([]FileCoverage, 0, len(order))

	for _, path := range order {
		fc := byPath[path]
		summarize(fc)
		merged = append(merged, *fc)
	}

	return merged
}

func mergeLineHits(fc *FileCoverage, hits []int64) {
	for len(fc.LineHits) < len(hits) {
		fc.LineHits = append(fc.LineHits, 0)
	}

	for i, h := range hits {
		fc.LineHits[i] += h
	}
}
