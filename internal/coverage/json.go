package coverage

import "encoding/json"

// SimpleCov parses Ruby SimpleCov's `.resultset.json`: a top-level map
// keyed by suite name, each with a "coverage" map of path to either a flat
// []int64 of per-line hit counts (nil entries are non-instrumented lines)
// or the newer {"lines": [...]} object form.
type SimpleCov struct{}

type simpleCovFile struct {
	Lines []*int64 `json:"lines"`
}

// Parse implements Parser.
func (SimpleCov) Parse(data []byte) ([]FileCoverage, error) {
	var suites map[string]struct {
		Coverage map[string]json.RawMessage `json:"coverage"`
	}

	if err := json.Unmarshal(data, &suites); err != nil {
		return nil, err
	}

	merged := make(map[string]*FileCoverage)
	order := make([]string, 0)

	for _, suite := range suites {
		for path, raw := range suite.Coverage {
			hits, err := decodeSimpleCovEntry(raw)
			if err != nil {
				continue
			}

			fc, ok := merged[path]
			if !ok {
				fc = &FileCoverage{Path: path, LineHits: make([]int64, len(hits))}

				for i := range fc.LineHits {
					fc.LineHits[i] = -1
				}

				merged[path] = fc
				order = append(order, path)
			}

			mergeSimpleCovHits(fc, hits)
		}
	}

	files := make([]FileCoverage, 0, len(order))

	for _, path := range order {
		fc := merged[path]
		summarize(fc)
		files = append(files, *fc)
	}

	return files, nil
}

func decodeSimpleCovEntry(raw json.RawMessage) ([]*int64, error) {
	var flat []*int64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested simpleCovFile
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}

	return nested.Lines, nil
}

func mergeSimpleCovHits(fc *FileCoverage, hits []*int64) {
	for len(fc.LineHits) < len(hits) {
		fc.LineHits = append(fc.LineHits, -1)
	}

	for i, h := range hits {
		if h == nil {
			continue
		}

		if fc.LineHits[i] < 0 {
			fc.LineHits[i] = 0
		}

		fc.LineHits[i] += *h
	}
}

// Xccov parses the JSON produced by `xcrun xccov view --report --json`:
// a tree of targets/files, each file carrying "lineCoverage" and an
// "executableLines" map keyed by line number string.
type Xccov struct{}

type xccovReport struct {
	Targets []struct {
		Files []struct {
			Path            string           `json:"path"`
			ExecutableLines map[string]int64 `json:"executableLines"`
		} `json:"files"`
	} `json:"targets"`
}

// Parse implements Parser.
func (Xccov) Parse(data []byte) ([]FileCoverage, error) {
	var report xccovReport

	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	var files []FileCoverage

	for _, target := range report.Targets {
		for _, f := range target.Files {
			fc := FileCoverage{Path: f.Path}

			maxLine := 0
			for lineStr := range f.ExecutableLines {
				if n := parseLineDotCol(lineStr + "."); n > maxLine {
					maxLine = n
				}
			}

			growHits(&fc, maxLine)

			for lineStr, hits := range f.ExecutableLines {
				n := parseLineDotCol(lineStr + ".")
				if n < 1 {
					continue
				}

				fc.LineHits[n-1] = hits
			}

			summarize(&fc)
			files = append(files, fc)
		}
	}

	return files, nil
}

// Native parses qlty's own JSON-lines coverage format: one
// {"path":..., "line_hits":[...]} object per line.
type Native struct{}

type nativeRecord struct {
	Path     string  `json:"path"`
	LineHits []int64 `json:"line_hits"`
}

// Parse implements Parser.
func (Native) Parse(data []byte) ([]FileCoverage, error) {
	var files []FileCoverage

	for _, raw := range splitLines(data) {
		if len(raw) == 0 {
			continue
		}

		var rec nativeRecord

		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}

		fc := FileCoverage{Path: rec.Path, LineHits: rec.LineHits}
		summarize(&fc)
		files = append(files, fc)
	}

	return files, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte

	start := 0

	for i, b := range data {
		if b == '\n' {
			lines = append(lines, trimCR(data[start:i]))
			start = i + 1
		}
	}

	if start < len(data) {
		lines = append(lines, trimCR(data[start:]))
	}

	return lines
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}

	return b
}
