package transform

import (
	"os"
	"strings"
	"sync"

	"github.com/qlty-go/qlty/internal/issue"
)

// TabColumnWidth corrects column numbers reported by tools that count
// columns in bytes/characters (treating a tab as one column) into the
// visual-width columns qlty reports, for tools whose output is otherwise
// byte-column based. It only touches issues from its own Plugin, since
// other tools may already report visual columns.
type TabColumnWidth struct {
	Plugin   string
	TabWidth int
	Source   SourceReader
}

// SourceReader reads and caches file contents by path, the same role
// source_reader::SourceReaderFs plays for the transformer chain: several
// transformers in the same run may need the same file's lines.
type SourceReader interface {
	Lines(path string) ([]string, error)
}

// FileSourceReader reads files from the local filesystem, caching their
// line-split contents for the lifetime of the reader.
type FileSourceReader struct {
	mu    sync.Mutex
	cache map[string][]string
}

// NewFileSourceReader creates an empty FileSourceReader.
func NewFileSourceReader() *FileSourceReader {
	return &FileSourceReader{cache: make(map[string][]string)}
}

// Lines implements SourceReader.
func (r *FileSourceReader) Lines(path string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lines, ok := r.cache[path]; ok {
		return lines, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	r.cache[path] = lines

	return lines, nil
}

// Transform implements Transformer. It always keeps the issue; it only
// rewrites StartColumn/EndColumn on the issue's range and on every
// suggestion replacement's range.
func (t TabColumnWidth) Transform(i issue.Issue) (issue.Issue, bool) {
	if i.Tool != t.Plugin {
		return i, true
	}

	if start, end, ok := t.correctedColumns(i.Path, i.Range); ok {
		i.Range.StartColumn = start
		i.Range.EndColumn = end
	}

	for sIdx := range i.Suggestions {
		for rIdx := range i.Suggestions[sIdx].Replacements {
			rep := &i.Suggestions[sIdx].Replacements[rIdx]
			if start, end, ok := t.correctedColumns(i.Path, rep.Range); ok {
				rep.Range.StartColumn = start
				rep.Range.EndColumn = end
			}
		}
	}

	return i, true
}

// correctedColumns counts the tab characters on the range's start line that
// precede StartColumn and, separately, EndColumn, and shifts each column by
// its own count. Both counts use the start line, also for a range whose end
// lies on a later line.
func (t TabColumnWidth) correctedColumns(path string, r issue.Range) (start, end int, ok bool) {
	lines, err := t.Source.Lines(path)
	if err != nil || r.StartLine-1 < 0 || r.StartLine-1 >= len(lines) {
		return 0, 0, false
	}

	line := lines[r.StartLine-1]
	runes := []rune(line)

	start = r.StartColumn
	end = r.EndColumn

	tabsBeforeStart := countTabs(runes, r.StartColumn-1)
	tabsBeforeEnd := countTabs(runes, r.EndColumn-1)

	if tabsBeforeStart > 0 {
		start = saturatingSub(start, tabsBeforeStart*(t.TabWidth-1))
	}

	if tabsBeforeEnd > 0 {
		end = saturatingSub(end, tabsBeforeEnd*(t.TabWidth-1))
	}

	return start, end, true
}

func countTabs(runes []rune, upTo int) int {
	if upTo < 0 {
		upTo = 0
	}

	if upTo > len(runes) {
		upTo = len(runes)
	}

	count := 0

	for _, r := range runes[:upTo] {
		if r == '\t' {
			count++
		}
	}

	return count
}

// saturatingSub subtracts b from a, flooring at 1 rather than 0: a is
// always a 1-based column, and 0 is never a valid column to report.
func saturatingSub(a, b int) int {
	if a-b < 1 {
		return 1
	}

	return a - b
}
