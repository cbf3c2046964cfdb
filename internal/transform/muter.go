package transform

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/qlty-go/qlty/internal/issue"
)

// muteCommentPattern matches a "qlty-ignore(<plugin>/<rule>)" directive
// comment, e.g. "// qlty-ignore(eslint/no-unused-vars)". Both captures are
// required: an unscoped "qlty-ignore" mutes nothing, since the directive
// always names the plugin and rule it silences.
var muteCommentPattern = regexp.MustCompile(`qlty-ignore\(([^/()]+)/([^()]+)\)`)

// IssueMuter drops issues whose source line (or an adjacent line, within a
// ±1 line window) carries a "qlty-ignore(<plugin>/<rule>)" marker comment,
// the same way "nolint" or "noqa" comments work in other linters. A ±1
// window tolerates the directive landing on the line above or below the
// reported location, since tools disagree about whether a flagged
// construct's comment belongs on its own line or trails the code. Source
// lines are cached per file within a single run since the same file is
// often the target of several drivers.
type IssueMuter struct {
	mu    sync.Mutex
	lines map[string][]string
}

// NewIssueMuter creates an empty IssueMuter.
func NewIssueMuter() *IssueMuter {
	return &IssueMuter{lines: make(map[string][]string)}
}

// Transform implements Transformer, dropping the issue if a line within its
// ±1 window carries a directive naming its tool and rule key.
func (m *IssueMuter) Transform(i issue.Issue) (issue.Issue, bool) {
	lines, err := m.linesFor(i.Path)
	if err != nil {
		return i, true // unreadable file: nothing to mute against
	}

	center := i.Range.StartLine - 1

	for _, lineIdx := range []int{center - 1, center, center + 1} {
		if lineIdx < 0 || lineIdx >= len(lines) {
			continue
		}

		for _, match := range muteCommentPattern.FindAllStringSubmatch(lines[lineIdx], -1) {
			if strings.TrimSpace(match[1]) == i.Tool && strings.TrimSpace(match[2]) == i.RuleKey {
				i.Muted = true
				return i, false
			}
		}
	}

	return i, true
}

func (m *IssueMuter) linesFor(path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lines, ok := m.lines[path]; ok {
		return lines, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	m.lines[path] = lines

	return lines, scanner.Err()
}
