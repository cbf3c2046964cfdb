package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlty-go/qlty/internal/issue"
)

func writeMutedSource(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "main.go")

	content := ""
	for _, l := range lines {
		content += l + "\n"
	}

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestIssueMuter_MutesExactLine(t *testing.T) {
	t.Parallel()

	path := writeMutedSource(t,
		"package main",
		"var x = 1 // qlty-ignore(eslint/no-unused-vars)",
		"func main() {}",
	)

	m := NewIssueMuter()

	_, ok := m.Transform(issue.Issue{Tool: "eslint", RuleKey: "no-unused-vars", Path: path, Range: issue.Range{StartLine: 2}})

	assert.False(t, ok)
}

func TestIssueMuter_MutesWithinOneLineWindow(t *testing.T) {
	t.Parallel()

	path := writeMutedSource(t,
		"package main",
		"// qlty-ignore(eslint/no-unused-vars)",
		"var x = 1",
		"func main() {}",
	)

	m := NewIssueMuter()

	i, ok := m.Transform(issue.Issue{Tool: "eslint", RuleKey: "no-unused-vars", Path: path, Range: issue.Range{StartLine: 3}})

	assert.False(t, ok)
	assert.True(t, i.Muted)
}

func TestIssueMuter_RequiresMatchingPluginAndRule(t *testing.T) {
	t.Parallel()

	path := writeMutedSource(t,
		"package main",
		"var x = 1 // qlty-ignore(eslint/no-unused-vars)",
	)

	m := NewIssueMuter()

	_, ok := m.Transform(issue.Issue{Tool: "eslint", RuleKey: "eqeqeq", Path: path, Range: issue.Range{StartLine: 2}})

	assert.True(t, ok)
}

func TestIssueMuter_OutsideWindowNotMuted(t *testing.T) {
	t.Parallel()

	path := writeMutedSource(t,
		"// qlty-ignore(eslint/no-unused-vars)",
		"package main",
		"var x = 1",
		"var y = 1",
	)

	m := NewIssueMuter()

	_, ok := m.Transform(issue.Issue{Tool: "eslint", RuleKey: "no-unused-vars", Path: path, Range: issue.Range{StartLine: 4}})

	assert.True(t, ok)
}
