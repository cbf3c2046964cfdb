package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlty-go/qlty/internal/issue"
)

func TestMypy_Parse(t *testing.T) {
	t.Parallel()

	input := `
{"file": "basic.in.py", "line": 1, "column": 0, "message": "Library stubs not installed", "code": "import-untyped", "severity": "error"}
{"file": "basic.in.py", "line": 13, "column": 9, "message": "Argument 1 to \"greeting\" has incompatible type", "code": "arg-type", "severity": "error"}
{"file": "basic.in.py", "line": 23, "column": -1, "message": "misc note", "code": "misc", "severity": "note"}
`

	issues, err := Mypy{}.Parse("mypy", input)
	require.NoError(t, err)
	require.Len(t, issues, 3)

	assert.Equal(t, issue.Issue{
		Tool:     "mypy",
		RuleKey:  "import-untyped",
		Message:  "Library stubs not installed",
		Level:    issue.LevelHigh,
		Category: issue.CategoryLint,
		Path:     "basic.in.py",
		Range:    issue.Range{StartLine: 1, StartColumn: 1},
	}, issues[0])

	assert.Equal(t, 10, issues[1].Range.StartColumn)
	assert.Equal(t, issue.LevelLow, issues[2].Level)
	assert.Equal(t, 1, issues[2].Range.StartColumn)
}

func TestMypy_Parse_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	input := "not json\n{\"file\": \"a.py\", \"line\": 1, \"column\": 1, \"message\": \"m\", \"code\": \"c\", \"severity\": \"error\"}\n\n"

	issues, err := Mypy{}.Parse("mypy", input)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "a.py", issues[0].Path)
}
