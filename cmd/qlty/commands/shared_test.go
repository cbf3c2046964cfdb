package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiffRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		in         string
		wantFrom   string
		wantTo     string
		wantErrMsg string
	}{
		{name: "both refs", in: "main..HEAD", wantFrom: "main", wantTo: "HEAD"},
		{name: "base only defaults to HEAD", in: "main", wantFrom: "main", wantTo: "HEAD"},
		{name: "empty to defaults to HEAD", in: "main..", wantFrom: "main", wantTo: "HEAD"},
		{name: "commit shas", in: "abc123..def456", wantFrom: "abc123", wantTo: "def456"},
		{name: "empty base is an error", in: "..HEAD", wantErrMsg: "non-empty base ref"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			from, to, err := parseDiffRange(tc.in)

			if tc.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErrMsg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantFrom, from)
			assert.Equal(t, tc.wantTo, to)
		})
	}
}
