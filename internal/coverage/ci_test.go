package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envFrom(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDetectCIFrom_Buildkite(t *testing.T) {
	t.Parallel()

	env := envFrom(map[string]string{
		"BUILDKITE":              "true",
		"BUILDKITE_COMMIT":       "abc123",
		"BUILDKITE_BRANCH":       "main",
		"BUILDKITE_BUILD_ID":     "42",
		"BUILDKITE_BUILD_URL":    "https://buildkite.example/builds/42",
		"BUILDKITE_PULL_REQUEST": "false",
	})

	meta, ok := detectCIFrom(env)

	assert.True(t, ok)
	assert.Equal(t, "buildkite", meta.Provider)
	assert.Equal(t, "abc123", meta.CommitSHA)
	assert.Empty(t, meta.PullRequest)
}

func TestDetectCIFrom_BuildkitePullRequestNumber(t *testing.T) {
	t.Parallel()

	env := envFrom(map[string]string{
		"BUILDKITE":              "true",
		"BUILDKITE_PULL_REQUEST": "17",
	})

	meta, ok := detectCIFrom(env)

	assert.True(t, ok)
	assert.Equal(t, "17", meta.PullRequest)
}

func TestDetectCIFrom_Travis(t *testing.T) {
	t.Parallel()

	env := envFrom(map[string]string{
		"TRAVIS":                "true",
		"TRAVIS_COMMIT":         "def456",
		"TRAVIS_BRANCH":         "main",
		"TRAVIS_PULL_REQUEST":   "false",
		"TRAVIS_BUILD_ID":       "7",
		"TRAVIS_BUILD_WEB_URL":  "https://travis-ci.example/builds/7",
	})

	meta, ok := detectCIFrom(env)

	assert.True(t, ok)
	assert.Equal(t, "travis", meta.Provider)
	assert.Empty(t, meta.PullRequest)
}

func TestDetectCIFrom_Codefresh(t *testing.T) {
	t.Parallel()

	env := envFrom(map[string]string{
		"CF_BUILD_ID": "5",
		"CF_REVISION": "fff000",
		"CF_BRANCH":   "main",
	})

	meta, ok := detectCIFrom(env)

	assert.True(t, ok)
	assert.Equal(t, "codefresh", meta.Provider)
}

func TestDetectCIFrom_Semaphore(t *testing.T) {
	t.Parallel()

	env := envFrom(map[string]string{
		"SEMAPHORE":          "true",
		"SEMAPHORE_GIT_SHA":  "aaa111",
		"SEMAPHORE_GIT_BRANCH": "main",
	})

	meta, ok := detectCIFrom(env)

	assert.True(t, ok)
	assert.Equal(t, "semaphore", meta.Provider)
}

func TestDetectCIFrom_Jenkins(t *testing.T) {
	t.Parallel()

	env := envFrom(map[string]string{
		"JENKINS_URL": "https://jenkins.example",
		"GIT_COMMIT":  "bbb222",
		"BRANCH_NAME": "main",
	})

	meta, ok := detectCIFrom(env)

	assert.True(t, ok)
	assert.Equal(t, "jenkins", meta.Provider)
	assert.Equal(t, "main", meta.Branch)
}

func TestDetectCIFrom_NoneMatched(t *testing.T) {
	t.Parallel()

	_, ok := detectCIFrom(envFrom(nil))

	assert.False(t, ok)
}

func TestDetectCIFrom_OrderPrefersEarlierProbe(t *testing.T) {
	t.Parallel()

	// Buildkite and CircleCI both set BRANCH_NAME-like vars in the wild;
	// setting both indicators confirms Buildkite (listed first) wins.
	env := envFrom(map[string]string{
		"BUILDKITE": "true",
		"CIRCLECI":  "true",
	})

	meta, ok := detectCIFrom(env)

	assert.True(t, ok)
	assert.Equal(t, "buildkite", meta.Provider)
}
