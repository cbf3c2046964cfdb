package coverage

import "os"

// CIMetadata is what a CI environment probe can determine without any
// API calls, purely from the environment variables the major CI providers
// set on every job.
type CIMetadata struct {
	Provider    string
	CommitSHA   string
	Branch      string
	BuildID     string
	BuildURL    string
	PullRequest string
}

// ciProbe checks one CI provider's characteristic env var and extracts its
// metadata if present.
type ciProbe struct {
	name      string
	indicator string
	extract   func(lookup func(string) string) CIMetadata
}

// ciProbes is tried in order; the first indicator variable found wins. The
// order (Buildkite, CircleCI, Codefresh, GitHub, GitLab, Semaphore, Jenkins,
// Travis) matches the CI detector's own probing order, since some CI
// providers set overlapping generic env vars (e.g. BRANCH_NAME) and probing
// the more specific indicators first avoids misattribution.
var ciProbes = []ciProbe{
	{
		name:      "buildkite",
		indicator: "BUILDKITE",
		extract: func(env func(string) string) CIMetadata {
			return CIMetadata{
				Provider:    "buildkite",
				CommitSHA:   env("BUILDKITE_COMMIT"),
				Branch:      env("BUILDKITE_BRANCH"),
				BuildID:     env("BUILDKITE_BUILD_ID"),
				BuildURL:    env("BUILDKITE_BUILD_URL"),
				PullRequest: falseAsEmpty(env("BUILDKITE_PULL_REQUEST")),
			}
		},
	},
	{
		name:      "circleci",
		indicator: "CIRCLECI",
		extract: func(env func(string) string) CIMetadata {
			return CIMetadata{
				Provider:    "circleci",
				CommitSHA:   env("CIRCLE_SHA1"),
				Branch:      env("CIRCLE_BRANCH"),
				BuildID:     env("CIRCLE_BUILD_NUM"),
				BuildURL:    env("CIRCLE_BUILD_URL"),
				PullRequest: env("CIRCLE_PR_NUMBER"),
			}
		},
	},
	{
		name:      "codefresh",
		indicator: "CF_BUILD_ID",
		extract: func(env func(string) string) CIMetadata {
			return CIMetadata{
				Provider:    "codefresh",
				CommitSHA:   env("CF_REVISION"),
				Branch:      env("CF_BRANCH"),
				BuildID:     env("CF_BUILD_ID"),
				BuildURL:    env("CF_BUILD_URL"),
				PullRequest: env("CF_PULL_REQUEST_NUMBER"),
			}
		},
	},
	{
		name:      "github_actions",
		indicator: "GITHUB_ACTIONS",
		extract: func(env func(string) string) CIMetadata {
			return CIMetadata{
				Provider:    "github_actions",
				CommitSHA:   env("GITHUB_SHA"),
				Branch:      env("GITHUB_REF_NAME"),
				BuildID:     env("GITHUB_RUN_ID"),
				BuildURL:    env("GITHUB_SERVER_URL") + "/" + env("GITHUB_REPOSITORY") + "/actions/runs/" + env("GITHUB_RUN_ID"),
				PullRequest: extractGitHubPRNumber(env),
			}
		},
	},
	{
		name:      "gitlab_ci",
		indicator: "GITLAB_CI",
		extract: func(env func(string) string) CIMetadata {
			return CIMetadata{
				Provider:    "gitlab_ci",
				CommitSHA:   env("CI_COMMIT_SHA"),
				Branch:      env("CI_COMMIT_REF_NAME"),
				BuildID:     env("CI_JOB_ID"),
				BuildURL:    env("CI_JOB_URL"),
				PullRequest: env("CI_MERGE_REQUEST_IID"),
			}
		},
	},
	{
		name:      "semaphore",
		indicator: "SEMAPHORE",
		extract: func(env func(string) string) CIMetadata {
			return CIMetadata{
				Provider:    "semaphore",
				CommitSHA:   env("SEMAPHORE_GIT_SHA"),
				Branch:      env("SEMAPHORE_GIT_BRANCH"),
				BuildID:     env("SEMAPHORE_WORKFLOW_ID"),
				BuildURL:    env("SEMAPHORE_ORGANIZATION_URL") + "/workflows/" + env("SEMAPHORE_WORKFLOW_ID"),
				PullRequest: env("SEMAPHORE_GIT_PR_NUMBER"),
			}
		},
	},
	{
		name:      "jenkins",
		indicator: "JENKINS_URL",
		extract: func(env func(string) string) CIMetadata {
			branch := env("CHANGE_BRANCH")
			if branch == "" {
				branch = env("BRANCH_NAME")
			}

			return CIMetadata{
				Provider:    "jenkins",
				CommitSHA:   env("GIT_COMMIT"),
				Branch:      branch,
				BuildID:     env("INVOCATION_ID"),
				BuildURL:    env("JOB_URL"),
				PullRequest: env("CHANGE_ID"),
			}
		},
	},
	{
		name:      "travis",
		indicator: "TRAVIS",
		extract: func(env func(string) string) CIMetadata {
			branch := env("TRAVIS_PULL_REQUEST_BRANCH")
			if branch == "" {
				branch = env("TRAVIS_BRANCH")
			}

			return CIMetadata{
				Provider:    "travis",
				CommitSHA:   env("TRAVIS_COMMIT"),
				Branch:      branch,
				BuildID:     env("TRAVIS_BUILD_ID"),
				BuildURL:    env("TRAVIS_BUILD_WEB_URL"),
				PullRequest: falseAsEmpty(env("TRAVIS_PULL_REQUEST")),
			}
		},
	},
}

func extractGitHubPRNumber(env func(string) string) string {
	if env("GITHUB_EVENT_NAME") != "pull_request" {
		return ""
	}

	return env("GITHUB_REF_NAME")
}

// falseAsEmpty normalizes the literal string "false" (Buildkite's and
// Travis's convention for "not a pull request build") to an empty string.
func falseAsEmpty(v string) string {
	if v == "false" {
		return ""
	}

	return v
}

// DetectCI probes the process environment for a known CI provider, returning
// ok=false if none of the supported providers' indicator variables are set.
func DetectCI() (CIMetadata, bool) {
	return detectCIFrom(os.Getenv)
}

func detectCIFrom(env func(string) string) (CIMetadata, bool) {
	for _, probe := range ciProbes {
		if env(probe.indicator) == "" {
			continue
		}

		return probe.extract(env), true
	}

	return CIMetadata{}, false
}
