package transform

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/qlty-go/qlty/internal/issue"
)

// Fixer attempts an AI-generated fix for issues that have no tool-native
// suggestion, batching issues per file to keep prompt count down and
// bounding total work so a single noisy run can't consume unbounded model
// budget.
const (
	// MaxFixes caps the total number of issues the Fixer will attempt to
	// fix in a single run, across all files.
	MaxFixes = 500
	// MaxFixesPerFile caps how many issues in a single file are sent for
	// fixing, so one pathological file can't starve the rest of the run.
	MaxFixesPerFile = 30
	// MaxConcurrentFixes bounds how many fix requests are in flight at once.
	MaxConcurrentFixes = 10
	// MaxBatchSize is the largest number of issues bundled into one model
	// request; batching amortizes prompt overhead across nearby issues.
	MaxBatchSize = 15
)

// Client generates a fix suggestion for a batch of issues sharing a file.
// Implementations call out to an LLM or a local rule-based fixer.
type Client interface {
	Fix(ctx context.Context, path string, source string, batch []issue.Issue) ([]issue.Suggestion, error)
}

// Fixer is a Transformer-adjacent stage run after the Chain, since it needs
// to see the full issue set per file to batch effectively rather than
// one issue at a time.
type Fixer struct {
	Client      Client
	ReadSource  func(path string) (string, error)
}

// Attempt assigns suggestions to eligible issues (those with no existing
// tool suggestion), respecting MaxFixes/MaxFixesPerFile/MaxBatchSize, and
// running up to MaxConcurrentFixes file batches concurrently. Issues for
// which the client errors are left unmodified; Attempt does not fail the
// run over a single fix failure.
func (f Fixer) Attempt(ctx context.Context, issues []issue.Issue) ([]issue.Issue, error) {
	byFile := groupEligibleByFile(issues)

	sem := semaphore.NewWeighted(MaxConcurrentFixes)
	grp, grpCtx := errgroup.WithContext(ctx)

	total := 0

	for _, file := range sortedKeys(byFile) {
		indices := byFile[file]
		if total >= MaxFixes {
			break
		}

		if len(indices) > MaxFixesPerFile {
			indices = indices[:MaxFixesPerFile]
		}

		remaining := MaxFixes - total
		if len(indices) > remaining {
			indices = indices[:remaining]
		}

		total += len(indices)

		for _, batch := range chunk(indices, MaxBatchSize) {
			file, batch := file, batch

			acquireErr := sem.Acquire(grpCtx, 1)
			if acquireErr != nil {
				break
			}

			grp.Go(func() error {
				defer sem.Release(1)

				return f.fixBatch(grpCtx, file, batch, issues)
			})
		}
	}

	waitErr := grp.Wait()
	if waitErr != nil {
		return issues, fmt.Errorf("fix batch: %w", waitErr)
	}

	return issues, nil
}

func (f Fixer) fixBatch(ctx context.Context, path string, indices []int, issues []issue.Issue) error {
	source, err := f.ReadSource(path)
	if err != nil {
		return nil //nolint:nilerr // unreadable source just means this batch gets no fix
	}

	batch := make([]issue.Issue, len(indices))
	for i, idx := range indices {
		batch[i] = issues[idx]
	}

	suggestions, fixErr := f.Client.Fix(ctx, path, source, batch)
	if fixErr != nil {
		return nil //nolint:nilerr // a failed fix attempt doesn't fail the run
	}

	for i, idx := range indices {
		if i < len(suggestions) {
			issues[idx].Suggestions = append(issues[idx].Suggestions, suggestions[i])
		}
	}

	return nil
}

func groupEligibleByFile(issues []issue.Issue) map[string][]int {
	byFile := make(map[string][]int)

	for idx, i := range issues {
		if len(i.Suggestions) > 0 || i.Ignored || i.Muted {
			continue
		}

		byFile[i.Path] = append(byFile[i.Path], idx)
	}

	return byFile
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func chunk(indices []int, size int) [][]int {
	var out [][]int

	for i := 0; i < len(indices); i += size {
		end := i + size
		if end > len(indices) {
			end = len(indices)
		}

		out = append(out, indices[i:end])
	}

	return out
}
