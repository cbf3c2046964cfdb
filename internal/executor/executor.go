// Package executor runs a planner.Plan: installing each invocation's tool
// if needed, invoking its driver as a subprocess, parsing its output, and
// applying the transformer chain, with bounded concurrency and support for
// resuming a previously interrupted run from a checkpoint.RunState.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/qlty-go/qlty/internal/cache"
	"github.com/qlty-go/qlty/internal/checkpoint"
	"github.com/qlty-go/qlty/internal/issue"
	"github.com/qlty-go/qlty/internal/parser"
	"github.com/qlty-go/qlty/internal/planner"
	"github.com/qlty-go/qlty/internal/plugin"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/internal/registry"
	"github.com/qlty-go/qlty/internal/staging"
	"github.com/qlty-go/qlty/internal/transform"
	"github.com/qlty-go/qlty/internal/workspace"
)

// targetPlaceholder is the token a driver's CommandLine substitutes with
// each invocation's target path(s).
const targetPlaceholder = "${target}"

// defaultInvocationTimeout bounds a single invocation when the config
// leaves Runtime.Timeout unset, so a hung driver process can't wedge a run.
const defaultInvocationTimeout = 5 * time.Minute

// Executor runs invocations from a Plan against a repository checkout.
type Executor struct {
	RepoRoot    string
	CacheRoot   string
	Concurrency int
	Timeout     time.Duration
	Parsers     parser.Registry
	Chain       transform.Chain
	Fixer       *transform.Fixer

	downloadCache *cache.Memo[[]byte]
}

// New builds an Executor from loaded config, defaulting Concurrency (to one
// job per logical CPU) and Timeout when the config leaves them unset.
func New(cfg *qltyconfig.Config, repoRoot, cacheRoot string, chain transform.Chain) *Executor {
	concurrency := cfg.Runtime.Jobs
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	timeout := defaultInvocationTimeout
	if cfg.Runtime.Timeout != "" {
		if parsed, err := time.ParseDuration(cfg.Runtime.Timeout); err == nil && parsed > 0 {
			timeout = parsed
		}
	}

	return &Executor{
		RepoRoot:      repoRoot,
		CacheRoot:     cacheRoot,
		Concurrency:   concurrency,
		Timeout:       timeout,
		Parsers:       parser.NewRegistry(),
		Chain:         chain,
		downloadCache: cache.NewMemo[[]byte](),
	}
}

// Result is the outcome of running a Plan: every surviving issue plus the
// per-invocation results suitable for persisting as a checkpoint.RunState.
type Result struct {
	Issues  []issue.Issue
	Results []checkpoint.InvocationResult
}

// Run installs and invokes every Invocation in plan concurrently, bounded
// by Concurrency, skipping any invocation that resume (a previously
// persisted RunState) records as succeeded so a restarted run doesn't redo
// finished work; invocations it records as failed run again. Invocation failures are recorded in the result rather than
// aborting the run; ctx cancellation stops scheduling new invocations and
// waits for in-flight ones to observe cancellation.
func (e *Executor) Run(ctx context.Context, plan planner.Plan, resume *checkpoint.RunState) (*Result, error) {
	done := doneSet(resume)

	sem := semaphore.NewWeighted(int64(e.Concurrency))
	grp, grpCtx := errgroup.WithContext(ctx)

	var (
		mu      sync.Mutex
		results []checkpoint.InvocationResult
	)

	if resume != nil {
		results = append(results, resume.Completed...)
	}

	for _, inv := range plan.Invocations {
		inv := inv

		key := invocationKey(inv)
		if _, ok := done[key]; ok {
			continue
		}

		acquireErr := sem.Acquire(grpCtx, 1)
		if acquireErr != nil {
			break
		}

		grp.Go(func() error {
			defer sem.Release(1)

			res, err := e.runOne(grpCtx, inv)

			mu.Lock()
			results = append(results, res)
			mu.Unlock()

			if err != nil {
				qltyerr.WarnOnce(fmt.Sprintf("invocation for %s failed: %v", inv.Driver.Name, err))
			}

			return nil
		})
	}

	waitErr := grp.Wait()
	if waitErr != nil {
		return nil, qltyerr.Wrap(qltyerr.KindUnknown, waitErr)
	}

	issues, collectErr := collectIssues(results)
	if collectErr != nil {
		return nil, collectErr
	}

	issues = e.Chain.Apply(issues)

	if e.Fixer != nil {
		fixed, fixErr := e.Fixer.Attempt(ctx, issues)
		if fixErr != nil {
			qltyerr.WarnOnce(fmt.Sprintf("autofix pass incomplete: %v", fixErr))
		} else {
			issues = fixed
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Driver != results[j].Driver {
			return results[i].Driver < results[j].Driver
		}

		return results[i].FirstPath < results[j].FirstPath
	})

	return &Result{Issues: issues, Results: results}, nil
}

func (e *Executor) runOne(ctx context.Context, inv planner.Invocation) (checkpoint.InvocationResult, error) {
	firstPath := ""
	if len(inv.Targets) > 0 {
		firstPath = inv.Targets[0].Path
	}

	res := checkpoint.InvocationResult{Driver: inv.Driver.Name, FirstPath: firstPath}

	tool := registry.NewTool(inv.Plugin, pluginVersion(inv.Plugin), e.CacheRoot)

	installErr := tool.EnsureInstalled()
	if installErr != nil {
		return res, installErr
	}

	stagingDir := filepath.Join(e.CacheRoot, "staging", strings.ReplaceAll(inv.Driver.Name, "/", "_"))

	if mkErr := os.MkdirAll(stagingDir, 0o755); mkErr != nil {
		return res, qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("create staging dir: %w", mkErr))
	}

	area := staging.NewArea(stagingDir, e.downloadCache)

	for _, cf := range inv.Driver.ConfigFiles {
		if _, stageErr := area.StageFile(cf, e.RepoRoot, "", staging.ModeSymlink); stageErr != nil {
			return res, stageErr
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	output, runErr := e.invoke(ctx, tool, inv, area.RootPath())
	if runErr != nil {
		return res, runErr
	}

	p, ok := e.Parsers.For(string(inv.Driver.OutputFormat))
	if !ok {
		return res, qltyerr.Fatalf(qltyerr.KindParse, "no parser registered for output format %q", inv.Driver.OutputFormat)
	}

	issues, parseErr := p.Parse(inv.Plugin.Name, output)
	if parseErr != nil {
		return res, qltyerr.Wrap(qltyerr.KindParse, parseErr)
	}

	for i := range issues {
		issues[i].Tool = inv.Plugin.Name
	}

	encoded, encodeErr := json.Marshal(issues)
	if encodeErr != nil {
		return res, qltyerr.Wrap(qltyerr.KindIO, encodeErr)
	}

	res.Succeeded = true
	res.IssueJSON = encoded

	return res, nil
}

// invoke runs the driver's command line as a subprocess against inv's
// targets, substituting "${target}" with each target's absolute repo path
// (one argument per target). The invocation's working directory is
// stagingDir, so a driver that expects its config file in its cwd (rather
// than passed by flag) finds the staged copy. A non-zero exit is only an
// error if it is absent from the driver's SuccessCodes.
func (e *Executor) invoke(ctx context.Context, tool registry.Tool, inv planner.Invocation, stagingDir string) (string, error) {
	argv := expandCommandLine(inv.Driver.CommandLine, e.RepoRoot, inv.Targets)
	if len(argv) == 0 {
		return "", qltyerr.Fatalf(qltyerr.KindConfig, "driver %s has an empty command line", inv.Driver.Name)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = stagingDir
	cmd.Env = append(cmd.Environ(), "PATH="+tool.Dir()+string(filepath.ListSeparator)+os.Getenv("PATH"))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return stdout.String(), nil
	}

	exitErr, isExit := runErr.(*exec.ExitError)
	if !isExit {
		return "", qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("run %s: %w", inv.Driver.Name, runErr))
	}

	if successCode(exitErr.ExitCode(), inv.Driver.SuccessCodes) {
		return stdout.String(), nil
	}

	return "", qltyerr.Wrap(qltyerr.KindLint, fmt.Errorf("%s exited %d: %s", inv.Driver.Name, exitErr.ExitCode(), stderr.String()))
}

func successCode(code int, successCodes []int) bool {
	if code == 0 {
		return true
	}

	for _, c := range successCodes {
		if c == code {
			return true
		}
	}

	return false
}

// expandCommandLine substitutes targetPlaceholder in template with every
// target's absolute path, expanding to one argument per target; a template
// with no placeholder (BatchOnlyWorkspace drivers) is returned unchanged.
func expandCommandLine(template []string, repoRoot string, targets []workspace.Entry) []string {
	argv := make([]string, 0, len(template)+len(targets))

	for _, arg := range template {
		if arg != targetPlaceholder {
			argv = append(argv, arg)
			continue
		}

		for _, t := range targets {
			argv = append(argv, filepath.Join(repoRoot, t.Path))
		}
	}

	return argv
}

func pluginVersion(p plugin.Plugin) string {
	if p.Install.Version != "" {
		return p.Install.Version
	}

	return "latest"
}

func invocationKey(inv planner.Invocation) string {
	first := ""
	if len(inv.Targets) > 0 {
		first = inv.Targets[0].Path
	}

	return inv.Driver.Name + "\x00" + first
}

func doneSet(resume *checkpoint.RunState) map[string]struct{} {
	set := make(map[string]struct{})
	if resume == nil {
		return set
	}

	for _, r := range resume.Completed {
		if r.Succeeded {
			set[r.Driver+"\x00"+r.FirstPath] = struct{}{}
		}
	}

	return set
}

func collectIssues(results []checkpoint.InvocationResult) ([]issue.Issue, error) {
	var all []issue.Issue

	for _, r := range results {
		if !r.Succeeded || len(r.IssueJSON) == 0 {
			continue
		}

		var issues []issue.Issue

		if err := json.Unmarshal(r.IssueJSON, &issues); err != nil {
			return nil, qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("decode cached issues for %s: %w", r.Driver, err))
		}

		all = append(all, issues...)
	}

	return all, nil
}
