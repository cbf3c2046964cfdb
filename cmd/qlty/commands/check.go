package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/qlty-go/qlty/internal/checkpoint"
	"github.com/qlty-go/qlty/internal/executor"
	"github.com/qlty-go/qlty/internal/issue"
	"github.com/qlty-go/qlty/internal/planner"
	"github.com/qlty-go/qlty/internal/processor"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/internal/transform"
	"github.com/qlty-go/qlty/pkg/observability"
)

const checkpointBasename = "run-state"

type checkFlags struct {
	root       string
	configPath string
	format     string
	failLevel  string
	diff       string
	resume     bool
	noCache    bool
	jobs       int
}

func newCheckCommand() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Run configured linters and formatters checks over the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "repository root (default: working directory)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")
	cmd.Flags().StringVar(&flags.format, "format", "table", "output format: table, json")
	cmd.Flags().StringVar(&flags.failLevel, "fail-level", "low", "minimum issue level that causes a non-zero exit: fmt, low, medium, high")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "resume from the last checkpointed run state, if present")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "ignore any checkpointed run state")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "override runtime.jobs from qlty.toml")
	cmd.Flags().StringVar(&flags.diff, "diff", "", "scope to files changed between two git revisions, e.g. main..HEAD")

	return cmd
}

func runCheck(ctx context.Context, flags *checkFlags, args []string) error {
	providers, err := observability.Init(observability.ConfigFromEnv())
	if err != nil {
		return qltyerr.Wrap(qltyerr.KindUnknown, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if shutdownErr := providers.Shutdown(shutdownCtx); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	ctx, span := providers.Tracer.Start(ctx, "qlty.check")
	defer span.End()

	root, err := repoRoot(flags.root)
	if err != nil {
		return err
	}

	cfg, err := qltyconfig.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}

	if flags.jobs > 0 {
		cfg.Runtime.Jobs = flags.jobs
	}

	if !validFailLevel(flags.failLevel) {
		return qltyerr.Wrap(qltyerr.KindInvalidOptions, fmt.Errorf("invalid --fail-level %q: want fmt, low, medium, or high", flags.failLevel))
	}

	plugins, err := resolvePlugins(cfg)
	if err != nil {
		return err
	}

	entries, err := discoverEntriesDiff(root, args, flags.diff)
	if err != nil {
		return err
	}

	excludes := buildExcludes(cfg)
	plan := planner.Build(entries, plugins, excludes)

	span.SetAttributes(attribute.Int("qlty.invocation_count", len(plan.Invocations)))

	cacheRoot := defaultCacheDir(cfg, root)
	chain := transform.Build(cfg)
	exec := executor.New(cfg, root, cacheRoot, chain)

	persister := checkpoint.NewPersister[checkpoint.RunState](checkpointBasename, checkpoint.NewJSONCodec())

	var resumeState *checkpoint.RunState

	if flags.resume && !flags.noCache {
		resumeState = loadResumeState(persister, cacheRoot, root)
	}

	result, runErr := exec.Run(ctx, plan, resumeState)
	if runErr != nil {
		return runErr
	}

	if !flags.noCache {
		saveErr := persister.Save(cacheRoot, func() *checkpoint.RunState {
			state := checkpoint.NewRunState(root)
			state.Completed = result.Results
			state.TotalCount = len(plan.Invocations)

			return state
		})
		if saveErr != nil {
			providers.Logger.Warn("failed to persist checkpoint", "error", saveErr)
		}
	}

	report := processor.Build(result.Issues)

	if renderErr := renderReport(report, flags.format); renderErr != nil {
		return renderErr
	}

	if report.WorstLevel() >= issue.ParseLevel(flags.failLevel) && report.Stats.Total > 0 {
		return qltyerr.Fatalf(qltyerr.KindLint, "%d issue(s) found at or above %q", report.Stats.Total, flags.failLevel)
	}

	return nil
}

func validFailLevel(s string) bool {
	switch s {
	case "fmt", "low", "medium", "high":
		return true
	}

	return false
}

func loadResumeState(persister *checkpoint.Persister[checkpoint.RunState], cacheRoot, root string) *checkpoint.RunState {
	var loaded checkpoint.RunState

	loadErr := persister.Load(cacheRoot, func(s *checkpoint.RunState) { loaded = *s })
	if loadErr != nil {
		return nil
	}

	if loaded.Stale(root) {
		return nil
	}

	return &loaded
}

func renderReport(report processor.Report, format string) error {
	switch format {
	case "json":
		if err := processor.EncodeJSON(os.Stdout, report); err != nil {
			return qltyerr.Wrap(qltyerr.KindIO, err)
		}

		return nil
	default:
		fmt.Fprintln(os.Stdout, processor.RenderTable(report))
		fmt.Fprintln(os.Stdout, processor.RenderSummary(report))

		return nil
	}
}
