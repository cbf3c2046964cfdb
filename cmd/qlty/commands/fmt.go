package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/executor"
	"github.com/qlty-go/qlty/internal/planner"
	"github.com/qlty-go/qlty/internal/plugin"
	"github.com/qlty-go/qlty/internal/processor"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/internal/transform"
)

type fmtFlags struct {
	root       string
	configPath string
	format     string
}

func newFmtCommand() *cobra.Command {
	flags := &fmtFlags{}

	cmd := &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Report files that formatter plugins would reformat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "repository root (default: working directory)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")
	cmd.Flags().StringVar(&flags.format, "format", "table", "output format: table, json")

	return cmd
}

func runFmt(ctx context.Context, flags *fmtFlags, args []string) error {
	root, err := repoRoot(flags.root)
	if err != nil {
		return err
	}

	cfg, err := qltyconfig.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}

	plugins, err := resolvePlugins(cfg)
	if err != nil {
		return err
	}

	fmtPlugins := formatModePlugins(plugins)
	if len(fmtPlugins) == 0 {
		fmt.Fprintln(os.Stdout, "no formatter plugins enabled")
		return nil
	}

	entries, err := discoverEntries(root, args)
	if err != nil {
		return err
	}

	excludes := buildExcludes(cfg)
	plan := planner.Build(entries, fmtPlugins, excludes)

	cacheRoot := defaultCacheDir(cfg, root)
	chain := transform.Build(cfg)
	exec := executor.New(cfg, root, cacheRoot, chain)

	result, err := exec.Run(ctx, plan, nil)
	if err != nil {
		return err
	}

	report := processor.Build(result.Issues)

	switch flags.format {
	case "json":
		if encErr := processor.EncodeJSON(os.Stdout, report); encErr != nil {
			return qltyerr.Wrap(qltyerr.KindIO, encErr)
		}
	default:
		fmt.Fprintln(os.Stdout, processor.RenderTable(report))

		if report.Stats.Total > 0 {
			fmt.Fprintf(os.Stdout, "%d file(s) need formatting; re-run the underlying formatter with its write flag to fix them\n", report.Stats.Total)
		}
	}

	if report.Stats.Total > 0 {
		return qltyerr.Fatalf(qltyerr.KindLint, "%d file(s) are not formatted", report.Stats.Total)
	}

	return nil
}

// formatModePlugins returns copies of plugins with only their
// plugin.DriverFormat drivers kept, dropping plugins left with none. The
// check.go pathway and fmt.go pathway share a single Driver.Mode field
// rather than a separate "write" command, so fmt reports what gofmt -l /
// prettier --list-different would report; it does not rewrite files.
func formatModePlugins(plugins []plugin.Plugin) []plugin.Plugin {
	out := make([]plugin.Plugin, 0, len(plugins))

	for _, p := range plugins {
		drivers := make(map[string]plugin.Driver)

		for name, d := range p.Drivers {
			if d.Mode == plugin.DriverFormat {
				drivers[name] = d
			}
		}

		if len(drivers) == 0 {
			continue
		}

		cp := p
		cp.Drivers = drivers
		out = append(out, cp)
	}

	return out
}
