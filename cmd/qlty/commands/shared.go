// Package commands wires qlty's cobra command tree to the core packages:
// config loading, workspace discovery, planning, execution, and reporting.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/plugin"
	"github.com/qlty-go/qlty/internal/plugindefs"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/internal/workspace"
)

// Register attaches every qlty subcommand to rootCmd.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		newCheckCommand(),
		newFmtCommand(),
		newCoverageCommand(),
		newInstallCommand(),
		newCacheCommand(),
		newPluginsCommand(),
		newConfigCommand(),
		newInitCommand(),
		newDeinitCommand(),
		newBuildCommand(),
		newParseCommand(),
		newValidateCommand(),
		newAuthCommand(),
		newSourcesCommand(),
		newGithooksCommand(),
		newCompletionsCommand(),
		newUpgradeCommand(),
		newVersionCommand(),
		newDocsCommand(),
		newDashboardCommand(),
		newDiscordCommand(),
		newPatchCommand(),
		newTelemetryCommand(),
	)
}

// repoRoot resolves the repository root a command operates against:
// the --root flag if set, otherwise the process's working directory.
func repoRoot(rootFlag string) (string, error) {
	if rootFlag != "" {
		abs, err := filepath.Abs(rootFlag)
		if err != nil {
			return "", qltyerr.Wrap(qltyerr.KindInvalidOptions, err)
		}

		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", qltyerr.Wrap(qltyerr.KindIO, err)
	}

	return wd, nil
}

// defaultCacheDir returns the cache root for a repository, honoring
// qlty.toml's runtime.cache_dir override before falling back to the user's
// OS-standard cache directory.
func defaultCacheDir(cfg *qltyconfig.Config, root string) string {
	if cfg.Runtime.CacheDir != "" {
		if filepath.IsAbs(cfg.Runtime.CacheDir) {
			return cfg.Runtime.CacheDir
		}

		return filepath.Join(root, cfg.Runtime.CacheDir)
	}

	userCache, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(root, ".qlty", "cache")
	}

	return filepath.Join(userCache, "qlty")
}

// resolvePlugins resolves an already loaded qlty.toml's enabled plugins
// against the built-in plugin definitions.
func resolvePlugins(cfg *qltyconfig.Config) ([]plugin.Plugin, error) {
	resolved, err := plugindefs.Resolve(cfg.Plugins)
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

// buildExcludes compiles qlty.toml's [[exclude]] blocks into matchers.
func buildExcludes(cfg *qltyconfig.Config) []workspace.ExcludeMatcher {
	excludes := make([]workspace.ExcludeMatcher, 0, len(cfg.Excludes))

	for _, ex := range cfg.Excludes {
		excludes = append(excludes, workspace.ExcludeMatcher{
			Plugin:       ex.Plugin,
			FilePatterns: ex.FilePatterns,
		})
	}

	return excludes
}

// discoverEntries resolves the workspace.Source implied by the positional
// arguments a command was invoked with: the whole tree when args is empty,
// or an explicit file/glob list otherwise.
func discoverEntries(root string, args []string) ([]workspace.Entry, error) {
	return discoverEntriesDiff(root, args, "")
}

// discoverEntriesDiff is discoverEntries plus support for --diff
// "from..to": when set, it takes precedence over args and scopes the
// workspace to files changed between the two git revisions.
func discoverEntriesDiff(root string, args []string, diffRange string) ([]workspace.Entry, error) {
	var source workspace.Source

	switch {
	case diffRange != "":
		from, to, err := parseDiffRange(diffRange)
		if err != nil {
			return nil, err
		}

		source = workspace.DiffSource{RepoPath: root, FromRef: from, ToRef: to}
	case len(args) == 0:
		source = workspace.AllSource{Root: root}
	default:
		source = workspace.ArgsSource{Root: root, Paths: args}
	}

	entries, err := source.Entries()
	if err != nil {
		return nil, qltyerr.Wrap(qltyerr.KindIO, err)
	}

	for i := range entries {
		entries[i] = workspace.DetectLanguage(entries[i])
	}

	return entries, nil
}

// parseDiffRange splits a "--diff from..to" value on its "..", defaulting
// to a "to" of "HEAD" when only one ref is given.
func parseDiffRange(diffRange string) (from, to string, err error) {
	parts := strings.SplitN(diffRange, "..", 2)

	if parts[0] == "" {
		return "", "", qltyerr.Wrap(qltyerr.KindInvalidOptions, fmt.Errorf("--diff requires a non-empty base ref"))
	}

	if len(parts) == 1 {
		return parts[0], "HEAD", nil
	}

	to = parts[1]
	if to == "" {
		to = "HEAD"
	}

	return parts[0], to, nil
}
