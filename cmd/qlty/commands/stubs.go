package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/parser"
	"github.com/qlty-go/qlty/internal/planner"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
)

// newBuildCommand reruns check's planning phase without executing any
// invocation, printing the invocation plan a `qlty check` would run. Useful
// for debugging qlty.toml changes without spending tool-process time.
func newBuildCommand() *cobra.Command {
	var (
		root       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "Print the invocation plan a check would run, without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repoRoot(root)
			if err != nil {
				return err
			}

			cfg, err := qltyconfig.LoadConfig(configPath)
			if err != nil {
				return err
			}

			plugins, err := resolvePlugins(cfg)
			if err != nil {
				return err
			}

			entries, err := discoverEntries(repo, args)
			if err != nil {
				return err
			}

			excludes := buildExcludes(cfg)
			plan := planner.Build(entries, plugins, excludes)

			for _, inv := range plan.Invocations {
				fmt.Fprintf(os.Stdout, "%s/%s: %d target(s)\n", inv.Plugin.Name, inv.Driver.Name, len(inv.Targets))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "repository root (default: working directory)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")

	return cmd
}

// newParseCommand parses a single tool output file with a named
// internal/parser.Parser and prints the resulting issues, for debugging a
// plugin's output_format without running the tool through the full plan.
func newParseCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <output-file>",
		Short: "Parse a raw tool output file with a named parser and print the resulting issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "jsonlines", "output format to parse with: mypy, shellcheck, sarif, jsonlines, json, regex")

	return cmd
}

func runParse(path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return qltyerr.Wrap(qltyerr.KindIO, err)
	}

	registry := parser.NewRegistry()

	p, ok := registry.For(format)
	if !ok {
		return qltyerr.Fatalf(qltyerr.KindInvalidOptions, "unknown parser format %q", format)
	}

	issues, parseErr := p.Parse("qlty-parse", string(data))
	if parseErr != nil {
		return qltyerr.Wrap(qltyerr.KindParse, parseErr)
	}

	for _, iss := range issues {
		fmt.Fprintf(os.Stdout, "%s:%d: [%s] %s\n", iss.Path, iss.Range.StartLine, iss.RuleKey, iss.Message)
	}

	return nil
}

// newValidateCommand validates qlty.toml without running anything.
func newValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate qlty.toml without running any plugin",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := qltyconfig.LoadConfig(configPath)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, "qlty.toml is valid")

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")

	return cmd
}

// newAuthCommand manages the cloud API token used by `qlty coverage publish`
// and AI-fix requests. Token storage is delegated to $QLTY_COVERAGE_TOKEN /
// $QLTY_TOKEN; qlty has no local credential store, so login/logout are
// documented no-ops pointing at the environment variable.
func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage qlty cloud API credentials",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Print instructions for setting the cloud API token",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(os.Stdout, "set QLTY_TOKEN (or QLTY_COVERAGE_TOKEN) in your environment; qlty has no local credential store")
				return nil
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Print instructions for clearing the cloud API token",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(os.Stdout, "unset QLTY_TOKEN (or QLTY_COVERAGE_TOKEN) in your environment")
				return nil
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Report whether a cloud API token is set in the environment",
			RunE: func(cmd *cobra.Command, args []string) error {
				token := firstNonEmptyEnv("QLTY_TOKEN", "QLTY_COVERAGE_TOKEN")
				if token == "" {
					return qltyerr.Fatalf(qltyerr.KindInvalidOptions, "no token set; see `qlty auth login`")
				}

				fmt.Fprintln(os.Stdout, "a token is set")

				return nil
			},
		},
	)

	return cmd
}

func firstNonEmptyEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}

	return ""
}

// newSourcesCommand manages qlty.toml's [[source]] plugin-definition
// repositories. Fetching and caching remote plugin.toml manifests is out of
// scope: internal/plugindefs resolves only the builtin definitions, so
// `sources fetch` reports the configured sources without fetching them.
func newSourcesCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage qlty.toml's plugin-definition source repositories",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")

	cmd.AddCommand(&cobra.Command{
		Use:   "fetch",
		Short: "List configured plugin sources (remote manifest fetching is not implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qltyconfig.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if len(cfg.Sources) == 0 {
				fmt.Fprintln(os.Stdout, "no [[source]] blocks configured; only builtin plugin definitions are available")
				return nil
			}

			for _, src := range cfg.Sources {
				fmt.Fprintf(os.Stdout, "%s: %s@%s (default=%v)\n", src.Name, src.Repository, src.Ref, src.Default)
			}

			fmt.Fprintln(os.Stdout, "note: fetching remote plugin manifests is not implemented; only builtin plugins resolve")

			return nil
		},
	})

	return cmd
}

// newGithooksCommand installs/uninstalls a pre-commit hook that runs
// `qlty check --diff HEAD`.
func newGithooksCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "githooks",
		Short: "Manage a git pre-commit hook that runs qlty check",
	}

	cmd.PersistentFlags().StringVar(&root, "root", "", "repository root (default: working directory)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install a pre-commit hook that runs qlty check --diff HEAD",
			RunE: func(cmd *cobra.Command, args []string) error {
				return installGithook(root)
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove qlty's pre-commit hook",
			RunE: func(cmd *cobra.Command, args []string) error {
				return uninstallGithook(root)
			},
		},
	)

	return cmd
}

const preCommitHookBody = "#!/bin/sh\nexec qlty check --diff HEAD\n"

func installGithook(rootFlag string) error {
	root, err := repoRoot(rootFlag)
	if err != nil {
		return err
	}

	path := root + "/.git/hooks/pre-commit"

	if writeErr := os.WriteFile(path, []byte(preCommitHookBody), 0o755); writeErr != nil {
		return qltyerr.Wrap(qltyerr.KindIO, writeErr)
	}

	fmt.Fprintf(os.Stdout, "installed %s\n", path)

	return nil
}

func uninstallGithook(rootFlag string) error {
	root, err := repoRoot(rootFlag)
	if err != nil {
		return err
	}

	path := root + "/.git/hooks/pre-commit"

	if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
		return qltyerr.Wrap(qltyerr.KindIO, removeErr)
	}

	fmt.Fprintf(os.Stdout, "removed %s\n", path)

	return nil
}

// newCompletionsCommand generates shell completion scripts via cobra's
// built-in support.
func newCompletionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "completions [bash|zsh|fish|powershell]",
		Short:     "Generate a shell completion script",
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()

			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}

			return qltyerr.ErrNotImplemented
		},
	}
}

// newUpgradeCommand checks for a newer qlty release. qlty has no self-update
// mechanism wired to a release feed; this prints where to get one.
func newUpgradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Print instructions for upgrading qlty",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stdout, "download the latest release from https://github.com/qlty-go/qlty/releases")
			return nil
		},
	}
}

// newDiscordCommand prints the community Discord invite.
func newDiscordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discord",
		Short: "Print the qlty community Discord invite",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(os.Stdout, "https://qlty.sh/discord")
			return nil
		},
	}
}

// newPatchCommand applies AI-generated fix suggestions is out of scope
// (transform.Fixer has no wired Client in this build); documented stub.
func newPatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patch",
		Short: "Apply AI-generated fix suggestions to matching issues (not implemented in this build)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return qltyerr.ErrNotImplemented
		},
	}
}

// newTelemetryCommand reports the process's observability configuration.
// qlty has no opt-out flag beyond unsetting QLTY_OTLP_ENDPOINT, since
// pkg/observability.Init only enables OTLP export when that's set.
func newTelemetryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "telemetry",
		Short: "Report whether OTLP telemetry export is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := os.Getenv("QLTY_OTLP_ENDPOINT")
			if endpoint == "" {
				fmt.Fprintln(os.Stdout, "telemetry export is disabled (QLTY_OTLP_ENDPOINT is unset)")
				return nil
			}

			fmt.Fprintf(os.Stdout, "telemetry export targets %s\n", endpoint)

			return nil
		},
	}
}
