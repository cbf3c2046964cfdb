package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/pkg/pipeline"
)

// runtimeOptions describes qlty.toml's [runtime] block the same way the
// config-migration tooling describes a single analyzer's flags: one
// ConfigurationOption per setting, with its qlty.toml default and flag
// name, as listed by `config options`. check declares its own flags
// separately; of these four, only --jobs is a check flag.
func runtimeOptions() []pipeline.ConfigurationOption {
	return []pipeline.ConfigurationOption{
		{
			Name:        "runtime.jobs",
			Description: "number of concurrent tool invocations",
			Flag:        "jobs",
			Type:        pipeline.IntConfigurationOption,
			Default:     qltyconfig.DefaultRuntimeJobs,
		},
		{
			Name:        "runtime.timeout",
			Description: "per-invocation timeout",
			Flag:        "timeout",
			Type:        pipeline.StringConfigurationOption,
			Default:     qltyconfig.DefaultRuntimeTimeout,
		},
		{
			Name:        "runtime.cache_dir",
			Description: "tool install cache directory, relative to the repository root unless absolute",
			Flag:        "cache-dir",
			Type:        pipeline.PathConfigurationOption,
			Default:     "",
		},
		{
			Name:        "runtime.download_cache_max",
			Description: "size cap enforced by `cache trim`",
			Flag:        "download-cache-max",
			Type:        pipeline.StringConfigurationOption,
			Default:     qltyconfig.DefaultDownloadCacheMax,
		},
	}
}

func newConfigCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect qlty.toml",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the fully resolved configuration, after defaults and env overlay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qltyconfig.LoadConfig(configPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "plugins: %d enabled\n", len(cfg.Plugins))
			for _, p := range cfg.Plugins {
				version := p.Version
				if version == "" {
					version = "latest"
				}

				fmt.Fprintf(os.Stdout, "  - %s@%s\n", p.Name, version)
			}

			fmt.Fprintf(os.Stdout, "sources: %d\n", len(cfg.Sources))
			fmt.Fprintf(os.Stdout, "ignores: %d, excludes: %d, triage rules: %d\n", len(cfg.Ignores), len(cfg.Excludes), len(cfg.Triage))
			fmt.Fprintf(os.Stdout, "runtime: jobs=%d timeout=%s cache_dir=%q download_cache_max=%s\n",
				cfg.Runtime.Jobs, cfg.Runtime.Timeout, cfg.Runtime.CacheDir, cfg.Runtime.DownloadCacheMax)

			return nil
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Report whether qlty.toml uses the deprecated [[override]] block",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qltyconfig.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if cfg.MigrateOverrides() {
				fmt.Fprintln(os.Stdout, "qlty.toml uses [[override]]; rewrite these as [[triage]] blocks with the same file_patterns and level")
				return nil
			}

			fmt.Fprintln(os.Stdout, "no deprecated configuration found")

			return nil
		},
	}

	optionsCmd := &cobra.Command{
		Use:   "options",
		Short: "List the [runtime] settings qlty.toml accepts, with type and default",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, opt := range runtimeOptions() {
				typeLabel := opt.Type.String()
				if typeLabel == "" {
					typeLabel = "bool"
				}

				fmt.Fprintf(os.Stdout, "--%s <%s>  (%s, default %s)\n    %s\n", opt.Flag, typeLabel, opt.Name, opt.FormatDefault(), opt.Description)
			}

			return nil
		},
	}

	cmd.AddCommand(showCmd, migrateCmd, optionsCmd)

	return cmd
}

const defaultQltyToml = `# qlty.toml
[[source]]
name = "default"
repository = "https://github.com/qlty-go/qlty-plugins"
tag = "main"
default = true

[runtime]
jobs = 0
timeout = "5m"
`

func newInitCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter qlty.toml in the repository root",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repoRoot(root)
			if err != nil {
				return err
			}

			path := repo + "/qlty.toml"

			if _, statErr := os.Stat(path); statErr == nil {
				return qltyerr.Fatalf(qltyerr.KindInvalidOptions, "%s already exists", path)
			}

			if writeErr := os.WriteFile(path, []byte(defaultQltyToml), 0o644); writeErr != nil {
				return qltyerr.Wrap(qltyerr.KindIO, writeErr)
			}

			fmt.Fprintf(os.Stdout, "wrote %s\n", path)

			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "repository root (default: working directory)")

	return cmd
}

func newDeinitCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "deinit",
		Short: "Remove qlty.toml and the local cache directory from the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repoRoot(root)
			if err != nil {
				return err
			}

			path := repo + "/qlty.toml"

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return qltyerr.Wrap(qltyerr.KindIO, removeErr)
			}

			fmt.Fprintf(os.Stdout, "removed %s\n", path)

			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "repository root (default: working directory)")

	return cmd
}
