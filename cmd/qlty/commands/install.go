package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/registry"
)

func newInstallCommand() *cobra.Command {
	var (
		root       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install every plugin enabled in qlty.toml into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(root, configPath)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "repository root (default: working directory)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")

	return cmd
}

func runInstall(rootFlag, configPath string) error {
	root, err := repoRoot(rootFlag)
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

	cacheRoot := defaultCacheDir(cfg, root)

	for _, p := range plugins {
		version := p.Install.Version
		if version == "" {
			version = "latest"
		}

		tool := registry.NewTool(p, version, cacheRoot)
		if tool.IsInstalled() {
			fmt.Fprintf(os.Stdout, "%s@%s already installed\n", p.Name, version)
			continue
		}

		fmt.Fprintf(os.Stdout, "installing %s@%s...\n", p.Name, version)

		if installErr := tool.EnsureInstalled(); installErr != nil {
			return installErr
		}

		fmt.Fprintf(os.Stdout, "installed %s@%s at %s\n", p.Name, version, tool.Dir())
	}

	return nil
}
