package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
)

func newPluginsCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List and manage qlty.toml's enabled plugins",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")

	cmd.AddCommand(
		newPluginsListCommand(&configPath),
		newPluginsEnableCommand(&configPath),
		newPluginsDisableCommand(&configPath),
		newPluginsUpgradeCommand(&configPath),
	)

	return cmd
}

func newPluginsListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plugins enabled in qlty.toml, resolved against their builtin definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qltyconfig.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			resolved, err := resolvePlugins(cfg)
			if err != nil {
				return err
			}

			for _, p := range resolved {
				fmt.Fprintf(os.Stdout, "%s (%d driver(s), languages: %v)\n", p.Name, len(p.Drivers), p.Languages)
			}

			return nil
		},
	}
}

func newPluginsEnableCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <plugin>",
		Short: "Enable a builtin plugin by appending a [[plugin]] block to qlty.toml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return appendPluginBlock(args[0])
		},
	}
}

func newPluginsDisableCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <plugin>",
		Short: "Disable a plugin (edit qlty.toml's [[plugin]] blocks directly)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return qltyerr.Fatalf(qltyerr.KindInvalidOptions,
				"remove the [[plugin]] block for %q from qlty.toml directly", args[0])
		},
	}
}

func newPluginsUpgradeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <plugin>",
		Short: "Print the builtin default version for a plugin (edit qlty.toml's version field to pin it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qltyconfig.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			resolved, err := resolvePlugins(cfg)
			if err != nil {
				return err
			}

			for _, p := range resolved {
				if p.Name != args[0] {
					continue
				}

				version := p.Install.Version
				if version == "" {
					version = "latest"
				}

				fmt.Fprintf(os.Stdout, "%s@%s\n", p.Name, version)

				return nil
			}

			return qltyerr.Fatalf(qltyerr.KindInvalidOptions, "plugin %q is not enabled", args[0])
		},
	}
}

func appendPluginBlock(name string) error {
	root, err := repoRoot("")
	if err != nil {
		return err
	}

	path := root + "/qlty.toml"

	block := fmt.Sprintf("\n[[plugin]]\nname = %q\n", name)

	f, openErr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openErr != nil {
		return qltyerr.Wrap(qltyerr.KindIO, openErr)
	}
	defer f.Close()

	if _, writeErr := f.WriteString(block); writeErr != nil {
		return qltyerr.Wrap(qltyerr.KindIO, writeErr)
	}

	fmt.Fprintf(os.Stdout, "enabled %s in %s\n", name, path)

	return nil
}
