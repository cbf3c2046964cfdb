// Package plugindefs holds qlty's built-in plugin definitions: the set of
// linters and formatters qlty knows how to install and invoke without a
// qlty.toml author having to spell out a driver's command line, output
// format, or batching strategy themselves. A [[plugin]] block in qlty.toml
// enables one of these by name; Resolve merges the two.
package plugindefs

import (
	"fmt"
	"sort"

	"github.com/qlty-go/qlty/internal/plugin"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
)

// Builtins is the registry of plugin definitions qlty ships with, and the
// only set Resolve consults: a qlty.toml [[source]] entry adds no
// definitions to it.
var Builtins = map[string]plugin.Plugin{
	"gofmt": {
		Name:      "gofmt",
		Languages: []string{"Go"},
		Drivers: map[string]plugin.Driver{
			"fmt": {
				Name:         "fmt",
				Mode:         plugin.DriverFormat,
				CommandLine:  []string{"gofmt", "-l", "${target}"},
				Batch:        plugin.BatchPerBatch,
				OutputFormat: plugin.FormatRegex,
				SuccessCodes: []int{0},
			},
		},
		Install: plugin.InstallRecipe{PackageManager: "go", Package: "cmd/gofmt"},
	},
	"eslint": {
		Name:      "eslint",
		Languages: []string{"JavaScript", "TypeScript", "JSX", "TSX"},
		Drivers: map[string]plugin.Driver{
			"lint": {
				Name:         "lint",
				Mode:         plugin.DriverBlock,
				CommandLine:  []string{"eslint", "--format", "json", "${target}"},
				Batch:        plugin.BatchPerBatch,
				OutputFormat: plugin.FormatJSON,
				SuccessCodes: []int{0, 1},
				ConfigFiles:  []plugin.ConfigFile{{Name: ".eslintrc.json", Source: plugin.ConfigFileFromRepo}},
			},
		},
		Install: plugin.InstallRecipe{PackageManager: "npm", Package: "eslint"},
	},
	"mypy": {
		Name:      "mypy",
		Languages: []string{"Python"},
		Drivers: map[string]plugin.Driver{
			"check": {
				Name:         "check",
				Mode:         plugin.DriverBlock,
				CommandLine:  []string{"mypy", "--output", "json", "--no-error-summary", "${target}"},
				Batch:        plugin.BatchOnlyWorkspace,
				OutputFormat: plugin.FormatMypy,
				SuccessCodes: []int{0, 1},
				ConfigFiles:  []plugin.ConfigFile{{Name: "mypy.ini", Source: plugin.ConfigFileFromRepo}},
			},
		},
		Install: plugin.InstallRecipe{PackageManager: "pip", Package: "mypy"},
	},
	"shellcheck": {
		Name:      "shellcheck",
		Languages: []string{"Shell"},
		Drivers: map[string]plugin.Driver{
			"lint": {
				Name:         "lint",
				Mode:         plugin.DriverBlock,
				CommandLine:  []string{"shellcheck", "-f", "json", "${target}"},
				Batch:        plugin.BatchPerFile,
				OutputFormat: plugin.FormatShellcheck,
				SuccessCodes: []int{0, 1},
			},
		},
		Install: plugin.InstallRecipe{Downloads: []plugin.Download{{}}},
	},
	"prettier": {
		Name:      "prettier",
		Languages: []string{"JavaScript", "TypeScript", "CSS", "JSON", "Markdown", "YAML"},
		Drivers: map[string]plugin.Driver{
			"fmt": {
				Name:         "fmt",
				Mode:         plugin.DriverFormat,
				CommandLine:  []string{"prettier", "--list-different", "${target}"},
				Batch:        plugin.BatchPerBatch,
				OutputFormat: plugin.FormatRegex,
				SuccessCodes: []int{0, 1},
			},
		},
		Install: plugin.InstallRecipe{PackageManager: "npm", Package: "prettier"},
	},
	"ruff": {
		Name:      "ruff",
		Languages: []string{"Python"},
		Drivers: map[string]plugin.Driver{
			"lint": {
				Name:         "lint",
				Mode:         plugin.DriverBlock,
				CommandLine:  []string{"ruff", "check", "--output-format", "json", "${target}"},
				Batch:        plugin.BatchPerBatch,
				OutputFormat: plugin.FormatJSON,
				SuccessCodes: []int{0, 1},
			},
		},
		Install: plugin.InstallRecipe{PackageManager: "pip", Package: "ruff"},
	},
}

// Resolve merges each enabled qltyconfig.Plugin against its Builtins
// definition, applying qlty.toml's driver selection, version pin, and config
// file override; the [[plugin]] prefix is not applied. An enabled plugin with
// no matching builtin is an error: qlty does not invent a driver from nothing.
func Resolve(enabled []qltyconfig.Plugin) ([]plugin.Plugin, error) {
	resolved := make([]plugin.Plugin, 0, len(enabled))

	for _, cfgPlugin := range enabled {
		base, ok := Builtins[cfgPlugin.Name]
		if !ok {
			return nil, qltyerr.Wrap(qltyerr.KindConfig, fmt.Errorf("unknown plugin %q: no builtin definition", cfgPlugin.Name))
		}

		resolved = append(resolved, applyOverrides(base, cfgPlugin))
	}

	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Name < resolved[j].Name })

	return resolved, nil
}

func applyOverrides(base plugin.Plugin, cfg qltyconfig.Plugin) plugin.Plugin {
	resolved := base

	if len(cfg.Drivers) > 0 {
		filtered := make(map[string]plugin.Driver, len(cfg.Drivers))

		for _, name := range cfg.Drivers {
			if d, ok := base.Drivers[name]; ok {
				filtered[name] = d
			}
		}

		resolved.Drivers = filtered
	}

	if cfg.ConfigFile != "" {
		drivers := make(map[string]plugin.Driver, len(resolved.Drivers))

		for name, d := range resolved.Drivers {
			d.ConfigFiles = []plugin.ConfigFile{{Name: cfg.ConfigFile, Source: plugin.ConfigFileFromRepo}}
			drivers[name] = d
		}

		resolved.Drivers = drivers
	}

	if cfg.Version != "" {
		resolved.Install.Version = cfg.Version
	}

	return resolved
}
