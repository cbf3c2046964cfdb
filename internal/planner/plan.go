// Package planner turns a workspace's entries and the active qlty.toml
// plugins into a concrete Plan: one Invocation per (driver, batch) pairing,
// ready for internal/executor to run. Config-file staging happens in the
// executor, and the transformer chain is built separately by
// transform.Build.
package planner

import (
	"path/filepath"
	"sort"

	"github.com/qlty-go/qlty/internal/plugin"
	"github.com/qlty-go/qlty/internal/workspace"
)

// Invocation is a single planned execution of a Driver against one or more
// workspace entries.
type Invocation struct {
	Plugin  plugin.Plugin
	Driver  plugin.Driver
	Targets []workspace.Entry
	WorkDir string // relative to the repository root; "" means the root itself
}

// Plan is the full set of invocations a run should execute, plus the
// exclude matchers it was built with.
type Plan struct {
	Invocations []Invocation
	Excludes    []workspace.ExcludeMatcher
}

// Build selects active plugins' drivers, filters entries per plugin with
// the plugin's own exclude matchers in addition to the global ones, and
// batches the survivors according to each driver's BatchStrategy.
func Build(entries []workspace.Entry, plugins []plugin.Plugin, excludes []workspace.ExcludeMatcher) Plan {
	plan := Plan{Excludes: excludes}

	for _, p := range plugins {
		driverNames := sortedDriverNames(p.Drivers)

		for _, name := range driverNames {
			driver := p.Drivers[name]

			targets := selectTargets(entries, p, excludes)
			if len(targets) == 0 {
				continue
			}

			plan.Invocations = append(plan.Invocations, batchInvocations(p, driver, targets)...)
		}
	}

	return plan
}

func selectTargets(entries []workspace.Entry, p plugin.Plugin, excludes []workspace.ExcludeMatcher) []workspace.Entry {
	langs := workspace.NewLanguageMatcher(p.Languages...)

	out := make([]workspace.Entry, 0, len(entries))

	for _, e := range entries {
		if len(p.Languages) > 0 && !langs.Match(workspace.DetectLanguage(e)) {
			continue
		}

		if workspace.ExcludedForPlugin(excludes, p.Name, e.Path) {
			continue
		}

		out = append(out, e)
	}

	return out
}

func batchInvocations(p plugin.Plugin, driver plugin.Driver, targets []workspace.Entry) []Invocation {
	switch driver.Batch {
	case plugin.BatchPerFile:
		invocations := make([]Invocation, 0, len(targets))
		for _, t := range targets {
			invocations = append(invocations, Invocation{Plugin: p, Driver: driver, Targets: []workspace.Entry{t}})
		}

		return invocations

	case plugin.BatchOnlyWorkspace:
		return []Invocation{{Plugin: p, Driver: driver, Targets: targets}}

	case plugin.BatchPerDirectory:
		return perDirectoryInvocations(p, driver, targets)

	case plugin.BatchPerBatch:
		return perBatchInvocations(p, driver, targets, driverBatchSize(driver))

	default:
		return []Invocation{{Plugin: p, Driver: driver, Targets: targets}}
	}
}

// driverBatchSize returns the max batch size for a BatchPerBatch driver.
// Drivers that don't set one default to a conservative 25 files per
// invocation, balancing process-spawn overhead against a single invocation
// timing out on too large a batch.
func driverBatchSize(driver plugin.Driver) int {
	const defaultBatchSize = 25

	for _, code := range driver.SuccessCodes {
		if code < 0 { // a negative sentinel success code overrides the default batch size
			return -code
		}
	}

	return defaultBatchSize
}

func perBatchInvocations(p plugin.Plugin, driver plugin.Driver, targets []workspace.Entry, size int) []Invocation {
	var invocations []Invocation

	for i := 0; i < len(targets); i += size {
		end := i + size
		if end > len(targets) {
			end = len(targets)
		}

		invocations = append(invocations, Invocation{Plugin: p, Driver: driver, Targets: targets[i:end]})
	}

	return invocations
}

func perDirectoryInvocations(p plugin.Plugin, driver plugin.Driver, targets []workspace.Entry) []Invocation {
	byDir := make(map[string][]workspace.Entry)

	for _, t := range targets {
		dir := filepath.Dir(t.Path)
		byDir[dir] = append(byDir[dir], t)
	}

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}

	sort.Strings(dirs)

	invocations := make([]Invocation, 0, len(dirs))
	for _, d := range dirs {
		invocations = append(invocations, Invocation{Plugin: p, Driver: driver, Targets: byDir[d], WorkDir: d})
	}

	return invocations
}

func sortedDriverNames(drivers map[string]plugin.Driver) []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ModeFor reports the plugin.DriverKind an Invocation's driver runs in, a
// thin accessor kept here so executor doesn't need to reach into plugin
// types.
func ModeFor(inv Invocation) plugin.DriverKind {
	return inv.Driver.Mode
}
