// Package plugin describes a tool plugin: its metadata, the drivers it
// exposes (one per check it can run), and the installation recipe used to
// materialize a runnable tool in the cache.
package plugin

import "log"

// Plugin is a single tool's definition. The definitions qlty runs come
// from internal/plugindefs.Builtins.
type Plugin struct {
	Name        string
	Description string
	Languages   []string
	Drivers     map[string]Driver

	// Install describes how to materialize the tool. At most one
	// non-zero field is expected to be set; qlty.toml authors never set
	// this directly, it is read from the plugin source.
	Install InstallRecipe
}

// Driver is a single invocable check or formatter a Plugin exposes. A
// plugin with multiple drivers (e.g. eslint's "lint" and "lint-fix")
// represents each as a separate Driver sharing the parent Plugin's install
// recipe.
type Driver struct {
	Name          string
	Mode          DriverKind
	CommandLine   []string // argv template; "${target}" is substituted per invocation
	Batch         BatchStrategy
	OutputFormat  OutputFormat
	SuccessCodes  []int // process exit codes that do not indicate a driver crash
	ConfigFiles   []ConfigFile
	PrepareScript string // optional shell snippet; the executor does not run it
}

// DriverKind describes how a driver is invoked: it determines how its
// output is interpreted (a lint finding vs. a source rewrite to diff
// against). This is distinct from issue.Mode, which classifies how a
// reported issue itself should be treated (blocked, commented, etc.).
type DriverKind int

const (
	// DriverBlock runs a driver that reports issues without modifying files.
	DriverBlock DriverKind = iota
	// DriverFormat runs a driver that rewrites files in place; qlty diffs
	// the result to produce fmt-category issues.
	DriverFormat
)

// String returns the name of the driver kind.
func (k DriverKind) String() string {
	switch k {
	case DriverBlock:
		return "block"
	case DriverFormat:
		return "format"
	}

	log.Panicf("invalid DriverKind value %d", k)

	return ""
}

// BatchStrategy controls how workspace entries are grouped into
// invocations of a single Driver.
type BatchStrategy int

const (
	// BatchPerFile invokes the driver once per workspace entry.
	BatchPerFile BatchStrategy = iota
	// BatchPerBatch invokes the driver on groups of up to N entries.
	BatchPerBatch
	// BatchOnlyWorkspace invokes the driver exactly once for the whole
	// workspace (e.g. a project-wide type checker).
	BatchOnlyWorkspace
	// BatchPerDirectory invokes the driver once per directory containing
	// matched entries.
	BatchPerDirectory
)

// OutputFormat names the parser used to interpret a Driver's stdout/stderr.
type OutputFormat string

// Supported output formats. Each has a matching parser in internal/parser.
const (
	FormatMypy        OutputFormat = "mypy"
	FormatShellcheck  OutputFormat = "shellcheck"
	FormatSARIF       OutputFormat = "sarif"
	FormatJSON        OutputFormat = "json"
	FormatJSONLines   OutputFormat = "jsonlines"
	FormatRegex       OutputFormat = "regex"
)

// ConfigFile describes a configuration file a Driver expects to find
// relative to its invocation's working directory, sourced either from the
// user's repository or staged from the plugin definition itself.
type ConfigFile struct {
	Name   string
	Source ConfigFileSource
}

// ConfigFileSource distinguishes where a staged ConfigFile's bytes come from.
type ConfigFileSource int

const (
	// ConfigFileFromRepo copies (or symlinks) a file already present in
	// the user's repository into the invocation's staging directory.
	ConfigFileFromRepo ConfigFileSource = iota
	// ConfigFileDownload fetches the file from a URL, caching it in
	// memory across invocations within a single run.
	ConfigFileDownload
)

// InstallRecipe is the union of supported installation strategies for a
// Plugin. Exactly one non-empty strategy is expected. Installation
// (internal/registry's Tool.install) runs only ShellScript; Downloads and
// PackageManager feed the tool's cache fingerprint, but nothing fetches or
// installs them, and a recipe without a ShellScript installs nothing.
type InstallRecipe struct {
	// ShellScript, when non-empty, is run with `sh -c` in the tool's cache
	// directory to materialize it (e.g. "pip install mypy==1.8.0").
	ShellScript string
	// Downloads lists one or more archives/binaries to fetch and extract;
	// installation does not act on it.
	Downloads []Download
	// PackageManager names a known manager (npm, pip, gem, go) to install
	// Package and Version with; installation does not act on it.
	PackageManager string
	Package        string
	Version        string
}

// Download is a single file to fetch during installation.
type Download struct {
	URL      string
	SHA256   string
	StripTop int // path components to strip when extracting an archive
}
