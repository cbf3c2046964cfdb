// Package registry materializes plugin installations into a content-addressed
// cache directory, coordinating concurrent installs of the same tool across
// worker goroutines (and across separate qlty processes) with an advisory
// file lock, and recording a "donefile" once installation succeeds so
// subsequent runs skip straight to invocation.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/qlty-go/qlty/internal/plugin"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/pkg/alg/lru"
)

// doneFileName marks a tool directory as fully and successfully installed.
const doneFileName = ".qlty-done"

// lockTimeout bounds how long a worker waits for another process's install
// of the same tool to finish before giving up.
const lockTimeout = 10 * time.Minute

// lockPollInterval is how often flock.TryLockContext polls for the lock.
const lockPollInterval = 200 * time.Millisecond

// installedEntries bounds installStateCache: a run with more distinct
// (plugin, fingerprint) pairs than this simply pays for the extra os.Stat
// calls instead of growing the cache unbounded.
const installedEntries = 512

// installStateCache memoizes IsInstalled's donefile stat by cache
// directory for the life of the process, so a PerFile batch strategy
// invoking the same tool hundreds of times doesn't re-stat its donefile
// on every target once the result is known.
var installStateCache = lru.New[string, bool](lru.WithMaxEntries[string, bool](installedEntries))

// Tool is a single installed (or installable) instance of a Plugin's
// recipe, pinned to one directory under the cache root.
type Tool struct {
	Plugin      plugin.Plugin
	Version     string
	CacheRoot   string
	Fingerprint string
}

// NewTool builds a Tool and computes its content-addressed Fingerprint from
// the plugin name, version, and install recipe, so that two qlty.toml files
// requesting the same plugin+version always resolve to the same cache
// directory, and changing the install recipe (e.g. a new source repository
// tag) invalidates the old cache entry automatically.
func NewTool(p plugin.Plugin, version, cacheRoot string) Tool {
	return Tool{
		Plugin:      p,
		Version:     version,
		CacheRoot:   cacheRoot,
		Fingerprint: fingerprint(p, version),
	}
}

func fingerprint(p plugin.Plugin, version string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s",
		p.Name, version, p.Install.ShellScript, p.Install.PackageManager, p.Install.Package)

	for _, d := range p.Install.Downloads {
		fmt.Fprintf(h, "\x00%s\x00%s", d.URL, d.SHA256)
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Dir returns the tool's cache directory: CacheRoot/<plugin-name>/<fingerprint>.
func (t Tool) Dir() string {
	return filepath.Join(t.CacheRoot, t.Plugin.Name, t.Fingerprint)
}

func (t Tool) doneFilePath() string {
	return filepath.Join(t.Dir(), doneFileName)
}

func (t Tool) lockFilePath() string {
	return t.Dir() + ".lock"
}

// IsInstalled reports whether the tool's donefile is present. A true result
// is cached in-process, since a donefile is never removed except by
// `qlty cache prune` or `qlty cache trim`, which run as separate
// invocations; a false result
// is never cached, so installation by this or another process is always
// observed on the next check.
func (t Tool) IsInstalled() bool {
	dir := t.Dir()

	if cached, ok := installStateCache.Get(dir); ok && cached {
		return true
	}

	installed := false
	if _, err := os.Stat(t.doneFilePath()); err == nil {
		installed = true
	}

	if installed {
		installStateCache.Put(dir, true)
	}

	return installed
}

// EnsureInstalled installs the tool if it is not already present, guarding
// the install with an advisory file lock so concurrent workers (in this
// process or another) racing to install the same fingerprint serialize
// rather than corrupt each other's output; the loser of the race simply
// observes the donefile once the winner releases the lock.
func (t Tool) EnsureInstalled() error {
	if t.IsInstalled() {
		return nil
	}

	mkdirErr := os.MkdirAll(t.Dir(), 0o755)
	if mkdirErr != nil {
		return qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("create tool dir: %w", mkdirErr))
	}

	lock := flock.New(t.lockFilePath())

	ctx, cancel := lockContext()
	defer cancel()

	locked, lockErr := lock.TryLockContext(ctx, lockPollInterval)
	if lockErr != nil {
		return qltyerr.Wrap(qltyerr.KindInstallation, fmt.Errorf("acquire install lock for %s: %w", t.Plugin.Name, lockErr))
	}

	if !locked {
		return qltyerr.Fatalf(qltyerr.KindInstallation, "timed out waiting for install lock on %s", t.Plugin.Name)
	}

	defer lock.Unlock()

	if t.IsInstalled() {
		return nil // another process won the race while we waited for the lock
	}

	installErr := t.install()
	if installErr != nil {
		return qltyerr.Wrap(qltyerr.KindInstallation, installErr)
	}

	writeErr := t.writeInstallationRecord()
	if writeErr != nil {
		return qltyerr.Wrap(qltyerr.KindIO, writeErr)
	}

	doneErr := os.WriteFile(t.doneFilePath(), []byte(time.Now().UTC().Format(time.RFC3339)), 0o644)
	if doneErr != nil {
		return qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("write donefile: %w", doneErr))
	}

	return nil
}

func (t Tool) install() error {
	recipe := t.Plugin.Install

	if recipe.ShellScript == "" {
		return nil // no install script: tool is assumed already on PATH
	}

	cmd := exec.Command("sh", "-c", recipe.ShellScript)
	cmd.Dir = t.Dir()
	cmd.Env = append(os.Environ(), "QLTY_TOOL_DIR="+t.Dir())

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("install script for %s failed: %w\n%s", t.Plugin.Name, err, out)
	}

	return nil
}

// Installation is a debug artifact capturing what was installed, when, and
// how, written alongside each successful install so operators can inspect
// `<cache root>/<plugin>/<fingerprint>/installation-*.yaml` (by default
// under `~/.cache/qlty`) after the fact.
type Installation struct {
	PluginName  string    `yaml:"plugin_name"`
	Version     string    `yaml:"version"`
	Fingerprint string    `yaml:"fingerprint"`
	Directory   string    `yaml:"directory"`
	InstalledAt time.Time `yaml:"installed_at"`
}

func (t Tool) writeInstallationRecord() error {
	record := Installation{
		PluginName:  t.Plugin.Name,
		Version:     t.Version,
		Fingerprint: t.Fingerprint,
		Directory:   t.Dir(),
		InstalledAt: time.Now().UTC(),
	}

	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal installation record: %w", err)
	}

	id, err := randomID(6)
	if err != nil {
		return fmt.Errorf("generate installation id: %w", err)
	}

	path := filepath.Join(t.Dir(), fmt.Sprintf("installation-%s.yaml", id))

	writeErr := os.WriteFile(path, data, 0o644)
	if writeErr != nil {
		return fmt.Errorf("write installation record: %w", writeErr)
	}

	return nil
}
