package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/processor"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/pkg/alg/lru"
	"github.com/qlty-go/qlty/pkg/units"
)

func newCacheCommand() *cobra.Command {
	var (
		root       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the local tool install cache",
	}

	cmd.PersistentFlags().StringVar(&root, "root", "", "repository root (default: working directory)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")

	cmd.AddCommand(
		newCacheStatusCommand(&root, &configPath),
		newCachePruneCommand(&root, &configPath),
		newCacheTrimCommand(&root, &configPath),
	)

	return cmd
}

func newCacheStatusCommand(root, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the cache directory location and its total size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheRoot, err := resolveCacheRoot(*root, *configPath)
			if err != nil {
				return err
			}

			size, err := dirSize(cacheRoot)
			if err != nil {
				return qltyerr.Wrap(qltyerr.KindIO, err)
			}

			fmt.Fprintf(os.Stdout, "cache directory: %s\n", cacheRoot)
			fmt.Fprintf(os.Stdout, "total size: %s\n", processor.FormatCacheSize(size))

			return nil
		},
	}
}

func newCachePruneCommand(root, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove the entire local tool install cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheRoot, err := resolveCacheRoot(*root, *configPath)
			if err != nil {
				return err
			}

			if removeErr := os.RemoveAll(cacheRoot); removeErr != nil {
				return qltyerr.Wrap(qltyerr.KindIO, removeErr)
			}

			fmt.Fprintf(os.Stdout, "removed %s\n", cacheRoot)

			return nil
		},
	}
}

func resolveCacheRoot(rootFlag, configPath string) (string, error) {
	root, err := repoRoot(rootFlag)
	if err != nil {
		return "", err
	}

	cfg, err := qltyconfig.LoadConfig(configPath)
	if err != nil {
		return "", err
	}

	return defaultCacheDir(cfg, root), nil
}

// minTrimCap is the smallest runtime.download_cache_max qlty will honor;
// below this, a misconfigured value (e.g. a stray "1" parsed as 1 byte)
// would evict every tool directory on the next run.
const minTrimCap = 8 * units.MiB

// newCacheTrimCommand evicts entire tool-install directories, oldest
// (by mtime) first, until the cache fits within runtime.download_cache_max
// -- unlike prune, which always removes everything, trim keeps recently
// installed tools around.
func newCacheTrimCommand(root, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "trim",
		Short: "Evict the oldest tool installs until the cache fits runtime.download_cache_max",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repoRoot(*root)
			if err != nil {
				return err
			}

			cfg, err := qltyconfig.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			cacheRoot := defaultCacheDir(cfg, r)

			capBytes, err := processor.ParseCacheSize(cfg.Runtime.DownloadCacheMax)
			if err != nil {
				return qltyerr.Wrap(qltyerr.KindConfig, fmt.Errorf("runtime.download_cache_max: %w", err))
			}

			if capBytes < minTrimCap {
				return qltyerr.Fatalf(qltyerr.KindConfig, "runtime.download_cache_max (%s) is below the %s minimum", cfg.Runtime.DownloadCacheMax, processor.FormatCacheSize(minTrimCap))
			}

			removed, keptSize, err := trimToolDirs(cacheRoot, capBytes)
			if err != nil {
				return qltyerr.Wrap(qltyerr.KindIO, err)
			}

			fmt.Fprintf(os.Stdout, "removed %d tool director(y/ies), %s remaining\n", len(removed), processor.FormatCacheSize(keptSize))
			for _, dir := range removed {
				fmt.Fprintf(os.Stdout, "  - %s\n", dir)
			}

			return nil
		},
	}
}

// toolDir is one plugin-version's cache directory, sized and timestamped
// for LRU eviction ordering.
type toolDir struct {
	path    string
	size    int64
	modTime int64
}

// trimToolDirs walks cacheRoot/<plugin>/<fingerprint> directories and uses
// an LRU cache capped at maxBytes to decide which survive: directories are
// inserted oldest-mtime-first, so the ones evicted to make room are always
// the least recently installed.
func trimToolDirs(cacheRoot string, maxBytes uint64) (removed []string, keptSize uint64, err error) {
	dirs, err := listToolDirs(cacheRoot)
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].modTime < dirs[j].modTime })

	survivors := lru.New[string, int64](lru.WithMaxBytes[string, int64](int64(maxBytes), func(size int64) int64 { return size }))

	for _, d := range dirs {
		survivors.Put(d.path, d.size)
	}

	for _, d := range dirs {
		if size, ok := survivors.Get(d.path); ok {
			keptSize += uint64(size)
			continue
		}

		if rmErr := os.RemoveAll(d.path); rmErr != nil {
			return removed, keptSize, rmErr
		}

		removed = append(removed, d.path)
	}

	return removed, keptSize, nil
}

// listToolDirs finds every <cacheRoot>/<plugin>/<fingerprint> directory,
// the granularity at which registry.Tool installs and removes tools.
func listToolDirs(cacheRoot string) ([]toolDir, error) {
	pluginDirs, err := os.ReadDir(cacheRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var dirs []toolDir

	for _, pd := range pluginDirs {
		if !pd.IsDir() {
			continue
		}

		pluginPath := filepath.Join(cacheRoot, pd.Name())

		fingerprintDirs, err := os.ReadDir(pluginPath)
		if err != nil {
			continue
		}

		for _, fd := range fingerprintDirs {
			if !fd.IsDir() {
				continue
			}

			path := filepath.Join(pluginPath, fd.Name())

			size, sizeErr := dirSize(path)
			if sizeErr != nil {
				continue
			}

			info, statErr := fd.Info()
			if statErr != nil {
				continue
			}

			dirs = append(dirs, toolDir{path: path, size: int64(size), modTime: info.ModTime().Unix()})
		}
	}

	return dirs, nil
}

func dirSize(root string) (uint64, error) {
	var total uint64

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}

			return walkErr
		}

		if !info.IsDir() {
			total += uint64(info.Size())
		}

		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}

	return total, nil
}
