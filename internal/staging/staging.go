// Package staging materializes the config files a Driver invocation needs
// into a scratch directory: copying or symlinking files from the user's
// repository, and fetching remote config files over HTTP with in-memory
// caching so the same URL is never downloaded twice in one run.
package staging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/qlty-go/qlty/internal/cache"
	"github.com/qlty-go/qlty/internal/plugin"
	"github.com/qlty-go/qlty/internal/qltyerr"
)

// downloadTimeout bounds a single config-file fetch.
const downloadTimeout = 30 * time.Second

// CopyMode selects how a repository-local config file is staged.
type CopyMode int

const (
	// ModeSymlink symlinks the source into place (default: cheap, and
	// changes to the source are immediately visible to the driver).
	ModeSymlink CopyMode = iota
	// ModeCopy copies the source's bytes, used when a driver mutates the
	// staged file (formatters rewriting in place) and the original must
	// be left untouched.
	ModeCopy
)

// Area is a single invocation's scratch directory for staged config files,
// plus the run-wide download cache shared across every invocation so a
// remote config fetched for one plugin is reused for all.
type Area struct {
	Root           string
	downloadCache  *cache.Memo[[]byte]
	httpClient     *http.Client
}

// NewArea creates a staging area rooted at root, sharing downloadCache
// across every Area created for the same run (pass the same *cache.Memo
// to every invocation's Area).
func NewArea(root string, downloadCache *cache.Memo[[]byte]) *Area {
	return &Area{
		Root:          root,
		downloadCache: downloadCache,
		httpClient:    &http.Client{Timeout: downloadTimeout},
	}
}

// RootPath returns the staging area's root directory.
func (a *Area) RootPath() string {
	return a.Root
}

// StageFile stages a single plugin.ConfigFile into the area, returning the
// absolute path it was staged to, or "" if the file was skipped (repo
// source that doesn't exist). A repository file whose destination already
// exists is left alone and its path is returned unchanged; a downloaded
// file is rewritten from the run-wide cache on every call.
func (a *Area) StageFile(cf plugin.ConfigFile, repoRoot, url string, mode CopyMode) (string, error) {
	destination := filepath.Join(a.Root, cf.Name)

	switch cf.Source {
	case plugin.ConfigFileFromRepo:
		return a.stageFromRepo(filepath.Join(repoRoot, cf.Name), destination, mode)
	case plugin.ConfigFileDownload:
		return a.stageDownload(url, destination)
	default:
		return "", qltyerr.Fatalf(qltyerr.KindConfig, "unknown config file source %v", cf.Source)
	}
}

func (a *Area) stageFromRepo(sourcePath, destination string, mode CopyMode) (string, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return "", nil //nolint:nilerr // missing repo-local config file is not an error, just nothing to stage
	}

	if mkErr := os.MkdirAll(filepath.Dir(destination), 0o755); mkErr != nil {
		return "", qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("create staging dir: %w", mkErr))
	}

	if _, err := os.Stat(destination); err == nil {
		return destination, nil
	}

	var err error

	switch mode {
	case ModeSymlink:
		err = os.Symlink(sourcePath, destination)
	case ModeCopy:
		err = copyFile(sourcePath, destination)
	}

	if err != nil {
		return "", qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("stage config file %s: %w", sourcePath, err))
	}

	return destination, nil
}

func (a *Area) stageDownload(url, destination string) (string, error) {
	if mkErr := os.MkdirAll(filepath.Dir(destination), 0o755); mkErr != nil {
		return "", qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("create staging dir: %w", mkErr))
	}

	data, err := a.downloadCache.GetOrCompute(url, func() ([]byte, error) {
		return a.fetch(url)
	})
	if err != nil {
		return "", qltyerr.Wrap(qltyerr.KindNetwork, err)
	}

	writeErr := os.WriteFile(destination, data, 0o644)
	if writeErr != nil {
		return "", qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("write fetched config to %s: %w", destination, writeErr))
	}

	return destination, nil
}

func (a *Area) fetch(url string) ([]byte, error) {
	resp, err := a.httpClient.Get(url) //nolint:noctx,gosec // url is sourced from trusted plugin definitions, not user input
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, readErr)
	}

	return data, nil
}

func copyFile(source, destination string) error {
	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer src.Close()

	dst, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}
	defer dst.Close()

	_, copyErr := io.Copy(dst, src)
	if copyErr != nil {
		return fmt.Errorf("copy %s to %s: %w", source, destination, copyErr)
	}

	return nil
}
