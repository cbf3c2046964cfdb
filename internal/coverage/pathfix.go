package coverage

import "strings"

// PathFixer rewrites a coverage report's file paths into the repo-root-
// relative form qlty reports use, compensating for report generators that
// emit absolute paths, a build-container prefix, or a "./" prefix.
type PathFixer interface {
	Fix(path string) string
}

// StripPrefix removes Prefix from the start of each path, a no-op if the
// path doesn't start with Prefix.
type StripPrefix struct {
	Prefix string
}

// Fix implements PathFixer.
func (s StripPrefix) Fix(path string) string {
	return strings.TrimPrefix(path, s.Prefix)
}

// AddPrefix prepends Prefix to each path.
type AddPrefix struct {
	Prefix string
}

// Fix implements PathFixer.
func (a AddPrefix) Fix(path string) string {
	return a.Prefix + path
}

// StripDotSlashPrefix removes a leading "./" some generators (notably
// SimpleCov and Coverprofile) emit.
type StripDotSlashPrefix struct{}

// Fix implements PathFixer.
func (StripDotSlashPrefix) Fix(path string) string {
	return strings.TrimPrefix(path, "./")
}

// DefaultPathFixer chains StripDotSlashPrefix and an optional StripPrefix,
// qlty's default behavior absent an explicit qlty.toml coverage path fix.
type DefaultPathFixer struct {
	RepoPrefix string
}

// Fix implements PathFixer.
func (d DefaultPathFixer) Fix(path string) string {
	path = StripDotSlashPrefix{}.Fix(path)

	if d.RepoPrefix != "" {
		path = StripPrefix{Prefix: d.RepoPrefix}.Fix(path)
	}

	return path
}

// ApplyPathFixer rewrites every file's Path in place.
func ApplyPathFixer(files []FileCoverage, fixer PathFixer) {
	for i := range files {
		files[i].Path = fixer.Fix(files[i].Path)
	}
}
