// Package workspace enumerates the files a run should consider (the
// "workspace entries") from the whole tree, a CLI argument list, a git
// diff, or an explicit glob set, and filters them with language, path,
// and plugin-scoped exclude matchers.
package workspace

import "os"

// Kind distinguishes how an Entry was produced, mirroring the Source that
// discovered it.
type Kind int

const (
	// KindFile is a regular file entry.
	KindFile Kind = iota
	// KindDirectory is a directory entry (emitted by ArgsSource for a
	// directory argument).
	KindDirectory
)

// Entry is a single file or directory under consideration for analysis,
// with its path relative to the workspace root and enough metadata for
// matchers to decide inclusion without re-statting the filesystem.
type Entry struct {
	Path     string // root-relative, forward-slash separated
	Kind     Kind
	Size     int64
	Mode     os.FileMode
	Language string // populated by DetectLanguage, empty until then
}

// Source produces the candidate Entry list for a run. Different Sources
// implement different ways of answering "what should be analyzed":
// the whole tree, an explicit argument list, a git diff, or glob patterns.
type Source interface {
	// Entries returns every candidate entry, before any Matcher is applied.
	Entries() ([]Entry, error)
}

// Matcher decides whether an Entry should remain in the workspace. Matchers
// compose: a Source's raw Entries are filtered by every applicable Matcher
// before planning begins.
type Matcher interface {
	Match(e Entry) bool
}
