package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/qlty-go/qlty/pkg/gitlib"
)

// AllSource walks the entire tree under Root, honoring the root .gitignore
// the way `git status` would, and always including dotfiles (qlty analyzes
// config files too).
type AllSource struct {
	Root string
}

// Entries walks Root and returns every non-ignored file.
func (s AllSource) Entries() ([]Entry, error) {
	matcher := gitignore.NewMatcher(readRootGitignore(s.Root))

	var entries []Entry

	walkErr := filepath.WalkDir(s.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		rel, relErr := filepath.Rel(s.Root, path)
		if relErr != nil {
			return fmt.Errorf("relativize %s: %w", path, relErr)
		}

		if rel == "." {
			return nil
		}

		rel = filepath.ToSlash(rel)

		if d.Name() == ".git" && d.IsDir() {
			return filepath.SkipDir
		}

		segments := strings.Split(rel, "/")
		if matcher.Match(segments, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("stat %s: %w", path, infoErr)
		}

		entries = append(entries, Entry{
			Path: rel,
			Kind: KindFile,
			Size: info.Size(),
			Mode: info.Mode(),
		})

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}

// readRootGitignore parses the top-level .gitignore file, if any. Nested
// .gitignore files are not consulted; this mirrors qlty's own behavior of
// relying on [[exclude]] blocks in qlty.toml for anything beyond the root.
func readRootGitignore(root string) []gitignore.Pattern {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}

	lines := strings.Split(string(data), "\n")
	patterns := make([]gitignore.Pattern, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		patterns = append(patterns, gitignore.ParsePattern(trimmed, nil))
	}

	return patterns
}

// ArgsSource builds a workspace from an explicit list of paths, absolutizing
// and root-relativizing each, and capturing its size/mode at discovery time
// so later stages don't need to re-stat.
type ArgsSource struct {
	Root  string
	Paths []string
}

// Entries stats and relativizes every configured path.
func (s ArgsSource) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(s.Paths))

	for _, p := range s.Paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(s.Root, p)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		rel, err := filepath.Rel(s.Root, abs)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", p, err)
		}

		kind := KindFile
		if info.IsDir() {
			kind = KindDirectory
		}

		entries = append(entries, Entry{
			Path: filepath.ToSlash(rel),
			Kind: kind,
			Size: info.Size(),
			Mode: info.Mode(),
		})
	}

	return entries, nil
}

// GlobsSource builds a workspace from a set of glob patterns evaluated
// relative to Root.
type GlobsSource struct {
	Root    string
	Globs   []string
}

// Entries expands every glob and stats the resulting files.
func (s GlobsSource) Entries() ([]Entry, error) {
	seen := make(map[string]struct{})

	var entries []Entry

	for _, g := range s.Globs {
		matches, err := filepath.Glob(filepath.Join(s.Root, g))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", g, err)
		}

		for _, m := range matches {
			rel, err := filepath.Rel(s.Root, m)
			if err != nil {
				continue
			}

			rel = filepath.ToSlash(rel)
			if _, dup := seen[rel]; dup {
				continue
			}

			seen[rel] = struct{}{}

			info, err := os.Stat(m)
			if err != nil {
				continue
			}

			if info.IsDir() {
				continue
			}

			entries = append(entries, Entry{Path: rel, Kind: KindFile, Size: info.Size(), Mode: info.Mode()})
		}
	}

	return entries, nil
}

// DiffSource builds a workspace from the set of files changed between two
// git revisions, using libgit2 via pkg/gitlib for the tree diff.
type DiffSource struct {
	RepoPath   string
	FromRef    string
	ToRef      string
}

// Entries opens the repository, resolves both refs to trees, diffs them,
// and returns one Entry per changed path (added, modified, or renamed;
// deletions are omitted since there is nothing left to analyze).
func (s DiffSource) Entries() ([]Entry, error) {
	repo, err := gitlib.OpenRepository(s.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	defer repo.Free()

	fromTree, err := s.resolveTree(repo, s.FromRef)
	if err != nil {
		return nil, err
	}

	toTree, err := s.resolveTree(repo, s.ToRef)
	if err != nil {
		return nil, err
	}

	diff, err := repo.DiffTreeToTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	defer diff.Free()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("count deltas: %w", err)
	}

	entries := make([]Entry, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, fmt.Errorf("read delta %d: %w", i, deltaErr)
		}

		if delta.NewFile.Hash.IsZero() {
			continue // deletion, nothing left to analyze
		}

		path := delta.NewFile.Path

		entries = append(entries, Entry{
			Path: filepath.ToSlash(path),
			Kind: KindFile,
			Size: delta.NewFile.Size,
		})
	}

	return entries, nil
}

func (s DiffSource) resolveTree(repo *gitlib.Repository, ref string) (*gitlib.Tree, error) {
	obj, err := repo.Native().RevparseSingle(ref + "^{commit}")
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}

	hash := gitlib.HashFromOid(obj.Id())
	obj.Free()

	commit, err := repo.LookupCommit(context.Background(), hash)
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", ref, err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree for %s: %w", ref, err)
	}

	return tree, nil
}
