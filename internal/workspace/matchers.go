package workspace

import (
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

// LanguageMatcher keeps entries whose detected language is in Languages.
// When the Entry's Language is empty, Match detects it by extension with
// enry; Match does not store the result on the Entry (DetectLanguage does).
type LanguageMatcher struct {
	Languages map[string]bool
}

// NewLanguageMatcher builds a matcher for the given language names
// (case-sensitive, matching enry's canonical names, e.g. "Go", "Python").
func NewLanguageMatcher(languages ...string) LanguageMatcher {
	set := make(map[string]bool, len(languages))
	for _, l := range languages {
		set[l] = true
	}

	return LanguageMatcher{Languages: set}
}

// Match reports whether e's enry-detected language is in the matcher's set.
func (m LanguageMatcher) Match(e Entry) bool {
	lang := e.Language
	if lang == "" {
		lang, _ = enry.GetLanguageByExtension(e.Path)
	}

	return m.Languages[lang]
}

// DetectLanguage fills in e.Language using enry's extension-based detection,
// returning the updated Entry. Content-based detection is intentionally not
// attempted here since qlty only reads file content when a plugin actually
// runs, to avoid paying I/O cost for entries no plugin will touch.
func DetectLanguage(e Entry) Entry {
	if e.Language != "" {
		return e
	}

	lang, _ := enry.GetLanguageByExtension(e.Path)
	e.Language = lang

	return e
}

// GlobsMatcher keeps entries whose path matches any of a set of glob
// patterns (as interpreted by path/filepath.Match against path segments).
type GlobsMatcher struct {
	Patterns []string
}

// Match reports whether e.Path matches any configured pattern.
func (m GlobsMatcher) Match(e Entry) bool {
	for _, pattern := range m.Patterns {
		if globMatch(pattern, e.Path) {
			return true
		}
	}

	return false
}

// PrefixMatcher keeps entries whose path starts with Prefix.
type PrefixMatcher struct {
	Prefix string
}

// Match reports whether e.Path has the configured prefix.
func (m PrefixMatcher) Match(e Entry) bool {
	return strings.HasPrefix(e.Path, m.Prefix)
}

// ExcludeMatcher removes entries matching configured file patterns, scoped
// to a single plugin (or every plugin, when Plugin is empty). qlty.toml's
// [[exclude]] blocks compile into one ExcludeMatcher each; a workspace
// entry is excluded for a given plugin if any ExcludeMatcher whose Plugin
// is empty or equal to that plugin's name matches it.
type ExcludeMatcher struct {
	Plugin       string
	FilePatterns []string
}

// MatchesPlugin reports whether this matcher applies to the named plugin:
// an empty Plugin scopes to every plugin.
func (m ExcludeMatcher) MatchesPlugin(plugin string) bool {
	return m.Plugin == "" || m.Plugin == plugin
}

// Match reports whether e.Path matches any of the matcher's file patterns,
// independent of which plugin is asking; callers must also check
// MatchesPlugin for plugin scoping. Patterns are evaluated through
// BuildExcludeGroups/ApplyExcludeGroups, so a "!"-prefixed pattern rescues
// a path an earlier positive group excluded.
func (m ExcludeMatcher) Match(e Entry) bool {
	return ApplyExcludeGroups(BuildExcludeGroups(m.FilePatterns), e.Path)
}

// ExcludedForPlugin reports whether any matcher in matchers excludes path
// for the given plugin name.
func ExcludedForPlugin(matchers []ExcludeMatcher, plugin, path string) bool {
	entry := Entry{Path: path}

	for _, m := range matchers {
		if m.MatchesPlugin(plugin) && m.Match(entry) {
			return true
		}
	}

	return false
}

// globMatch matches pattern against path the way gitignore-style file
// patterns are expected to work in qlty.toml: "**/" matches any number of
// leading directories, and a pattern with no "/" matches the basename
// anywhere in the tree.
func globMatch(pattern, path string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := filepath.Match(pattern, filepath.Base(path))
		return ok
	}

	trimmed := strings.TrimPrefix(pattern, "**/")
	if trimmed != pattern {
		if ok, _ := filepath.Match(trimmed, path); ok {
			return true
		}

		segments := strings.Split(path, "/")
		for i := range segments {
			suffix := strings.Join(segments[i:], "/")
			if ok, _ := filepath.Match(trimmed, suffix); ok {
				return true
			}
		}

		return false
	}

	ok, _ := filepath.Match(pattern, path)

	return ok
}
