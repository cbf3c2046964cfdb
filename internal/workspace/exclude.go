package workspace

import "strings"

// ExcludeGroup is a run of consecutive exclude patterns sharing the same
// polarity (all plain, or all "!"-negated). Splitting a pattern list into
// groups lets ApplyExcludeGroups evaluate each run as a unit instead of
// re-deciding polarity pattern-by-pattern.
type ExcludeGroup struct {
	Patterns []string
	Negate   bool
}

// BuildExcludeGroups splits patterns into ordered same-polarity groups,
// preserving the original pattern order (it does not sort patterns before
// grouping). A leading "!" marks a pattern as belonging to a negated group;
// the group's own Negate is fixed by its first member. Empty pattern
// strings are skipped entirely.
func BuildExcludeGroups(patterns []string) []ExcludeGroup {
	var groups []ExcludeGroup

	startNegated := false

	for _, p := range patterns {
		if p != "" {
			startNegated = strings.HasPrefix(p, "!")
			break
		}
	}

	current := ExcludeGroup{Negate: startNegated}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		if stripped, negated := strings.CutPrefix(pattern, "!"); negated {
			if current.Negate {
				current.Patterns = append(current.Patterns, stripped)
			} else {
				groups = append(groups, current)
				current = ExcludeGroup{Patterns: []string{stripped}, Negate: true}
			}
		} else if current.Negate {
			groups = append(groups, current)
			current = ExcludeGroup{Patterns: []string{pattern}, Negate: false}
		} else {
			current.Patterns = append(current.Patterns, pattern)
		}
	}

	if len(current.Patterns) > 0 {
		groups = append(groups, current)
	}

	return groups
}

// ApplyExcludeGroups reports whether path is excluded after evaluating
// groups left to right: a path is excluded iff it matches any positive
// group and is not rescued by a later-matching negation group. The last
// matching group wins, the same precedence gitignore gives a trailing "!"
// re-inclusion over an earlier broad exclude.
func ApplyExcludeGroups(groups []ExcludeGroup, path string) bool {
	excluded := false

	for _, g := range groups {
		for _, pattern := range g.Patterns {
			if globMatch(pattern, path) {
				excluded = !g.Negate
				break
			}
		}
	}

	return excluded
}
