package model

// DefaultCategories are the built-in categories. They always exist and
// cannot be deleted.
var DefaultCategories = []string{"Workout", "Study", "Break"}

// CategoryGroup is a category label with the timers currently carrying it.
type CategoryGroup struct {
	Name   string
	Timers []Timer

	// Known is false for labels with no matching category entry (the
	// category was deleted while timers still referenced it).
	Known bool
}

// MergeCategories returns defaults followed by every stored name not already
// present. Matching is exact and case-sensitive.
func MergeCategories(defaults, stored []string) []string {
	seen := make(map[string]bool, len(defaults)+len(stored))
	merged := make([]string, 0, len(defaults)+len(stored))
	for _, list := range [][]string{defaults, stored} {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged
}

// ContainsCategory reports whether name is in categories.
func ContainsCategory(categories []string, name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

// GroupByCategory groups timers by their category label. Groups for known
// categories come first in category order, then orphaned labels in order of
// first appearance. Empty known categories are omitted.
func GroupByCategory(timers []Timer, categories []string) []CategoryGroup {
	byName := make(map[string][]Timer)
	var orphans []string
	for _, t := range timers {
		if _, ok := byName[t.Category]; !ok && !ContainsCategory(categories, t.Category) {
			orphans = append(orphans, t.Category)
		}
		byName[t.Category] = append(byName[t.Category], t)
	}

	var groups []CategoryGroup
	for _, c := range categories {
		if list := byName[c]; len(list) > 0 {
			groups = append(groups, CategoryGroup{Name: c, Timers: list, Known: true})
		}
	}
	for _, c := range orphans {
		groups = append(groups, CategoryGroup{Name: c, Timers: byName[c]})
	}
	return groups
}
