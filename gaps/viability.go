package gaps

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

const (
	excellentMultiplier = 1.3
	goodMultiplier      = 1.1
	avoidMultiplier     = 0.2
	conflictMultiplier  = 0.1

	// ViabilityThreshold is the score a gap must exceed to pass.
	ViabilityThreshold = 0.6
)

// NormalizeStoreType lower-cases a store type and replaces spaces with underscores.
func NormalizeStoreType(storeType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(storeType)), " ", "_")
}

// Assess scores a gap against the store-type compatibility table and the
// location conflict rules. It keeps no state between calls.
func Assess(gap Gap, storeType, locationContext string) Assessment {
	viability := gap.AffinityScore
	issues := make([]string, 0)
	var notes []string

	st := NormalizeStoreType(storeType)
	categories := make([]string, 0, len(gap.Categories))
	for _, c := range gap.Categories {
		categories = append(categories, strings.ToLower(c))
	}

	if profile, ok := storeCompatibility[st]; ok {
		for _, c := range categories {
			switch {
			case matchesAny(c, profile.Excellent):
				viability *= excellentMultiplier
			case matchesAny(c, profile.Good):
				viability *= goodMultiplier
			case matchesAny(c, profile.Avoid):
				viability *= avoidMultiplier
				issues = append(issues, fmt.Sprintf("%s not suitable for %s", c, st))
			}
		}
	} else if st != "" {
		notes = append(notes, fmt.Sprintf("No compatibility profile for store type %q", st))
	}

	location := strings.ToLower(locationContext)
	for _, rule := range locationConflicts {
		if !strings.Contains(location, rule.Key) {
			continue
		}
		if slices.ContainsFunc(categories, func(c string) bool { return matchesAny(c, rule.Avoid) }) {
			viability *= conflictMultiplier
			issues = append(issues, rule.Reason)
		}
	}

	notes = append(notes, demographicNotes(location)...)
	notes = append(notes, complexityNotes(categories)...)

	viability = clamp01(viability)
	return Assessment{
		Gap:       gap,
		Viability: viability,
		Issues:    issues,
		Notes:     notes,
		IsViable:  viability > ViabilityThreshold && len(issues) == 0,
	}
}

// AssessAll assesses every gap in input order.
func AssessAll(gaps []Gap, storeType, locationContext string) []Assessment {
	out := make([]Assessment, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, Assess(g, storeType, locationContext))
	}
	return out
}

func matchesAny(category string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(category, kw) {
			return true
		}
	}
	return false
}

func demographicNotes(location string) []string {
	var notes []string
	for _, hint := range demographicHints {
		for _, key := range hint.Keys {
			if strings.Contains(location, key) {
				notes = append(notes, hint.Note)
				break
			}
		}
	}
	return notes
}

func complexityNotes(categories []string) []string {
	seen := make(map[string]struct{})
	for _, c := range categories {
		for kw, note := range operationalComplexity {
			if strings.Contains(c, kw) {
				seen[note] = struct{}{}
			}
		}
	}
	notes := make([]string, 0, len(seen))
	for n := range seen {
		notes = append(notes, n)
	}
	sort.Strings(notes)
	return notes
}
