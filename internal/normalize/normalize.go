// Package normalize canonicalizes free-text keys so that region names coming
// from the sales dataset and from the boundary file compare equal despite
// accents, spacing, casing and administrative prefixes.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	departmentSuffix = " DEPARTMENT"
	deptoPrefix      = "DEPTO."
)

// Key returns the canonical form of text: NFD decomposed, combining marks
// removed, whitespace runs collapsed to one space, trimmed and upper-cased.
// Empty input yields the empty string.
func Key(text string) string {
	if text == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		// Only reachable on invalid transformer state; fall back to the raw text.
		stripped = text
	}

	return strings.ToUpper(strings.Join(strings.Fields(stripped), " "))
}

// RegionKey normalizes a region name and drops the " DEPARTMENT" suffix and
// "DEPTO." prefix that boundary files tend to carry. Affixes are stripped
// until none is left, so RegionKey(RegionKey(x)) == RegionKey(x).
func RegionKey(name string) string {
	key := Key(name)
	for {
		trimmed := strings.TrimSuffix(key, departmentSuffix)
		if rest, ok := strings.CutPrefix(trimmed, deptoPrefix); ok {
			trimmed = strings.TrimSpace(rest)
		}
		if trimmed == key {
			return key
		}
		key = trimmed
	}
}

// SortStrings orders values in place using Spanish collation, so that
// "Ñ" sorts after "N" and accented letters sit next to their base letter.
func SortStrings(values []string) {
	collate.New(language.Spanish).SortStrings(values)
}
