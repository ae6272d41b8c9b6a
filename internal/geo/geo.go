// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geo decides whether a profile appears to belong to the target
// country. It is a best-effort textual heuristic, not an identity check:
// profiles with non-English bios or no self-reported location are missed,
// and unrelated two-letter tokens after a comma can be mistaken for a state
// code. Treat its answer as approximate.
package geo

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// Rule names the classifier rule that produced a match.
type Rule string

const (
	RuleNone   Rule = ""
	RuleRegion Rule = "region"
	RuleMarker Rule = "marker"
	RuleCity   Rule = "city-state"
)

// Country describes what counts as a match for one target country.
type Country struct {
	// Regions are accepted values for the region field, compared case-folded.
	Regions []string

	// Markers are searched in the combined text. Markers containing letters
	// must stand as whole words; others, such as flag glyphs, match anywhere.
	Markers []string

	// Subdivisions are the two-letter codes accepted after "City, ".
	Subdivisions []string
}

// UnitedStates is the default target country.
var UnitedStates = Country{
	Regions: []string{"us", "usa", "u.s.", "u.s.a.", "united states", "united states of america"},
	Markers: []string{"united states", "usa", "u.s.a", "🇺🇸"},
	Subdivisions: []string{
		"al", "ak", "az", "ar", "ca", "co", "ct", "de", "fl", "ga",
		"hi", "id", "il", "in", "ia", "ks", "ky", "la", "me", "md",
		"ma", "mi", "mn", "ms", "mo", "mt", "ne", "nv", "nh", "nj",
		"nm", "ny", "nc", "nd", "oh", "ok", "or", "pa", "ri", "sc",
		"sd", "tn", "tx", "ut", "vt", "va", "wa", "wv", "wi", "wy",
		"dc",
	},
}

// Classifier applies the region, marker and city-state rules in order.
type Classifier struct {
	regions map[string]bool
	glyphs  []string
	words   *regexp.Regexp
	city    *regexp.Regexp
}

// NewClassifier compiles the rules for c.
func NewClassifier(c Country) *Classifier {
	cl := &Classifier{regions: make(map[string]bool)}
	for _, r := range c.Regions {
		cl.regions[fold(r)] = true
	}
	var words []string
	for _, m := range c.Markers {
		m = fold(m)
		if hasLetter(m) {
			words = append(words, regexp.QuoteMeta(m))
		} else {
			cl.glyphs = append(cl.glyphs, m)
		}
	}
	if len(words) > 0 {
		// "usa" inside "busan" or "jerusalem" is not a marker.
		cl.words = regexp.MustCompile(`(?:^|[^\p{L}])(?:` + strings.Join(words, "|") + `)(?:[^\p{L}]|$)`)
	}
	if len(c.Subdivisions) > 0 {
		codes := make([]string, len(c.Subdivisions))
		for i, s := range c.Subdivisions {
			codes[i] = regexp.QuoteMeta(fold(s))
		}
		// A word, a comma, then a code not followed by another letter:
		// "austin, tx", "new york,ny".
		cl.city = regexp.MustCompile(`\p{L}[\p{L} .'-]*,\s*(?:` + strings.Join(codes, "|") + `)(?:[^\p{L}]|$)`)
	}
	return cl
}

var defaultClassifier = NewClassifier(UnitedStates)

// IsTargetCountry reports whether p looks like a United States profile.
func IsTargetCountry(p types.Profile) bool {
	return defaultClassifier.Match(p)
}

// Match reports whether any rule matches p.
func (c *Classifier) Match(p types.Profile) bool {
	return c.Explain(p) != RuleNone
}

// Explain returns the first rule that matches p, or RuleNone.
func (c *Classifier) Explain(p types.Profile) Rule {
	if c.regions[fold(strings.TrimSpace(p.Region))] {
		return RuleRegion
	}

	blob := Blob(p)
	for _, g := range c.glyphs {
		if strings.Contains(blob, g) {
			return RuleMarker
		}
	}
	if c.words != nil && c.words.MatchString(blob) {
		return RuleMarker
	}

	if c.city != nil && c.city.MatchString(blob) {
		return RuleCity
	}
	return RuleNone
}

// Blob joins the location-bearing fields into one case-folded text.
func Blob(p types.Profile) string {
	parts := []string{p.Region, p.Location, p.Bio, p.DisplayName}
	return fold(strings.Join(parts, "\n"))
}

// fold allocates a fresh Caser per call; Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
