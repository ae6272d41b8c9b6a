// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// SeedKind distinguishes search-term seeds from hashtag seeds.
type SeedKind string

const (
	SeedTerm    SeedKind = "term"
	SeedHashtag SeedKind = "hashtag"
)

// Seed is one unit of search input; each drives one producer invocation.
type Seed struct {
	Kind  SeedKind `json:"kind" yaml:"kind"`
	Value string   `json:"value" yaml:"value"`
}

// String renders the seed as "term:coupon codes" or "hashtag:deals".
func (s Seed) String() string {
	return string(s.Kind) + ":" + s.Value
}

// BuildSeeds turns configured terms and hashtags into seeds, terms first.
// Blank entries are skipped and leading '#' characters are stripped from
// hashtags. Repeated seeds are kept once.
func BuildSeeds(terms, hashtags []string) []Seed {
	var seeds []Seed
	seen := make(map[Seed]bool)
	add := func(s Seed) {
		if s.Value == "" || seen[s] {
			return
		}
		seen[s] = true
		seeds = append(seeds, s)
	}
	for _, t := range terms {
		add(Seed{Kind: SeedTerm, Value: strings.TrimSpace(t)})
	}
	for _, h := range hashtags {
		v := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(h), "#"))
		add(Seed{Kind: SeedHashtag, Value: v})
	}
	return seeds
}
