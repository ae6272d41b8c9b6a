// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/creator-sync/pkg/types"
)

func TestIsTargetCountry(t *testing.T) {
	tests := []struct {
		name    string
		profile types.Profile
		want    bool
		rule    Rule
	}{
		{"region code", types.Profile{Region: "US"}, true, RuleRegion},
		{"region full name", types.Profile{Region: " United States "}, true, RuleRegion},
		{"region other country", types.Profile{Region: "FR"}, false, RuleNone},
		{"city state in location", types.Profile{Location: "New York, NY"}, true, RuleCity},
		{"city state in bio", types.Profile{Bio: "mom of 3 | austin,tx | deals daily"}, true, RuleCity},
		{"city state in display name", types.Profile{DisplayName: "Deals by Dana (Miami, FL)"}, true, RuleCity},
		{"flag glyph", types.Profile{Bio: "coupon life 🇺🇸"}, true, RuleMarker},
		{"country marker", types.Profile{Location: "Somewhere in the USA"}, true, RuleMarker},
		{"country name uppercase", types.Profile{Bio: "UNITED STATES based"}, true, RuleMarker},
		{"paris france", types.Profile{Location: "Paris, France"}, false, RuleNone},
		{"marker inside busan", types.Profile{Location: "Busan, South Korea"}, false, RuleNone},
		{"marker inside jerusalem", types.Profile{Location: "Jerusalem"}, false, RuleNone},
		{"marker inside lausanne", types.Profile{Bio: "Lausanne, Switzerland"}, false, RuleNone},
		{"dotted marker", types.Profile{Bio: "made in the u.s.a. since 2019"}, true, RuleMarker},
		{"state code glued to word", types.Profile{Bio: "Lyon, Txoko"}, false, RuleNone},
		{"no location data", types.Profile{DisplayName: "Sam", Bio: "I love deals"}, false, RuleNone},
		{"empty profile", types.Profile{}, false, RuleNone},
	}

	c := NewClassifier(UnitedStates)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTargetCountry(tt.profile))
			assert.Equal(t, tt.rule, c.Explain(tt.profile))
		})
	}
}

func TestRuleOrder(t *testing.T) {
	// The region rule wins even when later rules would also match.
	p := types.Profile{Region: "us", Location: "Austin, TX", Bio: "🇺🇸"}
	assert.Equal(t, RuleRegion, NewClassifier(UnitedStates).Explain(p))

	// Markers are checked before the city-state pattern.
	p = types.Profile{Location: "Austin, TX", Bio: "🇺🇸"}
	assert.Equal(t, RuleMarker, NewClassifier(UnitedStates).Explain(p))
}

func TestCustomCountry(t *testing.T) {
	canada := Country{
		Regions:      []string{"ca", "canada"},
		Markers:      []string{"canada", "🇨🇦"},
		Subdivisions: []string{"on", "qc", "bc"},
	}
	c := NewClassifier(canada)

	assert.True(t, c.Match(types.Profile{Location: "Toronto, ON"}))
	assert.True(t, c.Match(types.Profile{Region: "Canada"}))
	assert.False(t, c.Match(types.Profile{Location: "Austin, TX"}))
}

func TestBlobIsCaseFolded(t *testing.T) {
	b := Blob(types.Profile{Region: "US", Location: "Austin, TX", Bio: "HELLO", DisplayName: "Sam"})
	assert.Equal(t, "us\naustin, tx\nhello\nsam", b)
}
