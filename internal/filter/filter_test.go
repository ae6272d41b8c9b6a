// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/creator-sync/pkg/types"
)

func TestPassesBand(t *testing.T) {
	cfg := types.FilterConfig{MinFollowers: 10_000, MaxFollowers: 1_000_000}

	tests := []struct {
		name      string
		followers int64
		want      bool
	}{
		{"exactly min", 10_000, true},
		{"exactly max", 1_000_000, true},
		{"inside", 50_000, true},
		{"just below min", 9_999, false},
		{"just above max", 1_000_001, false},
		{"zero", 0, false},
		{"far above", 5_000_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Passes(types.Profile{FollowerCount: tt.followers}, cfg))
		})
	}
}

func TestUnboundedMax(t *testing.T) {
	cfg := types.FilterConfig{MinFollowers: 100}
	assert.True(t, Passes(types.Profile{FollowerCount: 900_000_000}, cfg))
}

func TestEvaluateReasons(t *testing.T) {
	cfg := types.FilterConfig{MinFollowers: 1000, MaxFollowers: 100_000, RequireTargetCountry: true}

	tests := []struct {
		name    string
		profile types.Profile
		want    Verdict
	}{
		{"below band", types.Profile{FollowerCount: 10, Location: "Austin, TX"}, Verdict{Reason: ReasonBelowBand}},
		{"above band", types.Profile{FollowerCount: 5_000_000, Location: "Austin, TX"}, Verdict{Reason: ReasonAboveBand}},
		{"wrong country", types.Profile{FollowerCount: 50_000, Location: "Paris, France"}, Verdict{Reason: ReasonWrongCountry}},
		{"passes", types.Profile{FollowerCount: 50_000, Location: "Austin, TX"}, Verdict{Pass: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.profile, cfg))
		})
	}
}

func TestGeographyOptional(t *testing.T) {
	cfg := types.FilterConfig{MinFollowers: 1000, MaxFollowers: 100_000}
	assert.True(t, Passes(types.Profile{FollowerCount: 50_000, Location: "Paris, France"}, cfg))
}
