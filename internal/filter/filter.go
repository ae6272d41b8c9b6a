// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides which normalized profiles are worth keeping.
package filter

import (
	"github.com/pdiddy/creator-sync/internal/geo"
	"github.com/pdiddy/creator-sync/pkg/types"
)

// Reason explains why a profile was rejected.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonBelowBand    Reason = "below-band"
	ReasonAboveBand    Reason = "above-band"
	ReasonWrongCountry Reason = "wrong-country"
)

// Verdict is the outcome of Evaluate.
type Verdict struct {
	Pass   bool
	Reason Reason
}

// Passes reports whether p is inside the follower band and, when required,
// classified as the target country.
func Passes(p types.Profile, cfg types.FilterConfig) bool {
	return Evaluate(p, cfg).Pass
}

// Evaluate runs the numeric band check first and only consults the
// geography classifier for profiles that are inside the band.
func Evaluate(p types.Profile, cfg types.FilterConfig) Verdict {
	if p.FollowerCount < cfg.MinFollowers {
		return Verdict{Reason: ReasonBelowBand}
	}
	if cfg.MaxFollowers > 0 && p.FollowerCount > cfg.MaxFollowers {
		return Verdict{Reason: ReasonAboveBand}
	}
	if cfg.RequireTargetCountry && !geo.IsTargetCountry(p) {
		return Verdict{Reason: ReasonWrongCountry}
	}
	return Verdict{Pass: true}
}
