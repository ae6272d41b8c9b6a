// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// ConfigError reports configuration that makes a run impossible.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks cfg before any collaborator is contacted. It returns a
// *ConfigError for the first problem found.
func Validate(cfg types.Config) error {
	if len(types.BuildSeeds(cfg.Seeds.Terms, cfg.Seeds.Hashtags)) == 0 {
		return &ConfigError{Field: "seeds", Reason: "no search terms or hashtags configured"}
	}
	if cfg.Seeds.MaxItems < 0 {
		return &ConfigError{Field: "seeds.max_items", Reason: fmt.Sprintf("must not be negative, got %d", cfg.Seeds.MaxItems)}
	}
	if cfg.Filter.MinFollowers < 0 {
		return &ConfigError{Field: "filter.min_followers", Reason: fmt.Sprintf("must not be negative, got %d", cfg.Filter.MinFollowers)}
	}
	if cfg.Filter.MaxFollowers > 0 && cfg.Filter.MinFollowers > cfg.Filter.MaxFollowers {
		return &ConfigError{
			Field:  "filter",
			Reason: fmt.Sprintf("min_followers %d is above max_followers %d", cfg.Filter.MinFollowers, cfg.Filter.MaxFollowers),
		}
	}
	if cfg.Ledger.PersistEvery < 0 {
		return &ConfigError{Field: "ledger.persist_every", Reason: "must not be negative"}
	}
	return nil
}
