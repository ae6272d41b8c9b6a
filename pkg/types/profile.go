// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RawRecord is one item pulled from a producer dataset. Its shape depends on
// the scraping backend that produced it; nothing about its keys is guaranteed.
type RawRecord = map[string]any

// Profile is the canonical form of a scraped social-media profile.
// Exactly one Profile is produced per RawRecord.
type Profile struct {
	// Handle is "@name" with exactly one leading "@". Empty when the raw
	// record carried no usable identity; such profiles are dropped.
	Handle string `json:"handle" yaml:"handle"`

	// DisplayName is the human-readable name, possibly empty.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// FollowerCount is never negative; 0 when unknown.
	FollowerCount int64 `json:"follower_count" yaml:"follower_count"`

	Bio         string   `json:"bio,omitempty" yaml:"bio,omitempty"`
	ProfileURL  string   `json:"profile_url,omitempty" yaml:"profile_url,omitempty"`
	Email       string   `json:"email,omitempty" yaml:"email,omitempty"`
	ExternalURL string   `json:"external_url,omitempty" yaml:"external_url,omitempty"`
	Region      string   `json:"region,omitempty" yaml:"region,omitempty"`
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"`
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	Topics      []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	// SourceRecord is the raw record the profile was built from.
	SourceRecord RawRecord `json:"-" yaml:"-"`
}

// HasIdentity reports whether the profile carries a usable handle.
func (p Profile) HasIdentity() bool {
	return p.Handle != ""
}

// StoreAction records what the external store sync did for a profile.
type StoreAction string

const (
	ActionNone     StoreAction = ""
	ActionCreated  StoreAction = "created"
	ActionUpdated  StoreAction = "updated"
	ActionExisting StoreAction = "existing"
	ActionSkipped  StoreAction = "skipped"
	ActionFailed   StoreAction = "failed"
)

// DatasetItem is the row appended to the output sink for every saved profile.
type DatasetItem struct {
	Profile `yaml:",inline"`

	RunID         string      `json:"run_id" yaml:"run_id"`
	Seed          string      `json:"seed" yaml:"seed"`
	StoreAction   StoreAction `json:"store_action,omitempty" yaml:"store_action,omitempty"`
	StoreRecordID string      `json:"store_record_id,omitempty" yaml:"store_record_id,omitempty"`
	PushedAt      time.Time   `json:"pushed_at" yaml:"pushed_at"`
}
