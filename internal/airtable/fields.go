// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package airtable

import (
	"strings"
	"time"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// Column names written for every profile besides the unique field.
const (
	FieldFullName    = "Full Name"
	FieldFollowers   = "Followers"
	FieldBio         = "Bio"
	FieldProfileURL  = "Profile URL"
	FieldEmail       = "Email"
	FieldExternalURL = "External URL"
	FieldRegion      = "Region"
	FieldLocation    = "Location"
	FieldLanguage    = "Language"
	FieldTopics      = "Topics"
	FieldLastSynced  = "Last Synced"
)

// Fields maps p onto table columns. Empty optional values are omitted so an
// update never blanks a column the store already has. Last Synced is always
// written.
func Fields(p types.Profile, uniqueField string, now time.Time) map[string]any {
	if uniqueField == "" {
		uniqueField = DefaultUniqueField
	}
	f := map[string]any{
		uniqueField:     p.Handle,
		FieldFollowers:  p.FollowerCount,
		FieldLastSynced: now.UTC().Format(time.RFC3339),
	}
	set := func(name, v string) {
		if v = strings.TrimSpace(v); v != "" {
			f[name] = v
		}
	}
	set(FieldFullName, p.DisplayName)
	set(FieldBio, p.Bio)
	set(FieldProfileURL, p.ProfileURL)
	set(FieldEmail, p.Email)
	set(FieldExternalURL, p.ExternalURL)
	set(FieldRegion, p.Region)
	set(FieldLocation, p.Location)
	set(FieldLanguage, p.Language)
	if len(p.Topics) > 0 {
		f[FieldTopics] = strings.Join(p.Topics, ", ")
	}
	return f
}
