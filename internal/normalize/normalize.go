// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps heterogeneous producer records onto types.Profile.
//
// Every target field has an ordered list of accessor paths. A path is a
// dot-separated key sequence into nested objects ("authorMeta.name"). The
// first path that yields a present, non-empty value wins. The lists are data
// so that the precedence can be read, tested and extended without touching
// the extraction logic.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/creator-sync/pkg/types"
)

// ProfileURLTemplate builds a profile URL from a canonical handle when the
// record carries none.
const ProfileURLTemplate = "https://www.tiktok.com/%s"

// Accessor path precedence, highest first.
var (
	HandlePaths = []string{
		"username", "uniqueId", "handle", "userName",
		"authorMeta.name", "author.uniqueId", "ownerUsername",
		"user.username", "user.uniqueId", "profile.username",
	}
	DisplayNamePaths = []string{
		"fullName", "nickName", "nickname", "displayName", "name",
		"authorMeta.nickName", "author.nickname", "user.full_name", "user.nickname",
	}
	FollowerPaths = []string{
		"followersCount", "followerCount", "followers", "fans",
		"authorMeta.fans", "authorStats.followerCount", "author.followerCount",
		"stats.followerCount", "user.follower_count", "user.followers",
	}
	BioPaths = []string{
		"biography", "bio", "signature", "description",
		"authorMeta.signature", "author.signature", "user.biography",
	}
	ProfileURLPaths = []string{
		"profileUrl", "profile_url", "url", "authorMeta.profileUrl", "author.profileUrl",
	}
	EmailPaths = []string{
		"email", "businessEmail", "publicEmail", "public_email", "contact.email",
	}
	ExternalURLPaths = []string{
		"externalUrl", "external_url", "website", "bioLink.link",
		"authorMeta.bioLink", "author.bioLink.link",
	}
	RegionPaths = []string{
		"region", "country", "countryCode", "authorMeta.region", "author.region",
		"locationCreated",
	}
	LocationPaths = []string{
		"location", "city", "authorMeta.location", "author.location", "address.city",
	}
	LanguagePaths = []string{
		"language", "lang", "textLanguage", "authorMeta.language", "author.language",
	}
	TopicPaths = []string{
		"topics", "categories", "interests", "hashtags", "businessCategoryName",
	}
)

// Normalize builds the canonical profile for raw. It never fails: missing or
// malformed fields degrade to zero values. The same input always yields the
// same profile.
func Normalize(raw types.RawRecord) types.Profile {
	p := types.Profile{
		Handle:        firstHandle(raw),
		DisplayName:   firstString(raw, DisplayNamePaths),
		FollowerCount: FollowerCount(raw),
		Bio:           firstString(raw, BioPaths),
		ProfileURL:    firstString(raw, ProfileURLPaths),
		Email:         firstString(raw, EmailPaths),
		ExternalURL:   firstString(raw, ExternalURLPaths),
		Region:        firstString(raw, RegionPaths),
		Location:      firstString(raw, LocationPaths),
		Language:      firstString(raw, LanguagePaths),
		Topics:        Topics(raw),
		SourceRecord:  raw,
	}
	if p.ProfileURL == "" && p.Handle != "" {
		p.ProfileURL = fmt.Sprintf(ProfileURLTemplate, p.Handle)
	}
	return p
}

// Handle canonicalizes an identity string: surrounding whitespace and all
// leading '@' characters are removed, then exactly one '@' is prefixed.
// An input that is empty after stripping yields "".
func Handle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "@")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "@" + s
}

// First walks paths in order and returns the first value that accept
// converts successfully. accept receives only present, non-empty values.
func First[T any](raw types.RawRecord, paths []string, accept func(any) (T, bool)) (T, bool) {
	for _, path := range paths {
		v, ok := Lookup(raw, path)
		if !ok || isEmpty(v) {
			continue
		}
		if out, ok := accept(v); ok {
			return out, true
		}
	}
	var zero T
	return zero, false
}

// Lookup resolves a dotted path against nested maps.
func Lookup(raw types.RawRecord, path string) (any, bool) {
	var cur any = raw
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// FollowerCount returns the first numeric-like follower field, clamped at 0.
func FollowerCount(raw types.RawRecord) int64 {
	n, _ := First(raw, FollowerPaths, toCount)
	return n
}

// Topics returns the first populated topic list, or nil.
func Topics(raw types.RawRecord) []string {
	t, _ := First(raw, TopicPaths, toTopics)
	return t
}

// firstHandle skips candidates that are nothing but '@' and whitespace.
func firstHandle(raw types.RawRecord) string {
	h, _ := First(raw, HandlePaths, func(v any) (string, bool) {
		s, ok := toString(v)
		if !ok {
			return "", false
		}
		h := Handle(s)
		return h, h != ""
	})
	return h
}

func firstString(raw types.RawRecord, paths []string) string {
	s, _ := First(raw, paths, toString)
	return s
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int, int64, int32:
		return fmt.Sprint(x), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func toCount(v any) (int64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseCount(x)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	return int64(math.Round(f)), true
}

// parseCount accepts "5,000,000", "12 345", "12.5K", "1.2m" and "3B".
func parseCount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "_", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1e3
	case 'm', 'M':
		mult = 1e6
	case 'b', 'B':
		mult = 1e9
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}

func toTopics(v any) ([]string, bool) {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch x := v.(type) {
	case string:
		for _, part := range strings.Split(x, ",") {
			add(part)
		}
	case []string:
		for _, s := range x {
			add(s)
		}
	case []any:
		for _, item := range x {
			switch it := item.(type) {
			case string:
				add(it)
			case map[string]any:
				for _, key := range []string{"name", "title", "hashtagName"} {
					if s, ok := it[key].(string); ok && strings.TrimSpace(s) != "" {
						add(s)
						break
					}
				}
			}
		}
	default:
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
