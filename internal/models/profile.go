// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

import "time"

// AttributeID identifies one entry in the global attribute catalog
// (e.g. a hobby, an orientation flag). The catalog itself lives outside
// the core and is injected as configuration.
type AttributeID int64

// AttributeValue is either a two-part scalar pair or a set of i64 values,
// mirroring a `{part1, part2} | set<i64>` union.
type AttributeValue struct {
	Part1 *int64
	Part2 *int64
	Set   []int64
}

// IsRange reports whether the value uses the two-part scalar form.
func (v AttributeValue) IsRange() bool {
	return v.Part1 != nil || v.Part2 != nil
}

// AttributeFilter is the filter specification an account applies to
// candidate profiles for a given attribute during discovery.
type AttributeFilter struct {
	AcceptMissing bool
	Wanted        AttributeValue
}

// AgeRange is an inclusive [Min, Max] search bound.
type AgeRange struct {
	Min int32
	Max int32
}

// Valid reports whether the range satisfies the invariant
// search_age_range.min <= max.
func (r AgeRange) Valid() bool {
	return r.Min <= r.Max
}

// SearchGroupFlags is a bitflag set describing which demographic groups
// an account is willing to be shown / wants to see; opaque to the core.
type SearchGroupFlags uint32

// Profile is the public-facing and searchable record for an account.
type Profile struct {
	AccountID   AccountID
	Name        string
	Age         int32
	Text        string
	Attributes  map[AttributeID]AttributeValue
	Filters     map[AttributeID]AttributeFilter
	SearchAgeRange   AgeRange
	SearchGroupFlags SearchGroupFlags
	LastSeenTime     time.Time
	VersionUUID      string
	SyncVersion      uint64
	LocationKey      LocationKey
	IteratorSessionID string

	// NameModerationAccepted mirrors whether the current Name has passed
	// moderation. Changing Name resets this to false.
	NameModerationAccepted bool
}

// MinAge and MaxAge bound the valid age range for profiles.
const (
	MinAge = 18
	MaxAge = 99
)

// ValidAge reports whether age falls in [MinAge, MaxAge].
func ValidAge(age int32) bool {
	return age >= MinAge && age <= MaxAge
}

// ResetNameModeration clears the name-moderation decision; callers invoke
// this whenever Name is changed,.
func (p *Profile) SetName(name string) {
	if name != p.Name {
		p.NameModerationAccepted = false
	}
	p.Name = name
}
