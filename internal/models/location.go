// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

// LocationKey is a cell coordinate in the fixed WIDTH x HEIGHT location
// matrix. The mapping from geographic (lat, lon) to a key is a
// narrow external collaborator (tile_map config) — the core only ever
// operates on the resulting (x, y) pair.
type LocationKey struct {
	X uint16
	Y uint16
}

// Border returns the clamped opposite-border key along a given axis
// direction, used to seed skip pointers for empty cells.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// LocationCellView is a consistent-per-field snapshot of one matrix cell,
// as returned by the lock-free reader path.
type LocationCellView struct {
	HasProfiles bool
	NextUp      uint16
	NextDown    uint16
	NextLeft    uint16
	NextRight   uint16
}

// ProfileLink is the lightweight payload stored per populated cell,
// enough for the iterator's filter predicate to decide inclusion without
// a round trip through storage for every candidate.
type ProfileLink struct {
	AccountID AccountID
	Age       int32
	LastSeen  int64 // unix seconds
}
