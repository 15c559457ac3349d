// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

// ProfileIteratorPageSize is the minimum number of profiles a paging call
// returns per invocation, by repeating the iterator until the page fills
// or iteration completes.
const ProfileIteratorPageSize = 25

// RingDirection is the cursor's current direction of travel while
// traversing one ring of the expanding-ring iterator.
type RingDirection int

const (
	RingDown RingDirection = iota
	RingLeft
	RingUp
	RingRight
)

// Area bounds the region of the matrix the iterator is allowed to visit.
// Cells outside Area are treated as empty.
type Area struct {
	TopLeft     LocationKey
	BottomRight LocationKey
}

// Contains reports whether k falls within the area (inclusive).
func (a Area) Contains(k LocationKey) bool {
	return k.X >= a.TopLeft.X && k.X <= a.BottomRight.X &&
		k.Y >= a.TopLeft.Y && k.Y <= a.BottomRight.Y
}

// Corner bits for IteratorState.VisitedCorners: set once the cursor has
// reached that extreme corner of Area during the expansion.
const (
	CornerTopLeft uint8 = 1 << iota
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
	CornerAllVisited = CornerTopLeft | CornerTopRight | CornerBottomLeft | CornerBottomRight
)

// IterPos is a cursor position in the expanding-ring walk. Unlike
// LocationKey it is signed and unbounded: as a ring grows past one edge
// of Area while still expanding to cover another, the cursor legitimately
// holds coordinates outside the physical matrix until the opposite edge
// catches up.
type IterPos struct {
	X, Y int32
}

// IteratorState is the per-session cursor over the location index.
// It is cached in the account cache
// entry between paging calls. Start is the fixed ring center chosen when
// the session began; IterInit is the position the current ring started
// its walk from (used to detect when a ring has come full circle).
type IteratorState struct {
	Area           Area
	Start          LocationKey
	Cursor         IterPos
	IterInit       IterPos
	Ring           int32
	Direction      RingDirection
	VisitedCorners uint8
	Completed      bool
	SessionID      string
}
