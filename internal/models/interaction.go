// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

// InteractionStateKind is the coarse state of the pairwise relationship
// state machine.
type InteractionStateKind int

const (
	InteractionEmpty InteractionStateKind = iota
	InteractionLike
	InteractionMatch
	InteractionBlock
)

// InteractionState is the full state of a canonicalized (A, B) pair.
// For Like and Block it also records direction; Block additionally
// tracks whether both sides have blocked ("two-way").
type InteractionState struct {
	Kind InteractionStateKind

	// Sender is populated for Like and the initiating side of Block.
	Sender AccountID

	// TwoWayBlock is set once the non-initiating side of a Block also
	// blocks ("Block(X→Y, maybe two-way)").
	TwoWayBlock bool
}

func (k InteractionStateKind) String() string {
	switch k {
	case InteractionEmpty:
		return "empty"
	case InteractionLike:
		return "like"
	case InteractionMatch:
		return "match"
	case InteractionBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Interaction is the full per-pair record keyed by the canonical
// (min(A,B), max(A,B)) ordering.
type Interaction struct {
	Low  AccountID
	High AccountID

	State InteractionState

	MessageCounter uint64

	// LatestViewedByLow/High is the "latest viewed message number" for
	// each side; 0 means "none viewed" since message numbers start at 1.
	LatestViewedByLow  uint64
	LatestViewedByHigh uint64
}

// CanonicalPair returns (low, high) = (min(a,b), max(a,b)).
func CanonicalPair(a, b AccountID) (AccountID, AccountID) {
	if a <= b {
		return a, b
	}
	return b, a
}

// LatestViewedFor returns the "latest viewed message number" tracked for
// account id within this interaction. id must be one of Low or High.
func (i Interaction) LatestViewedFor(id AccountID) uint64 {
	if id == i.Low {
		return i.LatestViewedByLow
	}
	return i.LatestViewedByHigh
}
