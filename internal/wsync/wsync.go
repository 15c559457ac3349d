// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package wsync decides what a connected client is missing, given the
// server's current per-account sync versions and the versions the
// client last saw. It holds no socket, no database handle and no
// clock: every decision is a pure function of two version numbers, so
// the reconciliation logic is testable without a running gateway.
package wsync

import "github.com/nearline-social/nearline/internal/models"

// DataType identifies one of the monotone counters in
// models.SyncVersions that a client tracks independently.
type DataType int

const (
	DataTypeAccount DataType = iota
	DataTypeProfile
	DataTypeNews
	DataTypeContent
	DataTypeSentLikes
	DataTypeReceivedLikes
	DataTypeMatches
	DataTypeSentBlocks
	DataTypeReceivedBlocks
)

// String names a DataType for logging and test failure messages.
func (d DataType) String() string {
	switch d {
	case DataTypeAccount:
		return "account"
	case DataTypeProfile:
		return "profile"
	case DataTypeNews:
		return "news"
	case DataTypeContent:
		return "content"
	case DataTypeSentLikes:
		return "sent_likes"
	case DataTypeReceivedLikes:
		return "received_likes"
	case DataTypeMatches:
		return "matches"
	case DataTypeSentBlocks:
		return "sent_blocks"
	case DataTypeReceivedBlocks:
		return "received_blocks"
	default:
		return "unknown"
	}
}

// allDataTypes lists every DataType in the fixed order a full
// reconciliation pass evaluates them. Account is evaluated last: its
// sync-version-changed event is the trailer that tells a client every
// other event in this pass has already been delivered.
var allDataTypes = []DataType{
	DataTypeProfile,
	DataTypeNews,
	DataTypeContent,
	DataTypeSentLikes,
	DataTypeReceivedLikes,
	DataTypeMatches,
	DataTypeSentBlocks,
	DataTypeReceivedBlocks,
	DataTypeAccount,
}

// Decision is the outcome of comparing a client's last-seen version
// for one data type against the server's current version.
type Decision int

const (
	// DoNothing means the client is already current for this data type.
	DoNothing Decision = iota
	// Sync means the client is behind and should receive the data and
	// the server's current version number for it.
	Sync
	// ResetVersionAndSync means the client's version is ahead of or
	// equal to a server counter that has since been reset to zero (an
	// account reused after a wipe, or a counter overflow), so the
	// client must be resynced from scratch and given the reset version.
	ResetVersionAndSync
)

// CheckSyncRequired compares one counter pair and returns the action a
// client needs for that data type. A client version strictly less
// than the server version needs a normal sync. A client version that
// is greater than or equal to the server version is only possible if
// the server's counter was reset out from under an up-to-date client,
// so the client is resynced and realigned to the (lower) server value.
func CheckSyncRequired(serverVersion, clientVersion uint64) Decision {
	switch {
	case clientVersion < serverVersion:
		return Sync
	case clientVersion > serverVersion:
		return ResetVersionAndSync
	default:
		return DoNothing
	}
}

// ClientVersion is one data type's last-seen version number as
// reported by a connecting client.
type ClientVersion struct {
	Type    DataType
	Version uint64
}

// Step is one data type's reconciliation outcome: what to do, and the
// version number the client should be told it is now at.
type Step struct {
	Type       DataType
	Decision   Decision
	NewVersion uint64
}

// serverVersion reads the counter for dt out of a SyncVersions value.
func serverVersion(server models.SyncVersions, dt DataType) uint64 {
	switch dt {
	case DataTypeAccount:
		return server.Account
	case DataTypeProfile:
		return server.Profile
	case DataTypeNews:
		return server.News
	case DataTypeContent:
		return server.Content
	case DataTypeSentLikes:
		return server.SentLikes
	case DataTypeReceivedLikes:
		return server.ReceivedLikes
	case DataTypeMatches:
		return server.Matches
	case DataTypeSentBlocks:
		return server.SentBlocks
	case DataTypeReceivedBlocks:
		return server.ReceivedBlocks
	default:
		return 0
	}
}

// Reconcile compares server's current sync versions against every
// version the client reported and returns the ordered list of steps
// needed to bring the client current. Data types the client did not
// report are treated as client version 0, so a client that has never
// seen a data type is always told to sync it (unless the server is
// also still at zero).
//
// The returned slice is always in allDataTypes order, which places
// DataTypeAccount last. A caller that emits one event per non-DoNothing
// step and stops after the account step has satisfied the ordering
// rule: whatever account-state, permissions or visibility events
// precede it, the account sync-version-changed event is always the
// final thing a client receives for a reconciliation pass, so the
// client can treat its arrival as "you are now fully caught up".
func Reconcile(server models.SyncVersions, client []ClientVersion) []Step {
	seen := make(map[DataType]uint64, len(client))
	for _, cv := range client {
		seen[cv.Type] = cv.Version
	}

	steps := make([]Step, 0, len(allDataTypes))
	for _, dt := range allDataTypes {
		sv := serverVersion(server, dt)
		cv := seen[dt]
		decision := CheckSyncRequired(sv, cv)
		if decision == DoNothing {
			continue
		}
		steps = append(steps, Step{Type: dt, Decision: decision, NewVersion: sv})
	}
	return steps
}
