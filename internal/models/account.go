// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package models holds the domain types shared by the storage, location
// index, write pipeline, moderation, chat, session, and news packages.
package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountID is the dense, server-internal identity for an account. It is
// never exposed over the wire; the external UUID is.
type AccountID int64

// AccountState is the lifecycle state of an account.
type AccountState int

const (
	AccountStateInitialSetup AccountState = iota
	AccountStateNormal
	AccountStateBanned
	AccountStatePendingDeletion
)

func (s AccountState) String() string {
	switch s {
	case AccountStateInitialSetup:
		return "initial_setup"
	case AccountStateNormal:
		return "normal"
	case AccountStateBanned:
		return "banned"
	case AccountStatePendingDeletion:
		return "pending_deletion"
	default:
		return "unknown"
	}
}

// Visibility controls whether a profile renders in the location index.
type Visibility int

const (
	VisibilityPendingPrivate Visibility = iota
	VisibilityPendingPublic
	VisibilityPrivate
	VisibilityPublic
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPendingPrivate:
		return "pending_private"
	case VisibilityPendingPublic:
		return "pending_public"
	case VisibilityPrivate:
		return "private"
	case VisibilityPublic:
		return "public"
	default:
		return "unknown"
	}
}

// RendersInIndex reports whether an account with this state+visibility
// combination should have its profile flagged in the location index.
//
// Invariant: state = Normal is the only state whose Public
// visibility renders the profile in the index.
func RendersInIndex(state AccountState, vis Visibility) bool {
	return state == AccountStateNormal && vis == VisibilityPublic
}

// Permission is a single bit in the account permission set.
type Permission uint32

const (
	PermissionAdminModerateMedia Permission = 1 << iota
	PermissionAdminViewAllProfiles
	PermissionAdminModifyPermissions
)

// Permissions is a bitflag set of Permission values.
type Permissions uint32

// Has reports whether all bits of p are set.
func (perms Permissions) Has(p Permission) bool {
	return Permissions(p)&perms == Permissions(p)
}

// Set returns perms with p added.
func (perms Permissions) Set(p Permission) Permissions {
	return perms | Permissions(p)
}

// Clear returns perms with p removed.
func (perms Permissions) Clear(p Permission) Permissions {
	return perms &^ Permissions(p)
}

// SyncVersions tracks the per-data-type monotone counters used by the
// session/sync layer to detect client staleness.
type SyncVersions struct {
	Account     uint64
	Profile     uint64
	News        uint64
	Content     uint64
	SentLikes   uint64
	ReceivedLikes uint64
	Matches     uint64
	SentBlocks  uint64
	ReceivedBlocks uint64
}

// Account is the identity and lifecycle record for a user.
type Account struct {
	ID          AccountID
	UUID        uuid.UUID
	State       AccountState
	Permissions Permissions
	Visibility  Visibility
	Sync        SyncVersions
	CreatedAt   time.Time
}
