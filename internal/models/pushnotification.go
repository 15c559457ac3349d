// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

// NotificationFlag is a single bit in the pending-push-notification
// bitflag row.
type NotificationFlag uint32

const (
	NotificationNewMessage NotificationFlag = 1 << iota
	NotificationReceivedLikesChanged
	NotificationContentModerationCompleted
	NotificationNewsChanged
)

// NotificationFlags is the bitflag set pending delivery for one account.
type NotificationFlags uint32

// Set returns flags with f added.
func (flags NotificationFlags) Set(f NotificationFlag) NotificationFlags {
	return flags | NotificationFlags(f)
}

// Has reports whether f is set.
func (flags NotificationFlags) Has(f NotificationFlag) bool {
	return NotificationFlags(f)&flags == NotificationFlags(f)
}

// Empty reports whether no flags are pending.
func (flags NotificationFlags) Empty() bool {
	return flags == 0
}

// PendingNotificationTokenLength is the decoded byte length backing the
// 44-char base64 token (256 bits).
const PendingNotificationTokenLength = 32
