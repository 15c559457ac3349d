// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

import "testing"

func TestRendersInIndex(t *testing.T) {
	cases := []struct {
		state AccountState
		vis   Visibility
		want  bool
	}{
		{AccountStateNormal, VisibilityPublic, true},
		{AccountStateNormal, VisibilityPrivate, false},
		{AccountStateBanned, VisibilityPublic, false},
		{AccountStatePendingDeletion, VisibilityPublic, false},
	}
	for _, c := range cases {
		if got := RendersInIndex(c.state, c.vis); got != c.want {
			t.Errorf("RendersInIndex(%v, %v) = %v, want %v", c.state, c.vis, got, c.want)
		}
	}
}

func TestCanonicalPair(t *testing.T) {
	lo, hi := CanonicalPair(5, 2)
	if lo != 2 || hi != 5 {
		t.Errorf("CanonicalPair(5, 2) = (%d, %d), want (2, 5)", lo, hi)
	}
	lo, hi = CanonicalPair(2, 5)
	if lo != 2 || hi != 5 {
		t.Errorf("CanonicalPair(2, 5) = (%d, %d), want (2, 5)", lo, hi)
	}
}

func TestAgeRangeValid(t *testing.T) {
	if !(AgeRange{Min: 20, Max: 30}).Valid() {
		t.Error("expected 20..30 to be valid")
	}
	if (AgeRange{Min: 31, Max: 30}).Valid() {
		t.Error("expected 31..30 to be invalid")
	}
}

func TestValidAge(t *testing.T) {
	if ValidAge(17) || ValidAge(100) {
		t.Error("age bounds should be [18, 99]")
	}
	if !ValidAge(18) || !ValidAge(99) {
		t.Error("boundary ages should be valid")
	}
}

func TestPermissions(t *testing.T) {
	var p Permissions
	p = p.Set(PermissionAdminModerateMedia)
	if !p.Has(PermissionAdminModerateMedia) {
		t.Error("expected permission to be set")
	}
	if p.Has(PermissionAdminViewAllProfiles) {
		t.Error("did not expect unrelated permission to be set")
	}
	p = p.Clear(PermissionAdminModerateMedia)
	if p.Has(PermissionAdminModerateMedia) {
		t.Error("expected permission to be cleared")
	}
}

func TestPendingMessageAcked(t *testing.T) {
	m := PendingMessage{SenderAck: true}
	if m.Acked() {
		t.Error("should not be acked with only sender ack")
	}
	m.ReceiverAck = true
	if !m.Acked() {
		t.Error("should be acked with both acks")
	}
}
