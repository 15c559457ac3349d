// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package pushtoken

import (
	"context"
	"testing"
	"time"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/locationindex"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

func newTestPipeline(t *testing.T) *writepipeline.Pipeline {
	t.Helper()
	s, err := storage.Open(context.Background(), ":memory:", ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return writepipeline.New(s, accountcache.New(time.Minute), locationindex.NewManager(50, 50), 0)
}

func newTestTokenStore(t *testing.T) *TokenStore {
	t.Helper()
	ts, err := OpenTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenTokenStore: %v", err)
	}
	t.Cleanup(func() { ts.Close() })
	return ts
}

func seedAccount(t *testing.T, p *writepipeline.Pipeline, id models.AccountID) {
	t.Helper()
	if _, err := storage.CreateAccount(context.Background(), p.Store.Current, id); err != nil {
		t.Fatalf("CreateAccount(%d): %v", id, err)
	}
}

func TestSetDeviceTokenIssuesUsableNotificationToken(t *testing.T) {
	p := newTestPipeline(t)
	tokens := newTestTokenStore(t)
	ctx := context.Background()
	account := models.AccountID(1)
	seedAccount(t, p, account)

	token, err := SetDeviceToken(ctx, p, tokens, account, "fcm-token-1", "")
	if err != nil {
		t.Fatalf("SetDeviceToken: %v", err)
	}
	if len(token) == 0 {
		t.Fatal("expected non-empty notification token")
	}

	if err := AddFlags(ctx, p, account, models.NotificationFlags(0).Set(models.NotificationNewMessage)); err != nil {
		t.Fatalf("AddFlags: %v", err)
	}

	gotAccount, flags, err := GetAndReset(ctx, p, tokens, token)
	if err != nil {
		t.Fatalf("GetAndReset: %v", err)
	}
	if gotAccount != account {
		t.Fatalf("account = %d, want %d", gotAccount, account)
	}
	if !flags.Has(models.NotificationNewMessage) {
		t.Fatal("expected NotificationNewMessage flag set")
	}
}

func TestGetAndResetIsOneShot(t *testing.T) {
	p := newTestPipeline(t)
	tokens := newTestTokenStore(t)
	ctx := context.Background()
	account := models.AccountID(1)
	seedAccount(t, p, account)

	token, err := SetDeviceToken(ctx, p, tokens, account, "fcm-token-1", "")
	if err != nil {
		t.Fatalf("SetDeviceToken: %v", err)
	}
	if err := AddFlags(ctx, p, account, models.NotificationFlags(0).Set(models.NotificationNewsChanged)); err != nil {
		t.Fatalf("AddFlags: %v", err)
	}
	if _, _, err := GetAndReset(ctx, p, tokens, token); err != nil {
		t.Fatalf("GetAndReset: %v", err)
	}

	if _, _, err := GetAndReset(ctx, p, tokens, token); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected a used token to be rejected as not found, got %v", err)
	}
}

func TestSetDeviceTokenRevokesPreviousNotificationToken(t *testing.T) {
	p := newTestPipeline(t)
	tokens := newTestTokenStore(t)
	ctx := context.Background()
	account := models.AccountID(1)
	seedAccount(t, p, account)

	oldToken, err := SetDeviceToken(ctx, p, tokens, account, "fcm-token-1", "")
	if err != nil {
		t.Fatalf("SetDeviceToken: %v", err)
	}
	newToken, err := SetDeviceToken(ctx, p, tokens, account, "fcm-token-2", oldToken)
	if err != nil {
		t.Fatalf("SetDeviceToken (second): %v", err)
	}
	if oldToken == newToken {
		t.Fatal("expected a fresh notification token on re-registration")
	}

	if _, _, err := GetAndReset(ctx, p, tokens, oldToken); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected old notification token to be revoked, got %v", err)
	}
}

func TestRemoveDeviceTokenKeepsPendingFlags(t *testing.T) {
	p := newTestPipeline(t)
	tokens := newTestTokenStore(t)
	ctx := context.Background()
	account := models.AccountID(1)
	seedAccount(t, p, account)

	if _, err := SetDeviceToken(ctx, p, tokens, account, "fcm-token-1", ""); err != nil {
		t.Fatalf("SetDeviceToken: %v", err)
	}
	if err := AddFlags(ctx, p, account, models.NotificationFlags(0).Set(models.NotificationReceivedLikesChanged)); err != nil {
		t.Fatalf("AddFlags: %v", err)
	}
	if err := RemoveDeviceToken(ctx, p, account); err != nil {
		t.Fatalf("RemoveDeviceToken: %v", err)
	}

	state, err := State(ctx, p.Store, account)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.HasDeviceToken {
		t.Fatal("expected device token cleared")
	}
	if !state.PendingFlags.Has(models.NotificationReceivedLikesChanged) {
		t.Fatal("expected pending flags to survive device-token removal")
	}
}
