// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package pushtoken

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// generateToken produces a base64-encoded 256-bit random token, long
// enough that a push-receiver app can treat it like a bearer credential
// for the one thing it is allowed to do: ask what notification it woke
// up for.
func generateToken() (string, error) {
	b := make([]byte, models.PendingNotificationTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("pushtoken: generate token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// SetDeviceToken registers account's current FCM device token and
// issues it a new pending-notification token, revoking whatever token
// was issued before. Re-registering (app reinstall, token rotation)
// always invalidates the previous pending-notification token.
func SetDeviceToken(ctx context.Context, p *writepipeline.Pipeline, tokens *TokenStore, account models.AccountID, fcmToken string, previousToken string) (string, error) {
	notificationToken, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := tokens.Revoke(ctx, previousToken); err != nil {
		return "", err
	}
	if err := tokens.Issue(ctx, account, notificationToken); err != nil {
		return "", err
	}
	_, err = writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.SetDeviceToken(ctx, store.Current, account, fcmToken)
	})
	if err != nil {
		return "", err
	}
	return notificationToken, nil
}

// RemoveDeviceToken stops account's device receiving pushes (e.g. on
// logout) without discarding its queued flags.
func RemoveDeviceToken(ctx context.Context, p *writepipeline.Pipeline, account models.AccountID) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.RemoveDeviceToken(ctx, store.Current, account)
	})
	return err
}

// RemoveDeviceTokenAndPendingToken clears the device registration and
// revokes the outstanding pending-notification token, used on full
// logout or account deletion.
func RemoveDeviceTokenAndPendingToken(ctx context.Context, p *writepipeline.Pipeline, tokens *TokenStore, account models.AccountID, notificationToken string) error {
	if err := tokens.Revoke(ctx, notificationToken); err != nil {
		return err
	}
	return RemoveDeviceToken(ctx, p, account)
}

// AddFlags queues one or more notification flags for account. Callers
// are the places a state change happens while the account might not be
// connected: chat.Send, the chat like/match path, moderation
// finalization, and news publication.
func AddFlags(ctx context.Context, p *writepipeline.Pipeline, account models.AccountID, flags models.NotificationFlags) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.AddNotificationFlags(ctx, store.Current, account, flags)
	})
	return err
}

// ResetPending clears account's pending flags without consuming a
// notification token, used once a live WebSocket connection has
// delivered the underlying state changes directly.
func ResetPending(ctx context.Context, p *writepipeline.Pipeline, account models.AccountID) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.ResetPendingNotification(ctx, store.Current, account)
	})
	return err
}

// GetAndReset resolves a pending-notification token to its owning
// account (one-shot: the token stops working the instant this
// succeeds) and drains that account's pending flags from the durable
// row in the same call. A push worker calls this exactly once per
// device wakeup.
func GetAndReset(ctx context.Context, p *writepipeline.Pipeline, tokens *TokenStore, notificationToken string) (models.AccountID, models.NotificationFlags, error) {
	account, found, err := tokens.Resolve(ctx, notificationToken)
	if err != nil {
		return 0, 0, err
	}
	if !found {
		return 0, 0, apperr.New(apperr.KindNotFound, "pushtoken.GetAndReset", fmt.Errorf("pending-notification token not found or already used"))
	}
	flags, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (models.NotificationFlags, error) {
		return storage.DrainNotificationFlags(ctx, store.Current, account)
	})
	if err != nil {
		return 0, 0, err
	}
	return account, flags, nil
}

// EnableSentFlag marks that a push has already been sent for account's
// current pending flags, so a retried send does not double-deliver.
func EnableSentFlag(ctx context.Context, p *writepipeline.Pipeline, account models.AccountID) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.EnablePushNotificationSentFlag(ctx, store.Current, account)
	})
	return err
}

// State reports account's current device token and pending flags, the
// decision inputs for whether and what to push.
func State(ctx context.Context, store *storage.Store, account models.AccountID) (storage.PushNotificationState, error) {
	return storage.GetPushNotificationState(ctx, store.Current, account)
}
