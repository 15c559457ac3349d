// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// ensurePushNotificationRow makes sure account has a push_notification_state
// row so the UPDATEs below are never no-ops on an account that has never
// registered a device.
func ensurePushNotificationRow(ctx context.Context, db *sql.DB, account models.AccountID) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO push_notification_state (account_id) VALUES (?) ON CONFLICT(account_id) DO NOTHING`,
		account)
	return err
}

// SetDeviceToken records a Firebase Cloud Messaging device token for
// account. The pending-notification token a client uses to poll is
// managed separately (see pushtoken.TokenStore), not persisted here.
func SetDeviceToken(ctx context.Context, db *sql.DB, account models.AccountID, fcmToken string) error {
	if err := ensurePushNotificationRow(ctx, db, account); err != nil {
		return apperr.New(apperr.KindIo, "storage.SetDeviceToken", err)
	}
	_, err := db.ExecContext(ctx,
		`UPDATE push_notification_state SET fcm_device_token = ? WHERE account_id = ?`,
		fcmToken, account)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.SetDeviceToken", err)
	}
	return nil
}

// RemoveDeviceToken clears the FCM token, keeping any already-queued
// flags intact (a logout should stop the device receiving pushes
// without losing what it had not yet seen).
func RemoveDeviceToken(ctx context.Context, db *sql.DB, account models.AccountID) error {
	_, err := db.ExecContext(ctx,
		`UPDATE push_notification_state SET fcm_device_token = NULL WHERE account_id = ?`, account)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.RemoveDeviceToken", err)
	}
	return nil
}

// AddNotificationFlags ORs flags into account's pending set, so several
// events that arrive before the device is polled collapse into one push.
func AddNotificationFlags(ctx context.Context, db *sql.DB, account models.AccountID, flags models.NotificationFlags) error {
	if err := ensurePushNotificationRow(ctx, db, account); err != nil {
		return apperr.New(apperr.KindIo, "storage.AddNotificationFlags", err)
	}
	_, err := db.ExecContext(ctx,
		`UPDATE push_notification_state SET pending_notification_flags = pending_notification_flags | ?, push_notification_sent = 0 WHERE account_id = ?`,
		uint32(flags), account)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.AddNotificationFlags", err)
	}
	return nil
}

// ResetPendingNotification clears account's pending flags, used after a
// WebSocket connection has delivered the underlying state changes
// directly and a push is no longer needed, or after a push worker has
// drained them following a client poll.
func ResetPendingNotification(ctx context.Context, db *sql.DB, account models.AccountID) error {
	_, err := db.ExecContext(ctx,
		`UPDATE push_notification_state SET pending_notification_flags = 0 WHERE account_id = ?`, account)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.ResetPendingNotification", err)
	}
	return nil
}

// DrainNotificationFlags reads account's pending flags and clears them
// in the same transaction, so a push worker that has just resolved a
// pending-notification token to this account cannot race a concurrent
// WebSocket delivery clearing the same flags.
func DrainNotificationFlags(ctx context.Context, db *sql.DB, account models.AccountID) (models.NotificationFlags, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.DrainNotificationFlags", err)
	}
	defer tx.Rollback()

	var flags uint32
	err = tx.QueryRowContext(ctx,
		`SELECT pending_notification_flags FROM push_notification_state WHERE account_id = ?`, account).
		Scan(&flags)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.DrainNotificationFlags", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE push_notification_state SET pending_notification_flags = 0 WHERE account_id = ?`, account); err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.DrainNotificationFlags", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.DrainNotificationFlags", err)
	}
	return models.NotificationFlags(flags), nil
}

// EnablePushNotificationSentFlag marks that a push was already sent for
// account's current pending flags, so a retrying push worker does not
// send the same notification twice before the device polls it.
func EnablePushNotificationSentFlag(ctx context.Context, db *sql.DB, account models.AccountID) error {
	_, err := db.ExecContext(ctx,
		`UPDATE push_notification_state SET push_notification_sent = 1 WHERE account_id = ?`, account)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.EnablePushNotificationSentFlag", err)
	}
	return nil
}

// PushNotificationState is the row needed to decide whether and what to
// send to an account's registered device.
type PushNotificationState struct {
	FCMDeviceToken string
	PendingFlags   models.NotificationFlags
	AlreadySent    bool
	HasDeviceToken bool
}

// GetPushNotificationState reads account's current device token and
// pending flags for the push worker's send decision.
func GetPushNotificationState(ctx context.Context, db *sql.DB, account models.AccountID) (PushNotificationState, error) {
	var fcmToken sql.NullString
	var flags uint32
	var sent bool
	err := db.QueryRowContext(ctx,
		`SELECT fcm_device_token, pending_notification_flags, push_notification_sent
		 FROM push_notification_state WHERE account_id = ?`, account).
		Scan(&fcmToken, &flags, &sent)
	if errors.Is(err, sql.ErrNoRows) {
		return PushNotificationState{}, nil
	}
	if err != nil {
		return PushNotificationState{}, apperr.New(apperr.KindIo, "storage.GetPushNotificationState", err)
	}
	return PushNotificationState{
		FCMDeviceToken: fcmToken.String,
		PendingFlags:   models.NotificationFlags(flags),
		AlreadySent:    sent,
		HasDeviceToken: fcmToken.Valid,
	}, nil
}
