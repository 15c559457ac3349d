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

// RotateRefreshToken replaces account's refresh token with token,
// discarding whatever was issued before. One row per account: a
// refresh token is only ever valid against the connection that most
// recently presented it, so rotation is an upsert rather than an
// insert-and-keep-history.
func RotateRefreshToken(ctx context.Context, db *sql.DB, account models.AccountID, token string, issuedAt int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (account_id, token, issued_at) VALUES (?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET token = excluded.token, issued_at = excluded.issued_at`,
		account, token, issuedAt)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.RotateRefreshToken", err)
	}
	return nil
}

// FindAccountByRefreshToken looks up which account presented token, so
// the gateway can verify a connecting client before issuing a new one.
// Returns apperr.KindNotFound if token is unknown or has already been
// rotated away.
func FindAccountByRefreshToken(ctx context.Context, db *sql.DB, token string) (models.AccountID, error) {
	var account models.AccountID
	err := db.QueryRowContext(ctx,
		`SELECT account_id FROM refresh_tokens WHERE token = ?`, token).Scan(&account)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.New(apperr.KindNotFound, "storage.FindAccountByRefreshToken", errors.New("refresh token not found"))
	}
	if err != nil {
		return 0, apperr.New(apperr.KindIo, "storage.FindAccountByRefreshToken", err)
	}
	return account, nil
}

// DeleteRefreshToken invalidates account's refresh token so a reused
// or stolen token can no longer authenticate a new connection, used
// when a session is explicitly logged out.
func DeleteRefreshToken(ctx context.Context, db *sql.DB, account models.AccountID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE account_id = ?`, account)
	if err != nil {
		return apperr.New(apperr.KindIo, "storage.DeleteRefreshToken", err)
	}
	return nil
}
