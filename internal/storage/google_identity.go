// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
)

// GetAccountByGoogleSubject looks up the account a Google identity was
// previously linked to, by Google's stable subject id. Returns
// apperr.KindNotFound if no account has signed in with this identity yet.
func GetAccountByGoogleSubject(ctx context.Context, db *sql.DB, subject string) (models.AccountID, error) {
	var accountID models.AccountID
	row := db.QueryRowContext(ctx, `SELECT account_id FROM google_identities WHERE google_subject = ?`, subject)
	if err := row.Scan(&accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.New(apperr.KindNotFound, "storage.GetAccountByGoogleSubject", err)
		}
		return 0, apperr.New(apperr.KindIo, "storage.GetAccountByGoogleSubject", err)
	}
	return accountID, nil
}

// CreateAccountForGoogleSubject provisions a fresh account for a Google
// identity seen for the first time, linking subject to it in the same
// transaction. The new account starts in InitialSetup state, matching
// CreateAccount.
func CreateAccountForGoogleSubject(ctx context.Context, db *sql.DB, subject, email string) (*models.Account, error) {
	acc := &models.Account{
		UUID:       uuid.New(),
		State:      models.AccountStateInitialSetup,
		Visibility: models.VisibilityPendingPrivate,
		CreatedAt:  time.Now().UTC(),
	}
	err := Transaction(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (uuid, state, permissions, visibility, created_at) VALUES (?, ?, ?, ?, ?)`,
			acc.UUID.String(), int(acc.State), uint32(acc.Permissions), int(acc.Visibility), acc.CreatedAt.Unix())
		if err != nil {
			return err
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		acc.ID = models.AccountID(newID)
		if _, err := tx.ExecContext(ctx, `INSERT INTO account_sync_versions (account_id) VALUES (?)`, acc.ID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO google_identities (google_subject, account_id, email, linked_at) VALUES (?, ?, ?, ?)`,
			subject, acc.ID, email, time.Now().UTC().Unix())
		return err
	})
	if err != nil {
		return nil, apperr.New(apperr.KindIo, "storage.CreateAccountForGoogleSubject", err)
	}
	return acc, nil
}
