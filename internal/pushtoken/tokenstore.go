// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package pushtoken

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/nearline-social/nearline/internal/models"
)

// tokenTTL bounds how long an issued pending-notification token stays
// redeemable. A device that never wakes up to drain it loses nothing:
// AddFlags keeps mirroring state into the durable SQL row regardless,
// and the next SetDeviceToken call issues a fresh token anyway.
const tokenTTL = 7 * 24 * time.Hour

// TokenStore maps a pending-notification token to the account that
// issued it, backed by BadgerDB for its native per-key TTL: an expired
// token simply stops existing, with no reaper goroutine required.
type TokenStore struct {
	db *badger.DB
}

// OpenTokenStore opens (creating if needed) a BadgerDB instance rooted
// at dir.
func OpenTokenStore(dir string) (*TokenStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("pushtoken: open token store: %w", err)
	}
	return &TokenStore{db: db}, nil
}

// Close releases the underlying BadgerDB files.
func (s *TokenStore) Close() error {
	return s.db.Close()
}

// Issue records that token resolves to account until it expires or is
// redeemed, whichever happens first.
func (s *TokenStore) Issue(ctx context.Context, account models.AccountID, token string) error {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, uint64(account))
	entry := badger.NewEntry([]byte(token), value).WithTTL(tokenTTL)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("pushtoken: issue token: %w", err)
	}
	return nil
}

// Resolve looks account up by token and deletes the mapping in the
// same transaction, so a token grants exactly one drain even if a
// device wakes from the same silent push twice.
func (s *TokenStore) Resolve(ctx context.Context, token string) (models.AccountID, bool, error) {
	var account models.AccountID
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		account = models.AccountID(binary.BigEndian.Uint64(value))
		found = true
		return txn.Delete([]byte(token))
	})
	if err != nil {
		return 0, false, fmt.Errorf("pushtoken: resolve token: %w", err)
	}
	return account, found, nil
}

// RunGC reclaims value-log space left behind by expired and deleted
// tokens. BadgerDB never does this on its own; it must be called
// periodically or the log grows unbounded even though the keys it
// held have long since vanished.
func (s *TokenStore) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Revoke deletes token before it expires, used when a device
// re-registers and the previous token must stop working immediately.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("pushtoken: revoke token: %w", err)
	}
	return nil
}
