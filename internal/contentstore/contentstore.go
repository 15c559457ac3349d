// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package contentstore holds the raw bytes of uploaded profile media on
// disk, keyed by the account that owns them and the content row their
// metadata lives under in internal/storage. The database never holds the
// blob itself, matching the retrieved Rust source's split between a
// content row and a file under its per-account media directory.
package contentstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
)

// Store writes and reads content blobs under a root directory, one file
// per content item at <root>/<account_id>/<content_id>.
type Store struct {
	root string
}

// New builds a Store rooted at dir, creating it if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, apperr.New(apperr.KindIo, "contentstore.New", err)
	}
	return &Store{root: dir}, nil
}

func (s *Store) path(owner models.AccountID, contentID int64) string {
	return filepath.Join(s.root, fmt.Sprintf("%d", owner), fmt.Sprintf("%d", contentID))
}

// Save writes data for contentID under owner's directory, creating the
// directory on first upload.
func (s *Store) Save(owner models.AccountID, contentID int64, data []byte) error {
	dir := filepath.Join(s.root, fmt.Sprintf("%d", owner))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return apperr.New(apperr.KindIo, "contentstore.Save", err)
	}
	if err := os.WriteFile(s.path(owner, contentID), data, 0o640); err != nil {
		return apperr.New(apperr.KindIo, "contentstore.Save", err)
	}
	return nil
}

// Load reads back the bytes saved for contentID.
func (s *Store) Load(owner models.AccountID, contentID int64) ([]byte, error) {
	data, err := os.ReadFile(s.path(owner, contentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.KindNotFound, "contentstore.Load", err)
		}
		return nil, apperr.New(apperr.KindIo, "contentstore.Load", err)
	}
	return data, nil
}

// Delete removes the blob for contentID, if one exists. Deleting a blob
// that was never saved is not an error.
func (s *Store) Delete(owner models.AccountID, contentID int64) error {
	if err := os.Remove(s.path(owner, contentID)); err != nil && !os.IsNotExist(err) {
		return apperr.New(apperr.KindIo, "contentstore.Delete", err)
	}
	return nil
}

// ModerationFetcher adapts a Store into moderation.ContentFetcher, which
// only carries a content id: it resolves the owning account from the
// content row before reading the blob.
type ModerationFetcher struct {
	Store *Store
	DB    *sql.DB
}

// FetchContent implements moderation.ContentFetcher.
func (f ModerationFetcher) FetchContent(ctx context.Context, contentID int64) ([]byte, error) {
	content, err := storage.GetContent(ctx, f.DB, contentID)
	if err != nil {
		return nil, err
	}
	return f.Store.Load(content.Owner, contentID)
}
