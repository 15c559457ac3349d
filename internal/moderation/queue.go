// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
)

// Checkout hands moderatorID up to k Waiting entries from queue,
// transitioning each to InProgress. If the moderator already holds k
// or more InProgress entries in this queue, those are returned
// unchanged rather than claiming new ones — repeating a checkout call
// is idempotent.
func Checkout(ctx context.Context, db *sql.DB, queue models.QueueType, moderatorID models.AccountID, k int) ([]models.ModerationRequest, error) {
	held, err := storage.ListInProgressForModerator(ctx, db, queue, moderatorID, k)
	if err != nil {
		return nil, err
	}
	if len(held) >= k {
		return held[:k], nil
	}

	out := held
	for len(out) < k {
		req, err := storage.CheckoutNextWaiting(ctx, db, queue, moderatorID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				break
			}
			return nil, err
		}
		out = append(out, *req)
	}
	return out, nil
}

// ErrNotInProgress is returned when a caller tries to resolve a request
// that this moderator does not currently hold.
var ErrNotInProgress = errors.New("moderation: request is not in progress for this moderator")
