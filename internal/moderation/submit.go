// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"context"
	"errors"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

var errUnauthorizedWithdraw = errors.New("moderation: request belongs to a different account")

// SubmitContent records a newly uploaded content item and enqueues a
// moderation request for it. It runs on the content-upload concurrent
// lane: writing the raw bytes and creating the queue row is IO-bound
// work that must not block the serial write lane.
func SubmitContent(ctx context.Context, p *writepipeline.Pipeline, owner models.AccountID, queue models.QueueType, c models.Content) (contentID, requestID int64, err error) {
	tok, err := p.AcquireContentUpload(ctx, owner)
	if err != nil {
		return 0, 0, err
	}
	defer tok.Release()

	c.Owner = owner
	c.State = models.ContentInModeration
	contentID, err = storage.InsertContent(ctx, p.Store.Current, c)
	if err != nil {
		return 0, 0, err
	}
	requestID, err = storage.EnqueueModerationRequest(ctx, p.Store.Current, owner, queue, contentID, "")
	if err != nil {
		return 0, 0, err
	}
	return contentID, requestID, nil
}

// SubmitText enqueues a profile text or name for review. Queue must be
// QueueProfileText or QueueProfileName.
func SubmitText(ctx context.Context, p *writepipeline.Pipeline, owner models.AccountID, queue models.QueueType, text string) (int64, error) {
	tok, err := p.AcquireContentUpload(ctx, owner)
	if err != nil {
		return 0, err
	}
	defer tok.Release()
	return storage.EnqueueModerationRequest(ctx, p.Store.Current, owner, queue, 0, text)
}

// Withdraw deletes a request the owner submitted, as long as no
// moderator has started reviewing it yet.
func Withdraw(ctx context.Context, p *writepipeline.Pipeline, owner models.AccountID, requestID int64) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, _ *accountcache.Cache) (struct{}, error) {
		req, err := storage.GetModerationRequest(ctx, store.Current, requestID)
		if err != nil {
			return struct{}{}, err
		}
		if req.Owner != owner {
			return struct{}{}, apperr.New(apperr.KindNotAllowed, "moderation.Withdraw", errUnauthorizedWithdraw)
		}
		return struct{}{}, storage.DeleteWaitingRequest(ctx, store.Current, requestID)
	})
	return err
}
