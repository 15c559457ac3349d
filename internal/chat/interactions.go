// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package chat

import (
	"context"
	"errors"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

var errBlocked = errors.New("chat: a block is in place between these accounts")

// Like records that liker wants to match with target. If target has
// already liked liker, the pair transitions straight to Match. A repeat
// like (already Like in the same direction, or already Match) is a
// no-op returning apperr.ErrAlreadyDone.
func Like(ctx context.Context, p *writepipeline.Pipeline, liker, target models.AccountID) (models.InteractionStateKind, error) {
	return writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (models.InteractionStateKind, error) {
		i, err := storage.GetInteraction(ctx, store.Current, liker, target)
		if err != nil {
			return 0, err
		}

		switch i.State.Kind {
		case models.InteractionEmpty:
			i.State = models.InteractionState{Kind: models.InteractionLike, Sender: liker}
			if err := storage.UpsertInteraction(ctx, store.Current, i); err != nil {
				return 0, err
			}
			if _, err := storage.BumpSync(ctx, store.Current, liker, "sent_likes"); err != nil {
				return 0, err
			}
			if _, err := storage.BumpSync(ctx, store.Current, target, "received_likes"); err != nil {
				return 0, err
			}
			return models.InteractionLike, nil

		case models.InteractionLike:
			if i.State.Sender == liker {
				return models.InteractionLike, apperr.ErrAlreadyDone
			}
			// The other side already liked us: this like completes a match.
			i.State = models.InteractionState{Kind: models.InteractionMatch}
			if err := storage.UpsertInteraction(ctx, store.Current, i); err != nil {
				return 0, err
			}
			if _, err := storage.BumpSync(ctx, store.Current, liker, "matches"); err != nil {
				return 0, err
			}
			if _, err := storage.BumpSync(ctx, store.Current, target, "matches"); err != nil {
				return 0, err
			}
			return models.InteractionMatch, nil

		case models.InteractionMatch:
			return models.InteractionMatch, apperr.ErrAlreadyDone

		default: // Block
			return i.State.Kind, apperr.New(apperr.KindNotAllowed, "chat.Like", errBlocked)
		}
	})
}

// Unlike withdraws a Like sent by account from target, returning the
// pair to Empty. It is a no-op unless account currently holds the
// outstanding Like (Match and Block are left untouched; use Block to
// leave a Match).
func Unlike(ctx context.Context, p *writepipeline.Pipeline, account, target models.AccountID) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		i, err := storage.GetInteraction(ctx, store.Current, account, target)
		if err != nil {
			return struct{}{}, err
		}
		if i.State.Kind != models.InteractionLike || i.State.Sender != account {
			return struct{}{}, apperr.ErrAlreadyDone
		}
		i.State = models.InteractionState{Kind: models.InteractionEmpty}
		if err := storage.UpsertInteraction(ctx, store.Current, i); err != nil {
			return struct{}{}, err
		}
		if _, err := storage.BumpSync(ctx, store.Current, account, "sent_likes"); err != nil {
			return struct{}{}, err
		}
		if _, err := storage.BumpSync(ctx, store.Current, target, "received_likes"); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return err
}

// Block records that blocker no longer wants to see or be contacted by
// target, from any prior state. Leaving a Like or Match also bumps the
// sync versions that relationship held, on both sides, so clients stop
// seeing a like/match that no longer exists. If target had already
// blocked blocker, the pair becomes a two-way block.
func Block(ctx context.Context, p *writepipeline.Pipeline, blocker, target models.AccountID) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		i, err := storage.GetInteraction(ctx, store.Current, blocker, target)
		if err != nil {
			return struct{}{}, err
		}

		prevKind := i.State.Kind
		prevSender := i.State.Sender
		twoWay := false
		if prevKind == models.InteractionBlock && prevSender != blocker {
			twoWay = true
		}

		i.State = models.InteractionState{Kind: models.InteractionBlock, Sender: blocker, TwoWayBlock: twoWay}
		if err := storage.UpsertInteraction(ctx, store.Current, i); err != nil {
			return struct{}{}, err
		}

		if _, err := storage.BumpSync(ctx, store.Current, blocker, "sent_blocks"); err != nil {
			return struct{}{}, err
		}
		if _, err := storage.BumpSync(ctx, store.Current, target, "received_blocks"); err != nil {
			return struct{}{}, err
		}

		switch prevKind {
		case models.InteractionLike:
			if _, err := storage.BumpSync(ctx, store.Current, prevSender, "sent_likes"); err != nil {
				return struct{}{}, err
			}
			other := blocker
			if prevSender == blocker {
				other = target
			}
			if _, err := storage.BumpSync(ctx, store.Current, other, "received_likes"); err != nil {
				return struct{}{}, err
			}
		case models.InteractionMatch:
			if _, err := storage.BumpSync(ctx, store.Current, blocker, "matches"); err != nil {
				return struct{}{}, err
			}
			if _, err := storage.BumpSync(ctx, store.Current, target, "matches"); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

// Unblock withdraws a block set by account against target, returning
// the pair to Empty (even if the other side also had it blocked — a
// two-way block fully clears on either side unblocking, matching the
// chat transition table's single Block->Empty arrow).
func Unblock(ctx context.Context, p *writepipeline.Pipeline, account, target models.AccountID) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		i, err := storage.GetInteraction(ctx, store.Current, account, target)
		if err != nil {
			return struct{}{}, err
		}
		if i.State.Kind != models.InteractionBlock || i.State.Sender != account {
			return struct{}{}, apperr.ErrAlreadyDone
		}
		i.State = models.InteractionState{Kind: models.InteractionEmpty}
		if err := storage.UpsertInteraction(ctx, store.Current, i); err != nil {
			return struct{}{}, err
		}
		if _, err := storage.BumpSync(ctx, store.Current, account, "sent_blocks"); err != nil {
			return struct{}{}, err
		}
		if _, err := storage.BumpSync(ctx, store.Current, target, "received_blocks"); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return err
}
