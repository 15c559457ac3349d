// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

var errNotMatched = errors.New("chat: accounts are not matched, or one side has blocked the other")

// Send delivers a message from sender to receiver. The pair must
// currently be Match; a Like or Block (in either direction) rejects
// the send. MessageNumber 0 is never assigned, so a fresh match's
// first message is number 1. A retried send carrying the same
// (clientID, clientLocalID) returns the already-stored message instead
// of inserting a duplicate.
func Send(ctx context.Context, p *writepipeline.Pipeline, sender, receiver models.AccountID, clientID string, clientLocalID int64, payload []byte) (models.PendingMessage, error) {
	return writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (models.PendingMessage, error) {
		if existing, ok, err := storage.FindPendingMessageByIdempotencyKey(ctx, store.Current, sender, clientID, clientLocalID); err != nil {
			return models.PendingMessage{}, err
		} else if ok {
			return existing, nil
		}

		i, err := storage.GetInteraction(ctx, store.Current, sender, receiver)
		if err != nil {
			return models.PendingMessage{}, err
		}
		if i.State.Kind != models.InteractionMatch {
			return models.PendingMessage{}, apperr.New(apperr.KindNotAllowed, "chat.Send", errNotMatched)
		}

		i.MessageCounter++
		if err := storage.UpsertInteraction(ctx, store.Current, i); err != nil {
			return models.PendingMessage{}, err
		}

		m := models.PendingMessage{
			Sender:              sender,
			Receiver:            receiver,
			MessageNumber:       i.MessageCounter,
			SenderClientID:      clientID,
			SenderClientLocalID: clientLocalID,
			Payload:             payload,
			SentAt:              time.Now().UTC(),
		}
		if err := storage.InsertPendingMessage(ctx, store.Current, m); err != nil {
			return models.PendingMessage{}, err
		}
		return m, nil
	})
}

// AckReceived flags messageNumbers as delivered-and-seen by receiver,
// deleting any message now acknowledged on both sides.
func AckReceived(ctx context.Context, p *writepipeline.Pipeline, receiver, sender models.AccountID, messageNumbers []uint64) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.AckReceiver(ctx, store.Current, receiver, sender, messageNumbers)
	})
	return err
}

// AckSent flags a message the caller sent, identified by its own
// client-assigned (clientID, clientLocalID) pair, as sender-acked,
// deleting it if the receiver has already acked too.
func AckSent(ctx context.Context, p *writepipeline.Pipeline, sender models.AccountID, clientID string, clientLocalID int64) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.AckSender(ctx, store.Current, sender, clientID, clientLocalID)
	})
	return err
}

// MarkViewed advances viewer's latest-viewed-message-number within its
// interaction with other up to number, clamped so it can never exceed
// the interaction's current message counter and never move backwards.
func MarkViewed(ctx context.Context, p *writepipeline.Pipeline, viewer, other models.AccountID, number uint64) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		i, err := storage.GetInteraction(ctx, store.Current, viewer, other)
		if err != nil {
			return struct{}{}, err
		}
		if number > i.MessageCounter {
			return struct{}{}, apperr.New(apperr.KindConstraintViolation, "chat.MarkViewed", errors.New("viewed message number exceeds interaction message counter"))
		}
		current := i.LatestViewedFor(viewer)
		if number <= current {
			return struct{}{}, nil
		}
		if viewer == i.Low {
			i.LatestViewedByLow = number
		} else {
			i.LatestViewedByHigh = number
		}
		return struct{}{}, storage.UpsertInteraction(ctx, store.Current, i)
	})
	return err
}

// Pending returns every message awaiting delivery or acknowledgement
// for receiver, oldest first.
func Pending(ctx context.Context, store *storage.Store, receiver models.AccountID) ([]models.PendingMessage, error) {
	return storage.PendingMessagesFor(ctx, store.Current, receiver)
}
