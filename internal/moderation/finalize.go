// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"context"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// EventPublisher delivers the CONTENT_MODERATION_REQUEST_COMPLETED
// notification (and the visibility-changed follow-up, where
// applicable) to the request owner. A concrete implementation is
// wired once the event bus exists; tests may use a stub.
type EventPublisher interface {
	PublishModerationCompleted(ctx context.Context, owner models.AccountID, queue models.QueueType, accepted bool) error
	PublishVisibilityChanged(ctx context.Context, owner models.AccountID, vis models.Visibility) error
}

// Resolve finalizes a moderator's decision on an InProgress request
// bound to moderatorID: it records accept/reject, and when accepting
// initial media it atomically flips the owner's pending visibility to
// its settled counterpart, keeping the location index in step.
func Resolve(ctx context.Context, p *writepipeline.Pipeline, events EventPublisher, requestID int64, moderatorID models.AccountID, accept bool, category models.RejectionCategory, details string) error {
	type outcome struct {
		owner      models.AccountID
		queue      models.QueueType
		newVisible *models.Visibility
	}

	result, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (outcome, error) {
		req, err := storage.GetModerationRequest(ctx, store.Current, requestID)
		if err != nil {
			return outcome{}, err
		}
		if req.State != models.RequestInProgress || req.ModeratorID != moderatorID {
			return outcome{}, apperr.New(apperr.KindNotAllowed, "moderation.Resolve", ErrNotInProgress)
		}

		newState := models.RequestRejected
		if accept {
			newState = models.RequestAccepted
		}
		if err := storage.ResolveModerationRequest(ctx, store, requestID, newState, category, details); err != nil {
			return outcome{}, err
		}

		out := outcome{owner: req.Owner, queue: req.QueueType}

		switch req.QueueType {
		case models.QueueInitialMedia, models.QueueMedia:
			contentState := models.ContentRejected
			if accept {
				contentState = models.ContentAccepted
			}
			if err := storage.SetContentState(ctx, store.Current, req.ContentID, contentState); err != nil {
				return outcome{}, err
			}

		case models.QueueProfileName:
			if accept {
				profile, err := storage.GetProfile(ctx, store.Current, req.Owner)
				if err != nil {
					return outcome{}, err
				}
				profile.NameModerationAccepted = true
				if err := storage.UpsertProfile(ctx, store.Current, profile); err != nil {
					return outcome{}, err
				}
				cache.WithLock(req.Owner, func(e accountcache.Entry) accountcache.Entry {
					e.Profile = *profile
					return e
				})
			}
		}

		if accept && req.QueueType == models.QueueInitialMedia {
			acc, err := storage.GetAccount(ctx, store.Current, req.Owner)
			if err != nil {
				return outcome{}, err
			}
			profile, err := storage.GetProfile(ctx, store.Current, req.Owner)
			if err != nil {
				return outcome{}, err
			}

			var newVis *models.Visibility
			switch acc.Visibility {
			case models.VisibilityPendingPublic:
				v := models.VisibilityPublic
				newVis = &v
			case models.VisibilityPendingPrivate:
				v := models.VisibilityPrivate
				newVis = &v
			}
			if newVis != nil {
				wasRendering := models.RendersInIndex(acc.State, acc.Visibility)
				if err := storage.SetVisibility(ctx, store.Current, req.Owner, *newVis); err != nil {
					return outcome{}, err
				}
				acc.Visibility = *newVis
				nowRendering := models.RendersInIndex(acc.State, acc.Visibility)

				cache.WithLock(req.Owner, func(e accountcache.Entry) accountcache.Entry {
					e.Account = *acc
					return e
				})

				switch {
				case !wasRendering && nowRendering:
					p.Locations.Matrix().AddLink(profile.LocationKey, models.ProfileLink{
						AccountID: req.Owner,
						Age:       profile.Age,
						LastSeen:  profile.LastSeenTime.Unix(),
					})
				case wasRendering && !nowRendering:
					p.Locations.Matrix().RemoveLink(profile.LocationKey, req.Owner)
				}
				out.newVisible = newVis
			}
		}

		return out, nil
	})
	if err != nil {
		return err
	}

	if events == nil {
		return nil
	}
	if err := events.PublishModerationCompleted(ctx, result.owner, result.queue, accept); err != nil {
		return err
	}
	if result.newVisible != nil {
		return events.PublishVisibilityChanged(ctx, result.owner, *result.newVisible)
	}
	return nil
}
