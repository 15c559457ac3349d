// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package news

import (
	"context"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// Create starts a new private (unpublished) news item.
func Create(ctx context.Context, p *writepipeline.Pipeline) (int64, error) {
	return writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (int64, error) {
		return storage.CreateNews(ctx, store.Current)
	})
}

// SetTranslation writes one locale's title/body for a news item,
// usable both before and after publication.
func SetTranslation(ctx context.Context, p *writepipeline.Pipeline, newsID int64, tr models.NewsTranslation) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.UpsertNewsTranslation(ctx, store.Current, newsID, tr)
	})
	return err
}

// Publish assigns newsID a publication id, making it visible to Page
// for every account. Publishing an already-published item is a no-op.
func Publish(ctx context.Context, p *writepipeline.Pipeline, newsID int64) error {
	_, err := writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.PublishNews(ctx, store.Current, newsID)
	})
	return err
}

// Item loads a single news item by id, preferring locale and falling
// back to English. If requireLocale is set and no translation exists in
// exactly that locale, it reports not-found rather than substituting
// English.
func Item(ctx context.Context, store *storage.Store, newsID int64, locale string, requireLocale bool) (models.NewsItem, bool, error) {
	return storage.GetNewsItem(ctx, store.Current, newsID, locale, requireLocale)
}

// Page returns one page of news for an account: page 0 prepends every
// private item, followed by public items with publication_id <= anchor
// ordered newest first, models.NewsPageSize per page. newCount is how
// many of the returned public items are "new" — published after the
// account's last iterator reset.
func Page(ctx context.Context, store *storage.Store, account models.AccountID, anchor int64, page int64, locale string) (items []models.NewsItem, newCount int64, err error) {
	resetAt, _, err := storage.GetNewsIteratorResetPoint(ctx, store.Current, account)
	if err != nil {
		return nil, 0, err
	}

	if page == 0 {
		private, err := storage.PrivateNews(ctx, store.Current, locale)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, private...)
	}

	public, err := storage.PagedNews(ctx, store.Current, anchor, page, locale)
	if err != nil {
		return nil, 0, err
	}
	for _, it := range public {
		if it.PublicationID != nil && *it.PublicationID > resetAt {
			newCount++
		}
	}
	items = append(items, public...)
	return items, newCount, nil
}

// ResetIterator marks every currently-published item as seen for
// account, zeroing its unread count until the next publication. It
// returns the publication id the reset settled on.
func ResetIterator(ctx context.Context, p *writepipeline.Pipeline, account models.AccountID) (int64, error) {
	return writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (int64, error) {
		latest, err := storage.LatestPublicationID(ctx, store.Current)
		if err != nil {
			return 0, err
		}
		if err := storage.SetNewsIteratorResetPoint(ctx, store.Current, account, latest, 0); err != nil {
			return 0, err
		}
		if _, err := storage.BumpSync(ctx, store.Current, account, "news"); err != nil {
			return 0, err
		}
		return latest, nil
	})
}

// UnreadCount returns how many published items account has not yet
// seen (publication_id greater than its reset marker), refreshing the
// cached account_sync_versions.unread_news_count column as a
// side-effect so other read paths (e.g. account-state responses) can
// read it without recomputing.
func UnreadCount(ctx context.Context, p *writepipeline.Pipeline, account models.AccountID) (int64, error) {
	return writepipeline.Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (int64, error) {
		resetAt, _, err := storage.GetNewsIteratorResetPoint(ctx, store.Current, account)
		if err != nil {
			return 0, err
		}
		n, err := storage.CountNewPublicNews(ctx, store.Current, resetAt)
		if err != nil {
			return 0, err
		}
		if err := storage.SetUnreadNewsCount(ctx, store.Current, account, n); err != nil {
			return 0, err
		}
		return n, nil
	})
}
