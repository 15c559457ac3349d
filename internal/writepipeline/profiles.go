// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package writepipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/locationindex"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
)

// UpdateProfile replaces an account's name, age, and bio text in one
// serialized write, refreshing the cache entry. Changing name clears
// name moderation, matching Profile.SetName's invariant.
func UpdateProfile(ctx context.Context, p *Pipeline, account models.AccountID, name string, age int32, text string) (*models.Profile, error) {
	return Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (*models.Profile, error) {
		profile, err := storage.GetProfile(ctx, store.Current, account)
		if err != nil {
			return nil, err
		}
		profile.SetName(name)
		profile.Age = age
		profile.Text = text
		if err := storage.UpsertProfile(ctx, store.Current, profile); err != nil {
			return nil, err
		}
		cache.WithLock(account, func(e accountcache.Entry) accountcache.Entry {
			e.Profile = *profile
			return e
		})
		return profile, nil
	})
}

// SetSearchAgeRange sets the candidate age window discovery filters
// against, refreshing the cache entry in the same write.
func SetSearchAgeRange(ctx context.Context, p *Pipeline, account models.AccountID, ageRange models.AgeRange) (*models.Profile, error) {
	return Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (*models.Profile, error) {
		profile, err := storage.GetProfile(ctx, store.Current, account)
		if err != nil {
			return nil, err
		}
		profile.SearchAgeRange = ageRange
		if err := storage.UpsertProfile(ctx, store.Current, profile); err != nil {
			return nil, err
		}
		cache.WithLock(account, func(e accountcache.Entry) accountcache.Entry {
			e.Profile = *profile
			return e
		})
		return profile, nil
	})
}

// FilterFunc decides whether a candidate profile link belongs in a page:
// age, distance, attribute, last-seen, and block checks all compose into
// one of these before a call to NextProfiles.
type FilterFunc func(models.ProfileLink) bool

// ResetIterator starts a fresh discovery session for account over area,
// centered on start, and stores its cursor in the account cache. The
// returned session id is what the client must echo on every subsequent
// NextProfiles call; a mismatch means the client is stale and must reset
// again.
func ResetIterator(ctx context.Context, p *Pipeline, account models.AccountID, area models.Area, start models.LocationKey) (string, error) {
	token, err := p.AcquireProfileIndex(ctx, account)
	if err != nil {
		return "", err
	}
	defer token.Release()

	sessionID := uuid.NewString()
	it := locationindex.NewIterator(p.Locations.Matrix(), area, start, sessionID)
	state := it.State()

	p.Cache.WithLock(account, func(e accountcache.Entry) accountcache.Entry {
		e.Profile.IteratorSessionID = sessionID
		e.Iterator = &state
		return e
	})
	return sessionID, nil
}

// NextProfiles pages through account's discovery session, returning up to
// ProfileIteratorPageSize candidates that pass filter. It fails with
// apperr.ErrIteratorInvalidated if sessionID doesn't match the server's
// current session for this account, or if no session has been started.
func NextProfiles(ctx context.Context, p *Pipeline, account models.AccountID, sessionID string, filter FilterFunc) ([]models.ProfileLink, error) {
	token, err := p.AcquireProfileIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	defer token.Release()

	entry, ok := p.Cache.Get(account)
	if !ok || entry.Iterator == nil || entry.Profile.IteratorSessionID != sessionID {
		return nil, apperr.ErrIteratorInvalidated
	}

	it := locationindex.Resume(p.Locations.Matrix(), *entry.Iterator)

	var out []models.ProfileLink
	for len(out) < models.ProfileIteratorPageSize {
		key, ok := it.Next()
		if !ok {
			break
		}
		for _, link := range p.Locations.Matrix().Links(key) {
			if link.AccountID == account {
				continue
			}
			if filter == nil || filter(link) {
				out = append(out, link)
			}
		}
	}

	finalState := it.State()
	p.Cache.WithLock(account, func(e accountcache.Entry) accountcache.Entry {
		e.Iterator = &finalState
		return e
	})
	return out, nil
}
