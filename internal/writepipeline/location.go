// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package writepipeline

import (
	"context"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
)

// SetLocation persists a profile's new location key and updates the
// location index to match: it drops the old cell's link (if the account
// was previously rendered in the index) and adds the new one. The cache
// entry is refreshed in the same critical section as the persistence, so
// any reader that observes the commit also observes the new cache value.
func SetLocation(ctx context.Context, p *Pipeline, account models.AccountID, newKey models.LocationKey) error {
	_, err := Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		profile, err := storage.GetProfile(ctx, store.Current, account)
		if err != nil {
			return struct{}{}, err
		}
		acc, err := storage.GetAccount(ctx, store.Current, account)
		if err != nil {
			return struct{}{}, err
		}

		oldKey := profile.LocationKey
		renders := models.RendersInIndex(acc.State, acc.Visibility)

		profile.LocationKey = newKey
		if err := storage.UpsertProfile(ctx, store.Current, profile); err != nil {
			return struct{}{}, err
		}

		cache.WithLock(account, func(e accountcache.Entry) accountcache.Entry {
			e.Account = *acc
			e.Profile = *profile
			return e
		})

		if renders {
			if oldKey != newKey {
				p.Locations.Matrix().RemoveLink(oldKey, account)
			}
			p.Locations.Matrix().AddLink(newKey, models.ProfileLink{
				AccountID: account,
				Age:       profile.Age,
				LastSeen:  profile.LastSeenTime.Unix(),
			})
		}
		return struct{}{}, nil
	})
	return err
}

// SetVisibility transitions an account's visibility and keeps the
// location index consistent: becoming Public while Normal adds the
// account's current location to the index; leaving that state removes it.
func SetVisibility(ctx context.Context, p *Pipeline, account models.AccountID, vis models.Visibility) error {
	_, err := Write(ctx, p, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		acc, err := storage.GetAccount(ctx, store.Current, account)
		if err != nil {
			return struct{}{}, err
		}
		profile, err := storage.GetProfile(ctx, store.Current, account)
		if err != nil {
			return struct{}{}, err
		}

		wasRendering := models.RendersInIndex(acc.State, acc.Visibility)
		if err := storage.SetVisibility(ctx, store.Current, account, vis); err != nil {
			return struct{}{}, err
		}
		acc.Visibility = vis
		nowRendering := models.RendersInIndex(acc.State, acc.Visibility)

		cache.WithLock(account, func(e accountcache.Entry) accountcache.Entry {
			e.Account = *acc
			e.Profile = *profile
			return e
		})

		switch {
		case wasRendering && !nowRendering:
			p.Locations.Matrix().RemoveLink(profile.LocationKey, account)
		case !wasRendering && nowRendering:
			p.Locations.Matrix().AddLink(profile.LocationKey, models.ProfileLink{
				AccountID: account,
				Age:       profile.Age,
				LastSeen:  profile.LastSeenTime.Unix(),
			})
		}
		return struct{}{}, nil
	})
	return err
}
