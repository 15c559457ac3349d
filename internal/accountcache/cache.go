// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package accountcache

import (
	"strconv"
	"sync"
	"time"

	"github.com/nearline-social/nearline/internal/cache"
	"github.com/nearline-social/nearline/internal/models"
)

// Entry is everything the cache keeps about one account between storage
// round-trips: its account row, profile, and (if it has an active
// discovery session) the iterator state from internal/locationindex.
type Entry struct {
	Account  models.Account
	Profile  models.Profile
	Iterator *models.IteratorState // nil when no session is in flight
}

// Cache is the process-wide account cache. One Cache backs the whole
// process, keyed by account ID; a per-account RWMutex set
// serializes read-modify-write sequences against a single entry without
// taking a global lock for unrelated accounts.
type Cache struct {
	entries *cache.Cache

	locksMu sync.Mutex
	locks   map[models.AccountID]*sync.RWMutex
}

// New builds a Cache whose entries expire after ttl of inactivity.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: cache.NewNamed("account", ttl),
		locks:   make(map[models.AccountID]*sync.RWMutex),
	}
}

func (c *Cache) lockFor(id models.AccountID) *sync.RWMutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.RWMutex{}
		c.locks[id] = l
	}
	return l
}

// Get returns the cached entry for id, if present and unexpired.
func (c *Cache) Get(id models.AccountID) (Entry, bool) {
	l := c.lockFor(id)
	l.RLock()
	defer l.RUnlock()
	v, ok := c.entries.Get(cacheKey(id))
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Put stores or replaces the cached entry for id.
func (c *Cache) Put(id models.AccountID, e Entry) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()
	c.entries.Set(cacheKey(id), e)
}

// WithLock runs fn holding id's write lock, fetching the current entry
// (zero value if absent) and storing whatever fn returns. This is the
// primitive the write pipeline uses to apply a mutation and persist it
// back to the cache atomically with respect to other readers of the same
// account.
func (c *Cache) WithLock(id models.AccountID, fn func(Entry) Entry) {
	l := c.lockFor(id)
	l.Lock()
	defer l.Unlock()
	v, _ := c.entries.Get(cacheKey(id))
	current, _ := v.(Entry)
	c.entries.Set(cacheKey(id), fn(current))
}

// Invalidate evicts id's entry, e.g. on logout.
func (c *Cache) Invalidate(id models.AccountID) {
	c.entries.Delete(cacheKey(id))
}

func cacheKey(id models.AccountID) string {
	return "acct:" + strconv.FormatInt(int64(id), 10)
}
