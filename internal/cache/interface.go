// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package cache provides high-performance data structures for caching and deduplication.
package cache

import "time"

// Cacher defines the interface for cache implementations. Cache (TTL-based)
// implements it; this indirection lets the account cache and other
// consumers depend on the interface rather than the concrete type.
//
// Usage:
//
//	var c Cacher = NewTTL(5 * time.Minute)
//	c.Set("key", value)
//	if val, ok := c.Get("key"); ok {
//	    // Use cached value
//	}
type Cacher interface {
	// Get retrieves a value from the cache.
	// Returns the value and true if found and not expired.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with the default TTL.
	Set(key string, value interface{})

	// SetWithTTL stores a value with a custom TTL.
	SetWithTTL(key string, value interface{}, ttl time.Duration)

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all entries from the cache.
	Clear()

	// GetStats returns cache statistics.
	GetStats() Stats

	// HitRate returns the cache hit rate as a percentage.
	HitRate() float64
}

// NewTTL creates a new TTL-based cache (same as New).
// Convenience function matching the Cacher-returning constructors below.
func NewTTL(ttl time.Duration) Cacher {
	return New(ttl)
}

// Verify interface implementation at compile time
var _ Cacher = (*Cache)(nil)
