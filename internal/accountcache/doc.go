// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package accountcache is the process-wide, TTL-evicted cache of account
// state that sits in front of internal/storage. It is a thin domain wrapper around internal/cache.Cache,
// a generic TTL cache.
package accountcache
