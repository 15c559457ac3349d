// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package writepipeline serializes every mutating operation through two
// lanes.
//
// The serial lane runs one write at a time, in submission order, behind a
// single mutex: every transactional state mutation (account state,
// profile edits, interactions, moderation decisions) goes through
// Pipeline.Write so the write stream stays a single consistent sequence.
//
// The concurrent lane runs CPU- or IO-heavy work that must not block the
// serial lane (content upload, location-index mutation, iterator paging)
// behind two bounded semaphores plus a per-account mutex, so one account
// can only have one concurrent-lane operation in flight at a time while
// unrelated accounts still run in parallel.
//
// A process-wide quit barrier tracks writes in flight; Shutdown blocks
// until the last one finishes and causes every write submitted afterward
// to fail immediately with apperr.ErrServerClosing.
package writepipeline
