// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package news implements paged, localized news delivery: publishing
// (private -> public, assigning a publication id), per-account unread
// tracking via an iterator reset marker, and translation management.
package news
