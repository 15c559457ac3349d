// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package models is intentionally free of behavior beyond small invariant
// helpers (ValidAge, RendersInIndex, CanonicalPair, ...) — the state
// machines that operate on these types live in their owning packages
// (internal/chat, internal/moderation, internal/locationindex, ...).
package models
