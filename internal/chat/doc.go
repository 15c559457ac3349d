// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package chat implements the pairwise interaction state machine
// (like, match, block) and the pending-message store with dual-ack
// garbage collection, all run through the write pipeline's serial
// lane so sync-version counters stay consistent with the interaction
// row they describe.
package chat
