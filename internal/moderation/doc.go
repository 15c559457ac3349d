// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package moderation implements the four FIFO review queues (initial
// media, added media, profile text, profile name), moderator checkout,
// the automated content-decision cascade, and the LLM-backed profile
// text review.
package moderation
