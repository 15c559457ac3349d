// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package pushtoken manages Firebase Cloud Messaging device tokens and
// the pending-notification bitflag each account accumulates while its
// device is not connected over WebSocket. A push-delivery worker polls
// GetAndReset with the token a device presents after waking from a
// silent push, learns what changed, and sends the matching alert.
package pushtoken
