// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package eventbus fans domain events (new likes and matches, incoming
// messages, moderation decisions, visibility flips, news publications)
// out to whatever is listening for a given account: the WebSocket
// gateway for a currently-connected client, and the push-notification
// worker for a disconnected one. It is a thin Watermill wrapper: an
// in-process gochannel bus by default, or NATS JetStream behind the
// "nats" build tag for a multi-instance deployment.
package eventbus
