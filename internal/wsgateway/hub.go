// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package wsgateway owns the WebSocket transport: accepting
// connections, running each one through the connect handshake, and
// fanning out account-scoped events for as long as the connection is
// open. The decisions about what a client needs are made by
// internal/wsync; this package only moves bytes.
package wsgateway

import (
	"context"
	"sort"
	"sync"

	"github.com/nearline-social/nearline/internal/logging"
	"github.com/nearline-social/nearline/internal/metrics"
	"github.com/nearline-social/nearline/internal/models"
)

// ShutdownReason identifies why the hub stopped running, for the same
// observability reasons a supervised service logs any stop reason.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub is the registry of currently connected clients, keyed by the
// account each connection authenticated as. A second connection for
// an already-connected account replaces the first: an account has at
// most one live WebSocket session at a time.
type Hub struct {
	clients    map[models.AccountID]*Client
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub builds an empty connection registry.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[models.AccountID]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext processes registrations until ctx is canceled, at
// which point every connected client is closed and the method
// returns ctx.Err(). Intended for supervised operation alongside the
// rest of the service's background loops.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if previous, ok := h.clients[client.account]; ok && previous != client {
		close(previous.send)
	}
	h.clients[client.account] = client
	metrics.RecordWSConnect(len(h.clients))
	logging.Info().Int("connected_accounts", len(h.clients)).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[client.account]; ok && current == client {
		delete(h.clients, client.account)
		close(client.send)
		metrics.RecordWSDisconnect(len(h.clients))
	}
	logging.Info().Int("connected_accounts", len(h.clients)).Msg("websocket client disconnected")
}

func (h *Hub) logShutdown(ctx context.Context) {
	count := h.Count()
	h.closeAll()
	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "wsgateway-hub").
		Str("reason", string(reason)).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c.account)
	}
}

// Count returns the number of currently connected accounts.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send delivers frame to account's live connection, if any. It never
// blocks: a connection whose outgoing buffer is full is a connection
// about to be dropped by its own write pump, not a reason to stall
// every other account's delivery.
func (h *Hub) Send(account models.AccountID, frame Frame) bool {
	h.mu.RLock()
	client, ok := h.clients[account]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.send <- frame:
		return true
	default:
		return false
	}
}
