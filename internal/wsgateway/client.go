// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package wsgateway

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/nearline-social/nearline/internal/logging"
	"github.com/nearline-social/nearline/internal/metrics"
	"github.com/nearline-social/nearline/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

var clientIDCounter atomic.Uint64

// FrameType names the kind of payload carried in a post-handshake
// Frame, distinguishing server push events from client requests.
type FrameType string

const (
	FrameConnectAck      FrameType = "connect_ack"
	FrameAccountState     FrameType = "account_state_changed"
	FramePermissions      FrameType = "account_permissions_changed"
	FrameVisibility       FrameType = "account_visibility_changed"
	FrameAccountSync      FrameType = "account_sync_version_changed"
	FrameDataChanged      FrameType = "data_changed"
	FrameMessage          FrameType = "message"
	FrameModeration       FrameType = "moderation_completed"
	FrameError            FrameType = "error"
	FrameClientSyncState  FrameType = "client_sync_state"
)

// Frame is one JSON message exchanged after the handshake completes.
type Frame struct {
	Type FrameType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Client is a single account's live WebSocket connection.
type Client struct {
	id      uint64
	account models.AccountID
	hub     *Hub
	conn    *websocket.Conn
	send    chan Frame

	// cancel stops this client's eventbus subscriptions and handshake
	// context when the socket closes or the hub shuts the client down.
	cancel func()
}

// NewClient wraps conn for account, ready to register with hub.
func NewClient(hub *Hub, conn *websocket.Conn, account models.AccountID, cancel func()) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		account: account,
		hub:     hub,
		conn:    conn,
		send:    make(chan Frame, 256),
		cancel:  cancel,
	}
}

// ID returns the client's unique, deterministic identifier.
func (c *Client) ID() uint64 { return c.id }

// readPump discards client-sent frames other than pong keepalives;
// every account-initiated mutation (likes, messages, profile edits)
// goes through the HTTP API, not this socket, once the handshake has
// finished syncing the two sides. It exists to drive the pong
// deadline and to notice when the peer closes the connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		c.cancel()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("wsgateway: failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
				metrics.RecordWSError("unexpected_close")
			}
			return
		}
		metrics.RecordWSMessageReceived()
	}
}

// writePump serializes every outgoing Frame as JSON and delivers it as
// a text message, interleaved with ping keepalives.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("wsgateway: failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				logging.Error().Err(err).Msg("wsgateway: failed to marshal frame")
				metrics.RecordWSError("marshal_failed")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Error().Err(err).Msg("wsgateway: failed to write frame")
				metrics.RecordWSError("write_failed")
				return
			}
			metrics.RecordWSMessageSent()
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins the read and write pumps. Call once, after the connect
// handshake has registered the client with the hub.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
