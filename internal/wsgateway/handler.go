// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package wsgateway

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nearline-social/nearline/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The connect handshake authenticates the socket itself (refresh
	// token, then a signed access token), so origin checking is not
	// the access control boundary here; it is left permissive the way
	// a mobile client with no Origin header needs it to be.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades an HTTP request to a WebSocket connection and runs
// it through Serve for as long as the connection lasts.
func Handler(hub *Hub, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error().Err(err).Msg("wsgateway: upgrade failed")
			return
		}
		if err := Serve(r.Context(), hub, conn, deps); err != nil {
			logging.Debug().Err(err).Msg("wsgateway: connection ended")
		}
	}
}
