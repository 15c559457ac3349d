// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"

	"github.com/nearline-social/nearline/internal/wsgateway"
)

// WebSocket upgrades the connection and hands it to the gateway, which
// performs its own handshake authentication and then streams
// reconciliation steps and live events for as long as the socket lasts.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	wsgateway.Handler(h.wsHub, wsgateway.Deps{
		Store:    h.store,
		Pipeline: h.pipeline,
		JWT:      h.jwt,
		Events:   h.events,
		Pushes:   h.pushes,
	})(w, r)
}
