// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import "net/http"

// HealthLive answers whether the process is up, with no dependency
// checks; a load balancer uses this to decide whether to kill and
// restart the instance.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "live"})
}

// HealthReady checks the databases this instance depends on are
// reachable before a load balancer sends it traffic.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.store.Current.PingContext(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, "not_ready", "current database unreachable")
		return
	}
	if err := h.store.History.PingContext(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, "not_ready", "history database unreachable")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}

// Health is the general-purpose status endpoint, combining liveness with
// a connection count useful for dashboards.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"status":       "ok",
		"ws_connected": h.wsHub.Count(),
	})
}
