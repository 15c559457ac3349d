// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"

	"github.com/nearline-social/nearline/internal/storage"
)

// AccountState returns the caller's account lifecycle state, visibility,
// permissions, and per-data-type sync counters.
func (h *Handler) AccountState(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	account, err := storage.GetAccount(r.Context(), h.store.Current, hc.Account())
	if err != nil {
		rw.AppError("httpapi.AccountState", err)
		return
	}
	rw.Success(account)
}
