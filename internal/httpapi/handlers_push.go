// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"

	"github.com/nearline-social/nearline/internal/pushtoken"
)

// SetDeviceToken registers the caller's FCM device token, revoking
// whichever pending-notification token a previous registration issued
// and returning the fresh one the push payload itself will carry.
func (h *Handler) SetDeviceToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req DeviceTokenRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	notificationToken, err := pushtoken.SetDeviceToken(r.Context(), h.pipeline, h.pushes, hc.Account(), req.FCMToken, req.PreviousToken)
	if err != nil {
		rw.AppError("httpapi.SetDeviceToken", err)
		return
	}
	rw.Success(map[string]string{"notification_token": notificationToken})
}

// ExchangePendingToken redeems the one-shot pending-notification token a
// push payload carried, returning the notification flags the device
// should now fetch and clearing them server-side.
func (h *Handler) ExchangePendingToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req PendingTokenExchangeRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	account, flags, err := pushtoken.GetAndReset(r.Context(), h.pipeline, h.pushes, req.Token)
	if err != nil {
		rw.AppError("httpapi.ExchangePendingToken", err)
		return
	}
	rw.Success(map[string]interface{}{"account_id": account, "flags": flags})
}
