// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/moderation"
)

var queueByName = map[string]models.QueueType{
	"initial_media": models.QueueInitialMedia,
	"media":         models.QueueMedia,
	"profile_text":  models.QueueProfileText,
	"profile_name":  models.QueueProfileName,
}

const moderationCheckoutBatchSize = 5

// CheckoutModerationRequest hands the calling moderator up to a batch of
// Waiting entries from the named queue, claiming them as InProgress.
// Repeating the call is idempotent while the moderator still holds a
// full batch.
func (h *Handler) CheckoutModerationRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	if authErr := hc.RequirePermission(models.PermissionAdminModerateMedia); authErr != nil {
		RespondAuthError(rw, authErr)
		return
	}

	queue, ok := queueByName[chi.URLParam(r, "queue")]
	if !ok {
		rw.BadRequest("unknown queue name")
		return
	}

	requests, err := moderation.Checkout(r.Context(), h.store.Current, queue, hc.Account(), moderationCheckoutBatchSize)
	if err != nil {
		rw.AppError("httpapi.CheckoutModerationRequest", err)
		return
	}
	rw.Success(requests)
}

// ModerationDecision records the calling moderator's accept/reject
// verdict on a request it currently holds in progress, applying the
// side effects (content state, profile acceptance, pending visibility)
// the decision implies.
func (h *Handler) ModerationDecision(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	if authErr := hc.RequirePermission(models.PermissionAdminModerateMedia); authErr != nil {
		RespondAuthError(rw, authErr)
		return
	}

	var req ModerationDecisionRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	err = moderation.Resolve(r.Context(), h.pipeline, h.mods, req.RequestID, hc.Account(), req.Accept, models.RejectionCategory(req.Category), req.Details)
	if err != nil {
		rw.AppError("httpapi.ModerationDecision", err)
		return
	}
	rw.Success(nil)
}
