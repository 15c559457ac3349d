// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nearline-social/nearline/internal/chat"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
)

func targetAccountID(r *http.Request) (models.AccountID, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	return models.AccountID(n), err
}

// Like records the caller's interest in accountID, matching
// immediately if accountID already liked the caller back.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	target, err := targetAccountID(r)
	if err != nil {
		rw.BadRequest("accountID must be an integer")
		return
	}

	kind, err := chat.Like(r.Context(), h.pipeline, hc.Account(), target)
	if err != nil {
		rw.AppError("httpapi.Like", err)
		return
	}
	rw.Success(map[string]string{"state": kind.String()})
}

// Unlike withdraws the caller's like of accountID, if one is in place.
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	target, err := targetAccountID(r)
	if err != nil {
		rw.BadRequest("accountID must be an integer")
		return
	}

	if err := chat.Unlike(r.Context(), h.pipeline, hc.Account(), target); err != nil {
		rw.AppError("httpapi.Unlike", err)
		return
	}
	rw.Success(nil)
}

// Block blocks accountID, clearing any existing like or match between
// the pair.
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	target, err := targetAccountID(r)
	if err != nil {
		rw.BadRequest("accountID must be an integer")
		return
	}

	if err := chat.Block(r.Context(), h.pipeline, hc.Account(), target); err != nil {
		rw.AppError("httpapi.Block", err)
		return
	}
	rw.Success(nil)
}

// Unblock reverses the caller's own block of accountID. If the other
// side still has the caller blocked, the pair stays blocked one-way.
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	target, err := targetAccountID(r)
	if err != nil {
		rw.BadRequest("accountID must be an integer")
		return
	}

	if err := chat.Unblock(r.Context(), h.pipeline, hc.Account(), target); err != nil {
		rw.AppError("httpapi.Unblock", err)
		return
	}
	rw.Success(nil)
}

// Matches lists every account currently in Match state with the caller.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	matches, err := storage.ListMatchesFor(r.Context(), h.store.Current, hc.Account())
	if err != nil {
		rw.AppError("httpapi.Matches", err)
		return
	}
	rw.Success(matches)
}

// SendMessage sends a chat message to a matched account. Retrying the
// same (client_id, client_local_id) pair returns the existing message
// rather than creating a duplicate.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req SendMessageRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	msg, err := chat.Send(r.Context(), h.pipeline, hc.Account(), models.AccountID(req.ReceiverID), req.ClientID, req.ClientLocalID, req.Payload)
	if err != nil {
		rw.AppError("httpapi.SendMessage", err)
		return
	}
	rw.Created(msg)
}

// PendingMessages returns every message sent to the caller that has not
// yet been fully acknowledged.
func (h *Handler) PendingMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	messages, err := chat.Pending(r.Context(), h.store, hc.Account())
	if err != nil {
		rw.AppError("httpapi.PendingMessages", err)
		return
	}
	rw.Success(messages)
}

// AckReceived acknowledges the caller received one or more messages
// from a sender.
func (h *Handler) AckReceived(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req AckReceivedRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if err := chat.AckReceived(r.Context(), h.pipeline, hc.Account(), models.AccountID(req.SenderID), req.MessageNumbers); err != nil {
		rw.AppError("httpapi.AckReceived", err)
		return
	}
	rw.Success(nil)
}

// AckSent acknowledges the caller's own previously sent message reached
// the server durably.
func (h *Handler) AckSent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req AckSentRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if err := chat.AckSent(r.Context(), h.pipeline, hc.Account(), req.ClientID, req.ClientLocalID); err != nil {
		rw.AppError("httpapi.AckSent", err)
		return
	}
	rw.Success(nil)
}

// MarkViewed records the latest message number the caller has viewed in
// a conversation.
func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req MarkViewedRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if err := chat.MarkViewed(r.Context(), h.pipeline, hc.Account(), models.AccountID(req.OtherID), req.Number); err != nil {
		rw.AppError("httpapi.MarkViewed", err)
		return
	}
	rw.Success(nil)
}
