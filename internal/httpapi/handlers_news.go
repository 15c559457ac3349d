// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/news"
)

func queryInt64(r *http.Request, key string, fallback int64) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func localeOrDefault(r *http.Request) string {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		return "en"
	}
	return locale
}

// NewsPage returns one page of news items: private items prepended on
// page 0, followed by public items newest-first down to anchor.
func (h *Handler) NewsPage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	anchor := queryInt64(r, "anchor", 0)
	page := queryInt64(r, "page", 0)

	items, newCount, err := news.Page(r.Context(), h.store, hc.Account(), anchor, page, localeOrDefault(r))
	if err != nil {
		rw.AppError("httpapi.NewsPage", err)
		return
	}
	rw.Success(map[string]interface{}{"items": items, "new_count": newCount})
}

// UnreadNewsCount returns how many published items the caller has not
// yet seen.
func (h *Handler) UnreadNewsCount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	count, err := news.UnreadCount(r.Context(), h.pipeline, hc.Account())
	if err != nil {
		rw.AppError("httpapi.UnreadNewsCount", err)
		return
	}
	rw.Success(map[string]int64{"unread_count": count})
}

// ResetNewsIterator marks every currently-published item as seen.
func (h *Handler) ResetNewsIterator(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	latest, err := news.ResetIterator(r.Context(), h.pipeline, hc.Account())
	if err != nil {
		rw.AppError("httpapi.ResetNewsIterator", err)
		return
	}
	rw.Success(map[string]int64{"latest_publication_id": latest})
}

// CreateNews starts a new private (unpublished) news item. Admin-only.
func (h *Handler) CreateNews(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	if authErr := hc.RequirePermission(models.PermissionAdminModifyPermissions); authErr != nil {
		RespondAuthError(rw, authErr)
		return
	}

	newsID, err := news.Create(r.Context(), h.pipeline)
	if err != nil {
		rw.AppError("httpapi.CreateNews", err)
		return
	}
	rw.Created(map[string]int64{"news_id": newsID})
}

// SetNewsTranslation upserts one locale's rendering of a news item.
// Admin-only.
func (h *Handler) SetNewsTranslation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	if authErr := hc.RequirePermission(models.PermissionAdminModifyPermissions); authErr != nil {
		RespondAuthError(rw, authErr)
		return
	}

	newsID, err := strconv.ParseInt(chi.URLParam(r, "newsID"), 10, 64)
	if err != nil {
		rw.BadRequest("newsID must be an integer")
		return
	}

	var req NewsTranslationRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	tr := models.NewsTranslation{Locale: req.Locale, Title: req.Title, Body: req.Body}
	if err := news.SetTranslation(r.Context(), h.pipeline, newsID, tr); err != nil {
		rw.AppError("httpapi.SetNewsTranslation", err)
		return
	}
	rw.Success(nil)
}

// PublishNews assigns a news item a publication id, making it visible
// to every account's news page. Admin-only.
func (h *Handler) PublishNews(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}
	if authErr := hc.RequirePermission(models.PermissionAdminModifyPermissions); authErr != nil {
		RespondAuthError(rw, authErr)
		return
	}

	newsID, err := strconv.ParseInt(chi.URLParam(r, "newsID"), 10, 64)
	if err != nil {
		rw.BadRequest("newsID must be an integer")
		return
	}

	if err := news.Publish(r.Context(), h.pipeline, newsID); err != nil {
		rw.AppError("httpapi.PublishNews", err)
		return
	}
	rw.Success(nil)
}
