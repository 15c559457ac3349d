// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/moderation"
	"github.com/nearline-social/nearline/internal/storage"
)

const maxContentUploadBytes = 10 << 20 // 10 MiB

// UploadContentSlot accepts a raw media upload for one of the caller's 7
// gallery slots and enqueues it for moderation. The first item a fresh
// account uploads goes to the initial-media queue, since it is also the
// one that settles the account's pending visibility once it clears;
// every subsequent upload goes to the ordinary media queue.
func (h *Handler) UploadContentSlot(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	slotNum, err := strconv.ParseUint(chi.URLParam(r, "slot"), 10, 8)
	if err != nil || slotNum > 6 {
		rw.BadRequest("slot must be between 0 and 6")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		rw.Error(http.StatusUnsupportedMediaType, ErrCodeUnsupported, "Content-Type header is required")
		return
	}
	secureCapture := r.Header.Get("X-Secure-Capture") == "true"

	body := http.MaxBytesReader(w, r.Body, maxContentUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		rw.BadRequest("upload body exceeds the size limit or could not be read")
		return
	}

	existing, err := storage.ContentSlots(r.Context(), h.store.Current, hc.Account())
	if err != nil {
		rw.AppError("httpapi.UploadContentSlot", err)
		return
	}
	queue := models.QueueMedia
	if len(existing) == 0 {
		queue = models.QueueInitialMedia
	}

	content := models.Content{
		Slot:            models.Slot(uint8(slotNum)),
		ContentType:     contentType,
		IsSecureCapture: secureCapture,
	}
	contentID, requestID, err := moderation.SubmitContent(r.Context(), h.pipeline, hc.Account(), queue, content)
	if err != nil {
		rw.AppError("httpapi.UploadContentSlot", err)
		return
	}
	if err := h.content.Save(hc.Account(), contentID, data); err != nil {
		rw.AppError("httpapi.UploadContentSlot", err)
		return
	}
	rw.Created(map[string]int64{"content_id": contentID, "request_id": requestID})
}

// GetContent returns one content item's metadata. Callers may only read
// their own content; admins with PermissionAdminViewAllProfiles may read
// any.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	contentID, err := strconv.ParseInt(chi.URLParam(r, "contentID"), 10, 64)
	if err != nil {
		rw.BadRequest("contentID must be an integer")
		return
	}

	content, err := storage.GetContent(r.Context(), h.store.Current, contentID)
	if err != nil {
		rw.AppError("httpapi.GetContent", err)
		return
	}
	if authErr := hc.RequireSelfOrAdmin(content.Owner, models.PermissionAdminViewAllProfiles); authErr != nil {
		RespondAuthError(rw, authErr)
		return
	}
	rw.Success(content)
}

// GetContentData streams the raw bytes behind a content item. Access
// follows the same self-or-admin rule as GetContent; it does not yet
// extend it to matched or publicly-visible profiles.
func (h *Handler) GetContentData(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	contentID, err := strconv.ParseInt(chi.URLParam(r, "contentID"), 10, 64)
	if err != nil {
		rw.BadRequest("contentID must be an integer")
		return
	}

	content, err := storage.GetContent(r.Context(), h.store.Current, contentID)
	if err != nil {
		rw.AppError("httpapi.GetContentData", err)
		return
	}
	if authErr := hc.RequireSelfOrAdmin(content.Owner, models.PermissionAdminViewAllProfiles); authErr != nil {
		RespondAuthError(rw, authErr)
		return
	}

	data, err := h.content.Load(content.Owner, contentID)
	if err != nil {
		rw.AppError("httpapi.GetContentData", err)
		return
	}
	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteContent frees up the gallery slot a content item occupies,
// without discarding the underlying moderation/audit record.
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	contentID, err := strconv.ParseInt(chi.URLParam(r, "contentID"), 10, 64)
	if err != nil {
		rw.BadRequest("contentID must be an integer")
		return
	}

	content, err := storage.GetContent(r.Context(), h.store.Current, contentID)
	if err != nil {
		rw.AppError("httpapi.DeleteContent", err)
		return
	}
	if content.Owner != hc.Account() {
		RespondAuthError(rw, ErrNotAuthorized)
		return
	}

	if err := storage.ClearContentSlot(r.Context(), h.store.Current, contentID); err != nil {
		rw.AppError("httpapi.DeleteContent", err)
		return
	}
	if err := h.content.Delete(content.Owner, contentID); err != nil {
		rw.AppError("httpapi.DeleteContent", err)
		return
	}
	rw.NoContent()
}
