// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/logging"
)

// APIResponse is the envelope every handler returns, success or error.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError carries a machine-readable code alongside the message.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta carries per-response bookkeeping: correlation, timing, paging.
type APIMeta struct {
	RequestID  string          `json:"request_id,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta describes one page of a cursor-paginated list.
type PaginationMeta struct {
	Count      int    `json:"count"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Error code strings used in APIError.Code. These mirror apperr.Kind
// rather than duplicating its taxonomy.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeValidation  = "validation_error"
	ErrCodeInternal    = "internal_error"
	ErrCodeUnsupported = "unsupported_media_type"
)

// ResponseWriter wraps http.ResponseWriter with the envelope helpers
// every handler uses to reply.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter builds a ResponseWriter for one request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, startTime: time.Now()}
}

func (rw *ResponseWriter) requestID() string {
	return logging.RequestIDFromContext(rw.r.Context())
}

func (rw *ResponseWriter) writeJSON(status int, resp APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(resp); err != nil {
		logging.CtxErr(rw.r.Context(), err).Msg("httpapi: failed to encode response body")
	}
}

// Success replies 200 with data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.writeJSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			RequestID:  rw.requestID(),
			DurationMs: time.Since(rw.startTime).Milliseconds(),
		},
	})
}

// SuccessWithPagination replies 200 with data plus a pagination block.
func (rw *ResponseWriter) SuccessWithPagination(data interface{}, page PaginationMeta) {
	rw.writeJSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			RequestID:  rw.requestID(),
			DurationMs: time.Since(rw.startTime).Milliseconds(),
			Pagination: &page,
		},
	})
}

// Created replies 201 with the created resource.
func (rw *ResponseWriter) Created(data interface{}) {
	rw.writeJSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{RequestID: rw.requestID()},
	})
}

// NoContent replies 204 with an empty body.
func (rw *ResponseWriter) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Error replies status with a code/message pair.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.writeJSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			RequestID: rw.requestID(),
		},
	})
}

// AppError replies with the status apperr.HTTPStatus maps err's Kind to.
// KindAlreadyDone is swallowed into a 200 success with no data, matching
// the handler-boundary rule that a no-op outcome is not a client error.
func (rw *ResponseWriter) AppError(op string, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindAlreadyDone {
		rw.Success(nil)
		return
	}
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		logging.CtxErr(rw.r.Context(), err).Str("op", op).Msg("httpapi: internal error")
		rw.Error(status, ErrCodeInternal, "internal error")
		return
	}
	rw.Error(status, kind.String(), err.Error())
}

// BadRequest replies 400.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized replies 401.
func (rw *ResponseWriter) Unauthorized(message string) {
	rw.Error(http.StatusUnauthorized, "unauthorized", message)
}

// Forbidden replies 403.
func (rw *ResponseWriter) Forbidden(message string) {
	rw.Error(http.StatusForbidden, "forbidden", message)
}

// ValidationError replies 422 with the field errors validator produced.
func (rw *ResponseWriter) ValidationError(message string) {
	rw.Error(http.StatusUnprocessableEntity, ErrCodeValidation, message)
}
