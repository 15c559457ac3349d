// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"errors"
	"net/http"

	"github.com/nearline-social/nearline/internal/auth"
	"github.com/nearline-social/nearline/internal/models"
)

// AuthError is a sentinel carrying the HTTP status a missing or
// insufficient authentication condition maps to.
type AuthError struct {
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string { return e.Message }

var (
	// ErrNotAuthenticated means the request carried no valid AuthSubject.
	ErrNotAuthenticated = &AuthError{Message: "authentication required", StatusCode: http.StatusUnauthorized}
	// ErrNotAuthorized means the caller is authenticated but lacks the
	// permission or ownership the operation requires.
	ErrNotAuthorized = &AuthError{Message: "not authorized", StatusCode: http.StatusForbidden}
)

// RespondAuthError writes the status+message an AuthError carries,
// falling back to a generic 401 for any other error.
func RespondAuthError(rw *ResponseWriter, err error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		rw.Error(authErr.StatusCode, "auth_error", authErr.Message)
		return
	}
	rw.Unauthorized(err.Error())
}

// HandlerContext is the authenticated caller's identity plus the
// permission checks handlers need against a target account.
type HandlerContext struct {
	Subject *auth.AuthSubject
}

// GetHandlerContext extracts the AuthSubject auth.Middleware /
// auth.SessionMiddleware attached to r's context. Returns
// ErrNotAuthenticated if none is present.
func GetHandlerContext(r *http.Request) (*HandlerContext, error) {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		return nil, ErrNotAuthenticated
	}
	return &HandlerContext{Subject: subject}, nil
}

// Account is the caller's own AccountID.
func (hc *HandlerContext) Account() models.AccountID {
	return hc.Subject.Account
}

// RequirePermission returns ErrNotAuthorized unless the caller carries p.
func (hc *HandlerContext) RequirePermission(p models.Permission) error {
	if !hc.Subject.HasPermission(p) {
		return ErrNotAuthorized
	}
	return nil
}

// RequireSelfOrAdmin returns ErrNotAuthorized unless the caller is target
// itself or carries adminPerm. Most per-account endpoints only ever
// accept the caller acting on themselves; this exists for the admin
// override paths (moderation, account state) that also operate on
// someone else's account.
func (hc *HandlerContext) RequireSelfOrAdmin(target models.AccountID, adminPerm models.Permission) error {
	if hc.Account() == target {
		return nil
	}
	return hc.RequirePermission(adminPerm)
}
