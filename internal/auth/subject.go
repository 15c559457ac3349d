// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/nearline-social/nearline/internal/models"
)

// AuthMode names an authentication scheme an Authenticator implements.
type AuthMode string

const (
	AuthModeJWT    AuthMode = "jwt"
	AuthModeGoogle AuthMode = "google"
)

// Sentinel errors an Authenticator returns for the three ways credentials
// can fail to produce a subject.
var (
	ErrNoCredentials      = errors.New("auth: no credentials presented")
	ErrExpiredCredentials = errors.New("auth: credentials expired")
	ErrInvalidCredentials = errors.New("auth: credentials invalid")
)

// Authenticator extracts and validates a caller's identity from an HTTP
// request. A Registry tries every registered Authenticator in Priority
// order and uses the first one that doesn't return ErrNoCredentials.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error)
	Name() string
	Priority() int
}

// AuthSubject is the authenticated identity attached to a request's
// context once an Authenticator succeeds.
type AuthSubject struct {
	// ID is the decimal string form of Account, for callers (logging,
	// JSON responses) that want an opaque identifier rather than the
	// typed AccountID.
	ID string

	Account     models.AccountID
	Email       string
	DisplayName string
	Permissions models.Permissions

	// Provider names the auth path that produced this subject: "google"
	// for a fresh sign-in, "jwt" for a bearer/cookie token.
	Provider string

	// SessionID is set when the subject came from a server-side Session
	// rather than a bare JWT.
	SessionID string

	Metadata map[string]string
}

// HasPermission reports whether the subject carries p.
func (s *AuthSubject) HasPermission(p models.Permission) bool {
	return s.Permissions.Has(p)
}

// IsAdmin reports whether the subject carries any administrative bit.
func (s *AuthSubject) IsAdmin() bool {
	return s.Permissions != 0
}

// ToClaims projects the subject down to what a new JWT should carry.
func (s *AuthSubject) ToClaims() *Claims {
	if s == nil {
		return nil
	}
	return &Claims{Account: s.Account, Permissions: s.Permissions}
}

// AuthSubjectFromClaims builds a subject out of a validated JWT. The
// resulting subject carries no email or display name; those only ever
// come from a Google sign-in or a server-side Session.
func AuthSubjectFromClaims(claims *Claims) *AuthSubject {
	return &AuthSubject{
		ID:          strconv.FormatInt(int64(claims.Account), 10),
		Account:     claims.Account,
		Permissions: claims.Permissions,
		Provider:    string(AuthModeJWT),
	}
}

type authSubjectContextKey struct{}

// AuthSubjectContextKey is the context key session middleware stores the
// authenticated AuthSubject under.
var AuthSubjectContextKey = authSubjectContextKey{}

// GetAuthSubject returns the AuthSubject stored in ctx, or nil if none.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	subject, _ := ctx.Value(AuthSubjectContextKey).(*AuthSubject)
	return subject
}

// Registry tries a set of Authenticators in ascending Priority order and
// returns the first subject one of them produces.
type Registry struct {
	authenticators []Authenticator
}

// NewRegistry builds a Registry sorted by Priority (lower runs first).
func NewRegistry(authenticators ...Authenticator) *Registry {
	sorted := make([]Authenticator, len(authenticators))
	copy(sorted, authenticators)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() < sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return &Registry{authenticators: sorted}
}

// Authenticate runs every registered Authenticator in priority order and
// returns the first subject produced. If every Authenticator reports
// ErrNoCredentials, Authenticate does too. Any other error stops the scan
// and is returned immediately: a presented-but-invalid credential should
// not fall through to a lower-priority scheme.
func (reg *Registry) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	for _, a := range reg.authenticators {
		subject, err := a.Authenticate(ctx, r)
		if err == nil {
			return subject, nil
		}
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		return nil, err
	}
	return nil, ErrNoCredentials
}
