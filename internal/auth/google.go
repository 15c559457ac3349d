// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// This file verifies Google Sign-In ID tokens. The authorization-code /
// PKCE dance that gets a client to an ID token in the first place happens
// entirely on the client (mobile app or web SDK); the server's only job
// is to check the token a client hands it is genuinely Google's and
// extract the identity underneath.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
)

// googleIssuer is Google's fixed OIDC issuer. Unlike a self-hosted OIDC
// provider this never needs to be configured.
const googleIssuer = "https://accounts.google.com"

// GoogleConfig holds the one piece of provider-specific configuration a
// Google verifier needs: the OAuth client ID tokens must be issued for.
type GoogleConfig struct {
	// ClientID is the Google OAuth 2.0 client ID configured for this
	// deployment's mobile and web clients. Verification rejects any
	// token whose audience doesn't match.
	ClientID string

	// HTTPClient is used for the one-time discovery request against
	// Google's issuer. Defaults to a 10s-timeout client.
	HTTPClient *http.Client
}

// GoogleIdentity is the subset of a verified Google ID token relevant to
// account resolution.
type GoogleIdentity struct {
	// Subject is Google's stable, unique identifier for the signed-in
	// user — the value an account's google_subject column should key on,
	// never the email (which can change).
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier checks that an ID token was issued by Google for this
// deployment's client ID and extracts the identity it carries.
type GoogleVerifier struct {
	verifier *rp.IDTokenVerifier
}

// NewGoogleVerifier performs OIDC discovery against Google's issuer and
// builds a verifier bound to cfg.ClientID. The returned verifier is safe
// for concurrent use and should be built once at startup.
func NewGoogleVerifier(ctx context.Context, cfg GoogleConfig) (*GoogleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("auth: google client id is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	// rp.NewRelyingPartyOIDC performs discovery and builds the JWKS-backed
	// ID token verifier; the redirect URL and scopes it also configures
	// are unused here since this deployment never drives the OAuth
	// redirect flow itself.
	relyingParty, err := rp.NewRelyingPartyOIDC(ctx, googleIssuer, cfg.ClientID, "", "", []string{oidc.ScopeOpenID},
		rp.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("auth: google oidc discovery: %w", err)
	}

	return &GoogleVerifier{verifier: relyingParty.IDTokenVerifier()}, nil
}

// Verify validates idToken's signature, issuer, audience and expiry, and
// returns the identity it carries. Errors map to the same
// Err{No,Expired,Invalid}Credentials sentinels an Authenticator returns,
// so callers can handle both uniformly.
func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if idToken == "" {
		return nil, ErrNoCredentials
	}

	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, idToken, g.verifier)
	if err != nil {
		return nil, mapGoogleVerificationError(err)
	}

	return &GoogleIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

func mapGoogleVerificationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidCredentials, err.Error())
}
