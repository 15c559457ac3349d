// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

/*
Package auth provides authentication, session management, and security
middleware.

This package sits between incoming HTTP requests and the API handlers. It
verifies Google Sign-In ID tokens on first contact, issues access tokens
and server-side sessions from the identity behind them, and authenticates
every later request against either.

Key Components:

  - GoogleVerifier: validates a client-supplied Google ID token and
    extracts the identity underneath
  - JWTManager: issues and validates HMAC-SHA256 access tokens carrying
    an account ID and permission bits
  - Registry: tries a set of Authenticators in priority order and
    returns the first subject one of them produces
  - SessionStore: server-side session storage (memory, BadgerDB) backing
    cookie-based web sessions
  - Middleware: HTTP middleware wiring the Registry into authentication,
    plus rate limiting, CORS, and security headers
  - RateLimiter: token bucket rate limiter, configurable per deployment

Authentication Flow:

Clients complete Google Sign-In entirely on-device (mobile SDK or web
button) and hand the server the resulting ID token. The server only
verifies that token; it never drives the OAuth redirect dance itself.

  1. POST /api/auth/google with {"id_token": "..."} verifies the token
     against Google's issuer, resolves it to an account (creating one on
     first sign-in via the caller-supplied ResolveAccountFunc), and
     responds with both a bearer access token and a session cookie.
  2. Subsequent requests authenticate via either the bearer token
     (JWTAuthenticator, checked on every request) or the session cookie
     (SessionMiddleware, for the web client).

Authorization works off a single bitflag type, models.Permissions,
rather than role strings: AuthSubject.HasPermission and IsAdmin check
specific administrative bits (moderate media, view all profiles, modify
permissions) rather than a coarse admin/non-admin split.

Security Features:

  - Token Signing: HMAC-SHA256 with a required, operator-supplied secret
  - Rate Limiting: token bucket algorithm, per-IP, with periodic cleanup
  - CORS: configurable origins with credentials support
  - CSP: nonce-based Content Security Policy
  - Security Headers: HSTS, X-Frame-Options, X-Content-Type-Options
  - IP Extraction: X-Forwarded-For with trusted proxy validation

Thread Safety:

All components are safe for concurrent use. RateLimiter and
MemorySessionStore guard their state with sync.RWMutex; JWTManager and
GoogleVerifier are read-only after construction.

See Also:

  - internal/httpapi: HTTP handlers protected by this package's middleware
  - internal/config: deployment configuration, including the Google
    client ID and JWT secret
  - internal/models: the Permission/Permissions bitflag type this
    package authorizes against
*/
package auth
