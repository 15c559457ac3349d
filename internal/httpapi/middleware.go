// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/nearline-social/nearline/internal/logging"
)

// ChiMiddlewareConfig controls the CORS and rate-limit middleware every
// route group layers on top of the global stack.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns sane defaults for a browser and
// mobile-client audience: no vendor-specific headers, credentialed CORS
// off by default since access tokens travel in Authorization, not
// cookies.
func DefaultChiMiddlewareConfig(corsOrigins []string, reqsPerWindow int, window time.Duration, rateLimitDisabled bool) *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   corsOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSExposedHeaders:   []string{"X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,

		RateLimitRequests: reqsPerWindow,
		RateLimitWindow:   window,
		RateLimitDisabled: rateLimitDisabled,
	}
}

// ChiMiddleware bundles a CORS handler built from config with the
// rate-limit factories route groups layer on individually.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware builds a ChiMiddleware from config.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		ExposedHeaders:   config.CORSExposedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})
	return &ChiMiddleware{config: config, cors: corsHandler}
}

// CORS returns the preflight/CORS-header middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns an IP-keyed rate limiter using the configured
// request/window budget, or a no-op when rate limiting is disabled.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(m.config.RateLimitRequests, m.config.RateLimitWindow)
}

// RateLimitCustom returns an IP-keyed rate limiter with its own budget,
// for endpoint groups (write operations, health checks) that need a
// different limit than the package default.
func (m *ChiMiddleware) RateLimitCustom(requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(requests, window)
}

// RateLimitByAccount keys the limiter on the authenticated AuthSubject's
// account id instead of IP, so one account cannot exhaust its budget by
// rotating source addresses and so multiple accounts behind the same
// NAT do not share a budget.
func (m *ChiMiddleware) RateLimitByAccount(requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		hc, err := GetHandlerContext(r)
		if err != nil {
			return httprate.KeyByIP(r)
		}
		return hc.Subject.ID, nil
	}))
}

// Rate limit budgets for endpoint groups with characteristics distinct
// enough from the package default to warrant their own.
var (
	RateLimitAuth  = struct {
		Requests int
		Window   time.Duration
	}{Requests: 10, Window: time.Minute}

	RateLimitWrite = struct {
		Requests int
		Window   time.Duration
	}{Requests: 60, Window: time.Minute}

	RateLimitHealth = struct {
		Requests int
		Window   time.Duration
	}{Requests: 1000, Window: time.Minute}
)

// requestIDMiddleware adds an X-Request-ID header and enriches the
// request context for structured logging, ahead of any handler.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
