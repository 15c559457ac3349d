// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

// Package httpapi wires the storage, location index, write pipeline,
// chat, moderation, news, and push-token packages into the REST and
// WebSocket surface clients talk to.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nearline-social/nearline/internal/auth"
	"github.com/nearline-social/nearline/internal/contentstore"
	"github.com/nearline-social/nearline/internal/eventbus"
	"github.com/nearline-social/nearline/internal/middleware"
	"github.com/nearline-social/nearline/internal/pushtoken"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/wsgateway"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// Deps bundles every collaborator the router's handlers close over.
type Deps struct {
	Store      *storage.Store
	Pipeline   *writepipeline.Pipeline
	Events     *eventbus.Bus
	Pushes     *pushtoken.TokenStore
	JWT        *auth.JWTManager
	AuthMW     *auth.Middleware
	WSHub      *wsgateway.Hub
	AuthHandlers *auth.AuthHandlers
	Content    *contentstore.Store
}

// chiAdapt lifts an http.HandlerFunc-style middleware (the shape
// auth.Middleware's methods use) into chi's func(http.Handler) http.Handler.
func chiAdapt(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter builds the full chi.Router for deps, layering the global
// middleware stack (request ID, recoverer, CORS) ahead of per-group
// rate limiting and authentication.
func NewRouter(deps Deps, chiMW *ChiMiddleware) http.Handler {
	h := NewHandler(deps)
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chiMW.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(chiMW.RateLimitCustom(RateLimitHealth.Requests, RateLimitHealth.Window))
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
		r.Get("/", h.Health)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(chiMW.RateLimitCustom(RateLimitAuth.Requests, RateLimitAuth.Window))
		r.Post("/google", deps.AuthHandlers.GoogleSignIn)
		r.Get("/health", deps.AuthHandlers.HealthCheck)
		r.With(chiAdapt(deps.AuthMW.Authenticate)).Post("/logout", deps.AuthHandlers.Logout)
		r.With(chiAdapt(deps.AuthMW.Authenticate)).Post("/logout/all", deps.AuthHandlers.LogoutAll)
		r.With(chiAdapt(deps.AuthMW.Authenticate)).Get("/userinfo", deps.AuthHandlers.UserInfo)
		r.With(chiAdapt(deps.AuthMW.Authenticate)).Get("/sessions", deps.AuthHandlers.Sessions)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMW.RateLimit())
		r.Use(chiAdapt(middleware.PrometheusMetrics))
		r.Use(chiAdapt(deps.AuthMW.Authenticate))

		r.Get("/account", h.AccountState)
		r.Get("/profile", h.GetProfile)
		r.With(chiMW.RateLimitByAccount(RateLimitWrite.Requests, RateLimitWrite.Window)).Put("/profile", h.UpdateProfile)
		r.Put("/profile/age-range", h.SetSearchAgeRange)
		r.Put("/profile/location", h.SetLocation)
		r.Put("/profile/visibility", h.SetVisibility)

		r.Post("/discovery/reset", h.ResetIterator)
		r.Get("/discovery/next", h.NextProfiles)

		r.Route("/content", func(r chi.Router) {
			r.Use(chiMW.RateLimitByAccount(RateLimitWrite.Requests, RateLimitWrite.Window))
			r.Put("/slot/{slot}", h.UploadContentSlot)
			r.Get("/{contentID}", h.GetContent)
			r.Get("/{contentID}/data", h.GetContentData)
			r.Delete("/{contentID}", h.DeleteContent)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/like/{accountID}", h.Like)
			r.Post("/unlike/{accountID}", h.Unlike)
			r.Post("/block/{accountID}", h.Block)
			r.Post("/unblock/{accountID}", h.Unblock)
			r.Get("/matches", h.Matches)
			r.With(chiMW.RateLimitByAccount(RateLimitWrite.Requests, RateLimitWrite.Window)).Post("/messages", h.SendMessage)
			r.Get("/messages/pending", h.PendingMessages)
			r.Post("/messages/ack-received", h.AckReceived)
			r.Post("/messages/ack-sent", h.AckSent)
			r.Post("/messages/mark-viewed", h.MarkViewed)
		})

		r.Route("/news", func(r chi.Router) {
			r.Get("/page", h.NewsPage)
			r.Get("/unread-count", h.UnreadNewsCount)
			r.Post("/reset", h.ResetNewsIterator)
		})

		r.Post("/push/device-token", h.SetDeviceToken)
	})

	// The pending-token exchange authenticates via the one-shot token
	// itself: a push receiver woken by a notification has no user
	// session to present.
	r.With(chiMW.RateLimitCustom(RateLimitWrite.Requests, RateLimitWrite.Window)).
		Post("/api/v1/push/pending-token/exchange", h.ExchangePendingToken)

	// The gateway's connect handshake performs its own refresh-token and
	// JWT authentication over the socket, so it is not layered behind
	// the REST Authenticate middleware.
	r.With(chiMW.RateLimitCustom(RateLimitAuth.Requests, RateLimitAuth.Window)).
		Get("/api/v1/ws", h.WebSocket)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(chiMW.RateLimit())
		r.Use(chiAdapt(middleware.PrometheusMetrics))
		r.Use(chiAdapt(deps.AuthMW.Authenticate))

		r.Get("/moderation/{queue}/checkout", h.CheckoutModerationRequest)
		r.Post("/moderation/decision", h.ModerationDecision)

		r.Post("/news", h.CreateNews)
		r.Post("/news/{newsID}/translation", h.SetNewsTranslation)
		r.Post("/news/{newsID}/publish", h.PublishNews)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
