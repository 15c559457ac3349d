// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/auth"
	"github.com/nearline-social/nearline/internal/cache"
	"github.com/nearline-social/nearline/internal/config"
	"github.com/nearline-social/nearline/internal/contentstore"
	"github.com/nearline-social/nearline/internal/eventbus"
	"github.com/nearline-social/nearline/internal/httpapi"
	"github.com/nearline-social/nearline/internal/locationindex"
	"github.com/nearline-social/nearline/internal/logging"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/moderation"
	"github.com/nearline-social/nearline/internal/pushtoken"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/supervisor"
	"github.com/nearline-social/nearline/internal/supervisor/services"
	"github.com/nearline-social/nearline/internal/wsgateway"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// moderationBotAccountID is the fixed account a human never signs into,
// reserved for the identity automated moderation decisions are recorded
// against.
const moderationBotAccountID models.AccountID = 0

// accountCacheTTL bounds how long a cached account/profile row is
// served before the next read refreshes it from storage.
const accountCacheTTL = 5 * time.Minute

// moderationWorkerIdleInterval is how long an automated worker sleeps
// after draining its queue before checking again.
const moderationWorkerIdleInterval = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg.Database.CurrentPath, cfg.Database.HistoryPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("open storage")
	}
	defer store.Close()

	if err := bootstrapModerationBot(ctx, store.Current); err != nil {
		logging.Fatal().Err(err).Msg("bootstrap moderation bot account")
	}

	content, err := contentstore.New(cfg.Storage.ContentDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("open content store")
	}

	pushes, err := pushtoken.OpenTokenStore(cfg.Storage.PushTokenDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("open push token store")
	}
	defer pushes.Close()

	cache := accountcache.New(accountCacheTTL)
	locations := locationindex.NewManager(cfg.LocationIndex.GridWidth, cfg.LocationIndex.GridHeight)
	pipeline := writepipeline.New(store, cache, locations, 0)

	events, err := buildEventBus(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("build event bus")
	}
	defer events.Close()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("build supervisor tree")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("build JWT manager")
	}

	var googleVerifier *auth.GoogleVerifier
	if cfg.Security.GoogleClientID != "" {
		googleVerifier, err = auth.NewGoogleVerifier(ctx, auth.GoogleConfig{ClientID: cfg.Security.GoogleClientID})
		if err != nil {
			logging.Fatal().Err(err).Msg("build Google verifier")
		}
	} else {
		logging.Warn().Msg("GOOGLE_CLIENT_ID not set: Google sign-in disabled")
	}

	registry := auth.NewRegistry(auth.NewJWTAuthenticator(jwtManager))
	authMW := auth.NewMiddleware(registry, string(auth.AuthModeJWT),
		cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow, cfg.Security.RateLimitDisabled,
		cfg.Security.CORSOrigins, cfg.Security.TrustedProxies)

	sessionStore, badgerSessions, err := buildSessionStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("build session store")
	}
	if badgerSessions != nil {
		defer badgerSessions.Close()
	}

	authHandlers := auth.NewAuthHandlers(sessionStore, jwtManager, googleVerifier,
		resolveGoogleAccount(store.Current), &auth.AuthHandlersConfig{
			SessionTTL:             cfg.Security.SessionTimeout,
			PostLogoutRedirectURL: "/",
		})

	wsHub := wsgateway.NewHub()
	tree.AddAPIService(services.NewWebSocketHubService(wsHub))

	moderationEvents := eventbus.ModerationPublisher{Bus: events}
	fetcher := contentstore.ModerationFetcher{Store: content, DB: store.Current}

	if cfg.Moderation.ContentModerationEnabled {
		contentWorker := buildContentModerationWorker(cfg, store.Current, pipeline, moderationEvents, fetcher)
		tree.AddMessagingService(services.NewModerationWorkerService(
			"moderation-content", contentWorker, moderationWorkerIdleInterval))
	}
	if cfg.Moderation.ProfileTextModerationEnabled {
		textWorker, err := buildTextModerationWorker(cfg, store.Current, pipeline, moderationEvents)
		if err != nil {
			logging.Fatal().Err(err).Msg("build profile text moderation worker")
		}
		tree.AddMessagingService(services.NewModerationWorkerService(
			"moderation-text", textWorker, moderationWorkerIdleInterval))
	}

	tree.AddDataService(services.NewBadgerGCService("push-token-gc", pushes, 10*time.Minute, 0.5))

	chiMW := httpapi.NewChiMiddleware(httpapi.DefaultChiMiddlewareConfig(
		cfg.Security.CORSOrigins, cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow, cfg.Security.RateLimitDisabled))

	router := httpapi.NewRouter(httpapi.Deps{
		Store:        store,
		Pipeline:     pipeline,
		Events:       events,
		Pushes:       pushes,
		JWT:          jwtManager,
		AuthMW:       authMW,
		WSHub:        wsHub,
		AuthHandlers: authHandlers,
		Content:      content,
	}, chiMW)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("starting server")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("supervisor tree exited with error")
		}
	}

	for err := range errCh {
		if err != nil {
			logging.Error().Err(err).Msg("error during shutdown")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err != nil {
		logging.Warn().Err(err).Int("count", len(unstopped)).Msg("services failed to stop within the shutdown window")
	}

	logging.Info().Msg("server stopped")
}

// bootstrapModerationBot idempotently reserves moderationBotAccountID so
// automated workers have an account identity to record decisions under.
func bootstrapModerationBot(ctx context.Context, db *sql.DB) error {
	_, err := storage.GetAccount(ctx, db, moderationBotAccountID)
	if err == nil {
		return nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	_, err = storage.CreateAccount(ctx, db, moderationBotAccountID)
	return err
}

// resolveGoogleAccount adapts the storage layer's Google-subject lookup
// into the shape auth.AuthHandlers needs to turn a freshly verified
// Google identity into a session subject.
func resolveGoogleAccount(db *sql.DB) auth.ResolveAccountFunc {
	return func(ctx context.Context, identity *auth.GoogleIdentity) (*auth.AuthSubject, error) {
		var account *models.Account
		id, err := storage.GetAccountByGoogleSubject(ctx, db, identity.Subject)
		switch {
		case err == nil:
			account, err = storage.GetAccount(ctx, db, id)
			if err != nil {
				return nil, err
			}
		case apperr.Is(err, apperr.KindNotFound):
			account, err = storage.CreateAccountForGoogleSubject(ctx, db, identity.Subject, identity.Email)
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		return &auth.AuthSubject{
			Account:     account.ID,
			Email:       identity.Email,
			DisplayName: identity.Name,
			Permissions: account.Permissions,
			Provider:    "google",
		}, nil
	}
}

func buildEventBus(cfg *config.Config) (*eventbus.Bus, error) {
	if !cfg.EventBus.NATSEnabled {
		return eventbus.New(eventbus.Config{
			OutputChannelBuffer: cfg.EventBus.OutputChannelBuffer,
			Persistent:          cfg.EventBus.Persistent,
		}, nil), nil
	}
	return eventbus.NewNATS(eventbus.NATSConfig{
		URL:            cfg.EventBus.NATSURL,
		StreamName:     cfg.EventBus.NATSStreamName,
		ConnectTimeout: cfg.EventBus.NATSConnectTimeout,
		ReconnectWait:  cfg.EventBus.NATSReconnectWait,
		MaxReconnects:  cfg.EventBus.NATSMaxReconnects,
	}, nil)
}

func buildSessionStore(cfg *config.Config) (auth.SessionStore, *badger.DB, error) {
	if cfg.Storage.SessionStoreType != "badger" {
		return auth.NewMemorySessionStore(), nil, nil
	}
	opts := badger.DefaultOptions(cfg.Storage.SessionDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open session badger db: %w", err)
	}
	return auth.NewBadgerSessionStore(db), db, nil
}

// buildContentModerationWorker assembles the automated image cascade.
// NudeDetector and NsfwClassifier stay nil: no configured detector
// exists for this deployment, so the cascade falls straight through to
// DefaultAction whenever an operator enables content moderation without
// also supplying detection thresholds.
func buildContentModerationWorker(cfg *config.Config, db *sql.DB, pipeline *writepipeline.Pipeline, events eventbus.ModerationPublisher, fetcher contentstore.ModerationFetcher) *moderation.AutomatedContentWorker {
	modCfg := moderation.ContentModerationConfig{
		InitialContent: true,
		AddedContent:   !cfg.Moderation.InitialContentOnly,
		DefaultAction:  moderation.VerdictMoveToHuman,
	}
	if cfg.Moderation.NudeDetectionEnabled {
		modCfg.NudeDetection = &moderation.NudeDetectionConfig{
			MoveRejectedToHuman: cfg.Moderation.NudeMoveRejectedToHuman,
		}
	}
	if cfg.Moderation.NsfwDetectionEnabled {
		reject := cfg.Moderation.NsfwRejectPorn
		hentai := cfg.Moderation.NsfwRejectHentai
		moveToHuman := cfg.Moderation.NsfwMoveToHumanPorn
		rejectF32 := float32(reject)
		hentaiF32 := float32(hentai)
		moveF32 := float32(moveToHuman)
		modCfg.NsfwDetection = &moderation.NsfwDetectionConfig{
			Reject:      &moderation.NsfwThresholds{Porn: &rejectF32, Hentai: &hentaiF32},
			MoveToHuman: &moderation.NsfwThresholds{Porn: &moveF32},
		}
	}

	return &moderation.AutomatedContentWorker{
		DB:       db,
		Pipeline: pipeline,
		Events:   events,
		BotID:    moderationBotAccountID,
		Queue:    models.QueueMedia,
		Decider:  moderation.ContentPipeline{Config: modCfg},
		Fetch:    fetcher,
	}
}

func buildTextModerationWorker(cfg *config.Config, db *sql.DB, pipeline *writepipeline.Pipeline, events eventbus.ModerationPublisher) (*moderation.AutomatedTextWorker, error) {
	client := moderation.NewHTTPLLMClient(cfg.Moderation.LLMBaseURL, cfg.Moderation.LLMAPIKey)
	reviewer, err := moderation.NewTextModeration(moderation.ProfileTextModerationConfig{
		Model:                        cfg.Moderation.ProfileTextModel,
		SystemText:                   cfg.Moderation.ProfileTextSystemPrompt,
		UserTextTemplate:             cfg.Moderation.ProfileTextUserTemplate,
		ExpectedResponse:             cfg.Moderation.ProfileTextExpectedResponse,
		AcceptSingleVisibleCharacter: cfg.Moderation.ProfileTextAcceptSingleVisible,
		MoveRejectedToHuman:          cfg.Moderation.ProfileTextMoveRejectedToHuman,
		MaxTokens:                    cfg.Moderation.ProfileTextMaxTokens,
	}, client)
	if err != nil {
		return nil, err
	}
	if len(cfg.Moderation.ProfileTextBlockedTerms) > 0 {
		blocked := cache.NewAhoCorasick()
		blocked.AddPatterns(cfg.Moderation.ProfileTextBlockedTerms, nil)
		blocked.Build()
		reviewer.BlockedTerms = blocked
	}
	return &moderation.AutomatedTextWorker{
		DB:       db,
		Pipeline: pipeline,
		Events:   events,
		BotID:    moderationBotAccountID,
		Queue:    models.QueueProfileText,
		Reviewer: reviewer,
	}, nil
}

