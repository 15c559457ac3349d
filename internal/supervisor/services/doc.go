// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

/*
Package services provides suture.Service wrappers for the server's
long-running components.

This package adapts existing application components to the suture v4 supervision
model, translating various lifecycle patterns (Start/Stop, poll loops,
ListenAndServe) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (poll loops, tickers, ListenAndServe) to the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

WebSocket Hub (WebSocketHubService):
  - Wraps wsgateway.Hub's RunWithContext
  - Handles client connection cleanup on shutdown

Moderation Worker (ModerationWorkerService):
  - Wraps moderation.AutomatedContentWorker / AutomatedTextWorker
  - Drains the queue as fast as requests are claimable, idles between checks
  - One instance per queue (content, profile text, profile name)

BadgerDB Garbage Collection (BadgerGCService):
  - Runs pushtoken.TokenStore.RunGC on a fixed interval
  - Reclaims value-log space BadgerDB never frees on its own

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/nearline-social/nearline/internal/supervisor"
	    "github.com/nearline-social/nearline/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, hub *wsgateway.Hub, contentWorker *moderation.AutomatedContentWorker) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 15s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 15*time.Second)
	    tree.AddAPIService(httpSvc)

	    // WebSocket hub
	    wsSvc := services.NewWebSocketHubService(hub)
	    tree.AddAPIService(wsSvc)

	    // Content moderation worker
	    modSvc := services.NewModerationWorkerService("content-moderation", contentWorker, 2*time.Second)
	    tree.AddMessagingService(modSvc)

	    // Start supervision
	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles two common lifecycle patterns:

Poll Loop Pattern:

	type Drainer interface {
	    ProcessNext(ctx context.Context) (bool, error)
	}

	// Wrapped as:
	func (s *ModerationWorkerService) Serve(ctx context.Context) error {
	    for {
	        processed, err := s.worker.ProcessNext(ctx)
	        if err != nil { return err }
	        if !processed {
	            select {
	            case <-ctx.Done(): return ctx.Err()
	            case <-time.After(s.idleInterval):
	            }
	        }
	    }
	}

ListenAndServe Pattern:

	type Listener interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *HTTPServerService) String() string {
	    return "http-server"
	}

Suture uses this for log messages:

	INFO http-server: starting
	INFO http-server: stopped
	ERROR http-server: restarting after failure

# Thread Safety

All service wrappers are safe for concurrent use:
  - State is protected by mutexes where needed
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/wsgateway: WebSocket hub implementation
  - internal/moderation: Automated moderation workers
*/
package services
