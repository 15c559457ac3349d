// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

/*
Package main is the entry point for the Nearline server application.

Nearline is a location-aware dating and social backend. It serves an
encrypted profile discovery and matching API, location-bucketed nearby
search, direct messaging with offline delivery, push notifications,
and a human-plus-automated content moderation pipeline.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("nearline")
	├── DataSupervisor ("data-layer")
	│   └── Push token store GC (BadgerDB)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (real-time location/chat/news updates)
	│   ├── Event bus (in-process, optionally NATS JetStream — -tags nats)
	│   └── Automated moderation workers (content + profile text)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Storage: two SQLite databases (current state + append-only history)
 4. Supporting state: content blob store, account cache, location index,
    push token store, event bus
 5. Authentication: Google Sign-In verifier, JWT session issuance
 6. Moderation: bot account bootstrap, automated content/text workers
 7. Write pipeline, WebSocket hub, HTTP handler/router
 8. Supervisor tree: Suture v4 process supervision
 9. HTTP server

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Authentication
	JWT_SECRET=<32+ chars>
	GOOGLE_CLIENT_ID=<oauth client id>

	# Storage
	CONTENT_DIR=/data/content
	PUSH_TOKEN_DIR=/data/push-tokens
	SESSION_STORE_TYPE=memory    # memory or badger
	SESSION_DIR=/data/sessions

	# Moderation (all optional; disabled by default)
	CONTENT_MODERATION_ENABLED=false
	PROFILE_TEXT_MODERATION_ENABLED=false
	PROFILE_TEXT_BLOCKED_TERMS=                # comma-separated, optional
	LLM_BASE_URL=http://localhost:11434/v1

See internal/config.Config for the complete set of fields, or set
NEARLINE_CONFIG_PATH to point at a YAML file using the same keys.

# Build Tags

	go build ./cmd/server                # in-process event bus only
	go build -tags nats ./cmd/server     # NATS JetStream event bus

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Waits for in-flight requests (supervisor shutdown timeout)
 3. Stops the WebSocket hub, moderation workers, and push token GC
 4. Closes both SQLite databases
 5. Reports any services that failed to stop in time

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/httpapi: HTTP handlers and routing
  - internal/writepipeline: Serialized state-changing operations
  - DESIGN.md: Component grounding and design decisions
*/
package main
