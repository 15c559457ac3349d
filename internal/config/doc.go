// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

/*
Package config provides centralized configuration management for Nearline.

# Configuration Sources

The package reads configuration, in order of increasing priority:

  - Built-in defaults (defaultConfig)
  - An optional YAML config file (config.yaml, or NEARLINE_CONFIG_PATH)
  - NEARLINE_*-prefixed environment variables

# Configuration Structure

  - DatabaseConfig: paths to the current-state and history SQLite databases
  - ServerConfig: HTTP/WebSocket listener settings
  - APIConfig: pagination defaults
  - SecurityConfig: JWT signing, Google Sign-In client ID, rate limiting, CORS
  - LoggingConfig: zerolog level/format/caller settings
  - EventBusConfig: live-event fan-out buffering and optional NATS transport
  - PushConfig: FCM credentials for offline push delivery
  - LocationIndexConfig: grid dimensions for the spatial index
  - ModerationConfig: automated content and profile-text moderation cascade

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal("failed to load config:", err)
	}
	server := http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)}

# Validation

Load validates the result and fails fast on a missing JWT secret, a
missing Google client ID, out-of-range ports or rate limits, wildcard
CORS in production, and a few other misconfigurations that are cheap to
catch at startup.

# Thread Safety

Config is immutable after Load() returns and is safe for concurrent read
access from multiple goroutines.
*/
package config
