// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package eventbus

import (
	"os"
	"strconv"
	"time"
)

// Config controls the bus's delivery behavior. The NATS-backed
// implementation (build tag "nats") additionally reads NATSConfig.
type Config struct {
	// OutputChannelBuffer bounds how many undelivered events queue per
	// topic before Publish blocks. A disconnected account's topic has no
	// subscriber at all, so this is a memory bound on stale events much
	// more than a backpressure knob.
	OutputChannelBuffer int64
	// Persistent, when true (NATS build only), asks the broker to keep
	// events around after publish so a reconnecting subscriber can
	// replay ones it missed while offline.
	Persistent bool
}

// DefaultConfig returns sensible bus settings for a single-instance
// in-process deployment.
func DefaultConfig() Config {
	return Config{
		OutputChannelBuffer: 256,
		Persistent:          false,
	}
}

// NATSConfig configures the NATS JetStream transport (build tag "nats").
type NATSConfig struct {
	URL             string
	StreamName      string
	ConnectTimeout  time.Duration
	ReconnectWait   time.Duration
	MaxReconnects   int
	CircuitTimeout  time.Duration
	CircuitMaxFails uint32
}

// DefaultNATSConfig mirrors the conservative reconnect/circuit-breaker
// posture used elsewhere in this codebase for broker connections.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:             "nats://127.0.0.1:4222",
		StreamName:      "NEARLINE_EVENTS",
		ConnectTimeout:  5 * time.Second,
		ReconnectWait:   2 * time.Second,
		MaxReconnects:   60,
		CircuitTimeout:  30 * time.Second,
		CircuitMaxFails: 5,
	}
}

// NATSConfigFromEnv overlays DefaultNATSConfig with NEARLINE_EVENTBUS_*
// environment variables, for deployments that configure the broker
// without a config file.
func NATSConfigFromEnv() NATSConfig {
	cfg := DefaultNATSConfig()
	if v := os.Getenv("NEARLINE_EVENTBUS_NATS_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("NEARLINE_EVENTBUS_STREAM_NAME"); v != "" {
		cfg.StreamName = v
	}
	if v := os.Getenv("NEARLINE_EVENTBUS_MAX_RECONNECTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxReconnects = n
		}
	}
	return cfg
}
