// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package config

import "time"

// Config holds all application configuration loaded from environment
// variables and an optional config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for every setting
//  2. Config File: optional YAML config file for persistent settings
//  3. Environment Variables: override any setting via NEARLINE_* variables
//
// Config is immutable after Load() returns and is safe for concurrent
// read access from multiple goroutines.
type Config struct {
	Database      DatabaseConfig      `koanf:"database"`
	Server        ServerConfig        `koanf:"server"`
	API           APIConfig           `koanf:"api"`
	Security      SecurityConfig      `koanf:"security"`
	Logging       LoggingConfig       `koanf:"logging"`
	EventBus      EventBusConfig      `koanf:"eventbus"`
	Push          PushConfig          `koanf:"push"`
	LocationIndex LocationIndexConfig `koanf:"location_index"`
	Moderation    ModerationConfig    `koanf:"moderation"`
	Storage       StorageConfig       `koanf:"storage"`
}

// StorageConfig points at the filesystem locations this deployment's
// non-SQLite stores use: uploaded media blobs, the BadgerDB-backed push
// token store, and (when SessionStoreType is "badger") persisted login
// sessions.
type StorageConfig struct {
	ContentDir       string `koanf:"content_dir"`
	PushTokenDir     string `koanf:"push_token_dir"`
	SessionStoreType string `koanf:"session_store_type"` // "memory" or "badger"
	SessionDir       string `koanf:"session_dir"`
}

// DatabaseConfig points at the two SQLite databases every account write
// fans out to: the current-state database reads are served from, and
// the append-only history database the write pipeline mirrors into.
type DatabaseConfig struct {
	CurrentPath string `koanf:"current_path"`
	HistoryPath string `koanf:"history_path"`
}

// ServerConfig holds HTTP and WebSocket listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// APIConfig holds pagination defaults for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication, rate limiting and transport
// security settings. Authentication is Google Sign-In only: a client
// obtains a Google ID token itself and trades it for one of this
// server's access tokens, so there are no local passwords to configure.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// GoogleClientID is the OAuth 2.0 client ID Google ID tokens must
	// carry as their audience.
	GoogleClientID string `koanf:"google_client_id"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig holds logging settings for zerolog.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is the output format: json or console.
	Format string `koanf:"format"`
	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// EventBusConfig controls the live-event fan-out a WebSocket connection
// subscribes to. The in-process bus only needs OutputChannelBuffer; a
// multi-instance deployment also sets NATSEnabled and the NATS fields,
// which only take effect when built with the "nats" build tag.
type EventBusConfig struct {
	OutputChannelBuffer int64 `koanf:"output_channel_buffer"`
	Persistent          bool  `koanf:"persistent"`

	NATSEnabled    bool          `koanf:"nats_enabled"`
	NATSURL        string        `koanf:"nats_url"`
	NATSStreamName string        `koanf:"nats_stream_name"`
	NATSConnectTimeout time.Duration `koanf:"nats_connect_timeout"`
	NATSReconnectWait  time.Duration `koanf:"nats_reconnect_wait"`
	NATSMaxReconnects  int           `koanf:"nats_max_reconnects"`
}

// PushConfig holds the FCM project credentials used to deliver pending
// notifications to devices that are not currently connected over
// WebSocket.
type PushConfig struct {
	FCMProjectID       string `koanf:"fcm_project_id"`
	FCMCredentialsPath string `koanf:"fcm_credentials_path"`
	// FCMCredentialsEncrypted, when set instead of FCMCredentialsPath,
	// is AES-256-GCM ciphertext (see CredentialEncryptor) decrypted at
	// load time using a key derived from Security.JWTSecret; the result
	// lands in FCMCredentialsJSON.
	FCMCredentialsEncrypted string `koanf:"fcm_credentials_encrypted"`
	// FCMCredentialsJSON holds the plaintext service-account JSON once
	// FCMCredentialsEncrypted has been decrypted. Never set directly.
	FCMCredentialsJSON string `koanf:"-"`
}

// LocationIndexConfig sizes the fixed grid the location index partitions
// the world into. Width and height are cell counts along each axis, not
// physical distances; internal/locationindex derives cell size from
// whatever coordinate range the deployment maps onto the grid.
type LocationIndexConfig struct {
	GridWidth  uint16 `koanf:"grid_width"`
	GridHeight uint16 `koanf:"grid_height"`
}

// ModerationConfig controls the automated moderation cascade applied to
// newly uploaded profile content and edited profile text.
type ModerationConfig struct {
	ContentModerationEnabled bool `koanf:"content_moderation_enabled"`
	// InitialContentOnly, when true, only screens an account's very
	// first piece of content; added content after that is trusted.
	InitialContentOnly bool `koanf:"initial_content_only"`

	NudeDetectionEnabled       bool `koanf:"nude_detection_enabled"`
	NudeMoveRejectedToHuman    bool `koanf:"nude_move_rejected_to_human"`

	NsfwDetectionEnabled bool    `koanf:"nsfw_detection_enabled"`
	NsfwRejectPorn       float64 `koanf:"nsfw_reject_porn"`
	NsfwRejectHentai     float64 `koanf:"nsfw_reject_hentai"`
	NsfwMoveToHumanPorn  float64 `koanf:"nsfw_move_to_human_porn"`

	ProfileTextModerationEnabled   bool   `koanf:"profile_text_moderation_enabled"`
	ProfileTextModel               string `koanf:"profile_text_model"`
	ProfileTextSystemPrompt        string `koanf:"profile_text_system_prompt"`
	ProfileTextUserTemplate        string `koanf:"profile_text_user_template"`
	ProfileTextExpectedResponse    string `koanf:"profile_text_expected_response"`
	ProfileTextAcceptSingleVisible bool   `koanf:"profile_text_accept_single_visible_character"`
	ProfileTextMaxTokens           int    `koanf:"profile_text_max_tokens"`
	ProfileTextMoveRejectedToHuman bool   `koanf:"profile_text_move_rejected_to_human"`
	// ProfileTextBlockedTerms is a comma-separated list of terms
	// checked against profile text before the LLM is consulted. A
	// match skips straight to reject (or move-to-human).
	ProfileTextBlockedTerms []string `koanf:"profile_text_blocked_terms"`

	LLMBaseURL string `koanf:"llm_base_url"`
	LLMAPIKey  string `koanf:"llm_api_key"`
}

// Load builds a Config from defaults, an optional config file and
// environment variables, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
