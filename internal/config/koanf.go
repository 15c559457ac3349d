// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nearline/config.yaml",
	"/etc/nearline/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "NEARLINE_CONFIG_PATH"

// defaultConfig returns a Config with every field set to its built-in
// default, applied before the config file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			CurrentPath: "/data/nearline-current.sqlite",
			HistoryPath: "/data/nearline-history.sqlite",
		},
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			GoogleClientID:    "",
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		EventBus: EventBusConfig{
			OutputChannelBuffer: 256,
			Persistent:          false,
			NATSEnabled:         false,
			NATSURL:             "nats://127.0.0.1:4222",
			NATSStreamName:      "NEARLINE_EVENTS",
			NATSConnectTimeout:  5 * time.Second,
			NATSReconnectWait:   2 * time.Second,
			NATSMaxReconnects:   60,
		},
		Push: PushConfig{
			FCMProjectID:            "",
			FCMCredentialsPath:      "",
			FCMCredentialsEncrypted: "",
		},
		LocationIndex: LocationIndexConfig{
			GridWidth:  1000,
			GridHeight: 1000,
		},
		Moderation: ModerationConfig{
			ContentModerationEnabled:      false,
			InitialContentOnly:            true,
			NudeDetectionEnabled:          false,
			NudeMoveRejectedToHuman:       true,
			NsfwDetectionEnabled:          false,
			NsfwRejectPorn:                0.9,
			NsfwRejectHentai:              0.9,
			NsfwMoveToHumanPorn:           0.6,
			ProfileTextModerationEnabled:  false,
			ProfileTextModel:              "",
			ProfileTextSystemPrompt:       "",
			ProfileTextUserTemplate:        "%s",
			ProfileTextExpectedResponse:    "acceptable",
			ProfileTextAcceptSingleVisible: true,
			ProfileTextMaxTokens:          10_000,
			ProfileTextMoveRejectedToHuman: true,
			ProfileTextBlockedTerms:        []string{},
			LLMBaseURL:                    "",
			LLMAPIKey:                     "",
		},
		Storage: StorageConfig{
			ContentDir:       "/data/content",
			PushTokenDir:     "/data/pushtokens",
			SessionStoreType: "memory",
			SessionDir:       "/data/sessions",
		},
	}
}

// LoadWithKoanf loads configuration in three layers, each overriding the
// last: built-in defaults, an optional YAML config file, then
// NEARLINE_*-prefixed environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("NEARLINE_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.decryptSecrets(); err != nil {
		return nil, fmt.Errorf("failed to decrypt configured secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths that arrive as a comma-separated
// string from the environment but unmarshal into a []string field.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"moderation.profile_text_blocked_terms",
}

// processSliceFields splits comma-separated env values for the paths in
// sliceConfigPaths; values already loaded as a slice (from a YAML file)
// are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps a NEARLINE_-prefixed environment variable name
// (already stripped of its prefix by env.Provider) to its koanf path.
//
// Examples:
//   - JWT_SECRET -> security.jwt_secret
//   - GOOGLE_CLIENT_ID -> security.google_client_id
//   - DATABASE_CURRENT_PATH -> database.current_path
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"database_current_path": "database.current_path",
		"database_history_path": "database.history_path",

		"http_port":        "server.port",
		"http_host":        "server.host",
		"http_timeout":     "server.timeout",
		"environment":      "server.environment",

		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		"jwt_secret":           "security.jwt_secret",
		"session_timeout":      "security.session_timeout",
		"google_client_id":     "security.google_client_id",
		"rate_limit_requests":  "security.rate_limit_reqs",
		"rate_limit_window":    "security.rate_limit_window",
		"disable_rate_limit":   "security.rate_limit_disabled",
		"cors_origins":         "security.cors_origins",
		"trusted_proxies":      "security.trusted_proxies",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"eventbus_output_channel_buffer": "eventbus.output_channel_buffer",
		"eventbus_persistent":            "eventbus.persistent",
		"eventbus_nats_enabled":          "eventbus.nats_enabled",
		"eventbus_nats_url":              "eventbus.nats_url",
		"eventbus_stream_name":           "eventbus.nats_stream_name",
		"eventbus_nats_connect_timeout":  "eventbus.nats_connect_timeout",
		"eventbus_nats_reconnect_wait":   "eventbus.nats_reconnect_wait",
		"eventbus_max_reconnects":        "eventbus.nats_max_reconnects",

		"fcm_project_id":           "push.fcm_project_id",
		"fcm_credentials_path":     "push.fcm_credentials_path",
		"fcm_credentials_encrypted": "push.fcm_credentials_encrypted",

		"location_grid_width":  "location_index.grid_width",
		"location_grid_height": "location_index.grid_height",

		"content_moderation_enabled":         "moderation.content_moderation_enabled",
		"moderation_initial_content_only":    "moderation.initial_content_only",
		"nude_detection_enabled":             "moderation.nude_detection_enabled",
		"nude_move_rejected_to_human":        "moderation.nude_move_rejected_to_human",
		"nsfw_detection_enabled":             "moderation.nsfw_detection_enabled",
		"nsfw_reject_porn":                   "moderation.nsfw_reject_porn",
		"nsfw_reject_hentai":                 "moderation.nsfw_reject_hentai",
		"nsfw_move_to_human_porn":            "moderation.nsfw_move_to_human_porn",
		"profile_text_moderation_enabled":    "moderation.profile_text_moderation_enabled",
		"profile_text_model":                 "moderation.profile_text_model",
		"profile_text_system_prompt":         "moderation.profile_text_system_prompt",
		"profile_text_user_template":         "moderation.profile_text_user_template",
		"profile_text_expected_response":      "moderation.profile_text_expected_response",
		"profile_text_accept_single_visible_character": "moderation.profile_text_accept_single_visible_character",
		"profile_text_max_tokens":            "moderation.profile_text_max_tokens",
		"profile_text_move_rejected_to_human": "moderation.profile_text_move_rejected_to_human",
		"profile_text_blocked_terms":          "moderation.profile_text_blocked_terms",
		"llm_base_url":                       "moderation.llm_base_url",
		"llm_api_key":                        "moderation.llm_api_key",

		"content_dir":         "storage.content_dir",
		"push_token_dir":      "storage.push_token_dir",
		"session_store_type":  "storage.session_store_type",
		"session_dir":         "storage.session_dir",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, skip rather than let arbitrary environment
	// variables pollute the configuration tree.
	return ""
}

// GetKoanfInstance returns a fresh Koanf instance for advanced usage such
// as tests that need to inspect intermediate loading layers.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile watches path for changes and invokes callback on each
// one. The caller is responsible for reloading configuration (typically
// via LoadWithKoanf) and guarding access to it with a mutex.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
