// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and within
// sensible bounds.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateEventBus(); err != nil {
		return err
	}
	if err := c.validateLocationIndex(); err != nil {
		return err
	}
	if err := c.validateModeration(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	return nil
}

// Rate limit bounds, same posture as the teacher's: misconfiguration
// should fail loudly at startup rather than silently disable or
// overprotect the API.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("security.jwt_secret contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}

	if c.Security.GoogleClientID == "" {
		return fmt.Errorf("security.google_client_id is required for Google Sign-In verification")
	}

	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("security.cors_origins=* (wildcard) is not allowed in production. " +
			"Set specific origins or use server.environment=development for testing")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("security.rate_limit_reqs must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("security.rate_limit_window must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports whether the CORS configuration has a
// security concern worth logging at startup without being fatal.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS() && !c.IsProduction()
}

func (c *Config) validateEventBus() error {
	if !c.EventBus.NATSEnabled {
		return nil
	}
	if err := validateNATSURL(c.EventBus.NATSURL); err != nil {
		return fmt.Errorf("eventbus.nats_url is invalid: %w", err)
	}
	if c.EventBus.NATSMaxReconnects < 0 {
		return fmt.Errorf("eventbus.nats_max_reconnects must be non-negative")
	}
	return nil
}

func (c *Config) validateLocationIndex() error {
	if c.LocationIndex.GridWidth == 0 || c.LocationIndex.GridHeight == 0 {
		return fmt.Errorf("location_index grid_width and grid_height must both be positive")
	}
	return nil
}

func (c *Config) validateModeration() error {
	if !c.Moderation.ProfileTextModerationEnabled {
		return nil
	}
	if c.Moderation.ProfileTextModel == "" {
		return fmt.Errorf("moderation.profile_text_model is required when profile text moderation is enabled")
	}
	if c.Moderation.LLMBaseURL != "" {
		if err := validateHTTPURL(c.Moderation.LLMBaseURL, "moderation.llm_base_url"); err != nil {
			return fmt.Errorf("moderation.llm_base_url is invalid: %w", err)
		}
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, console")
	}
	return nil
}

// IsProduction reports whether the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment reports whether the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// decryptSecrets resolves any *Encrypted config field into its plaintext
// counterpart using a key derived from the JWT secret, so a deployment
// can check ciphertext into a less-trusted config file instead of a raw
// credential.
func (c *Config) decryptSecrets() error {
	if c.Push.FCMCredentialsEncrypted == "" {
		return nil
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("push.fcm_credentials_encrypted is set but security.jwt_secret is empty")
	}
	encryptor, err := NewCredentialEncryptor(c.Security.JWTSecret)
	if err != nil {
		return fmt.Errorf("build credential encryptor: %w", err)
	}
	plaintext, err := encryptor.Decrypt(c.Push.FCMCredentialsEncrypted)
	if err != nil {
		return fmt.Errorf("decrypt push.fcm_credentials_encrypted: %w", err)
	}
	c.Push.FCMCredentialsJSON = plaintext
	return nil
}

// placeholderPatterns are common values left behind when a deployer
// forgets to set a real secret.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"TODO",
	"FIXME",
	"XXX",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
