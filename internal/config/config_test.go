// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "test-secret-key-that-is-at-least-32-characters-long"
	cfg.Security.GoogleClientID = "test-client-id.apps.googleusercontent.com"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected a valid default config to pass, got: %v", err)
	}
}

func TestValidate_MissingJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a missing JWT secret")
	}
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWTSecret = "too-short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a JWT secret under 32 characters")
	}
}

func TestValidate_PlaceholderJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWTSecret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a placeholder JWT secret")
	}
}

func TestValidate_MissingGoogleClientID(t *testing.T) {
	cfg := validConfig()
	cfg.Security.GoogleClientID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a missing Google client ID")
	}
}

func TestValidate_WildcardCORSRejectedInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = "production"
	cfg.Security.CORSOrigins = []string{"*"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected wildcard CORS to be rejected in production")
	}
}

func TestValidate_WildcardCORSAllowedInDevelopment(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = "development"
	cfg.Security.CORSOrigins = []string{"*"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected wildcard CORS to be allowed in development, got: %v", err)
	}
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("expected ShouldWarnAboutCORS to flag a wildcard origin")
	}
}

func TestValidate_PortOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a port above 65535")
	}
}

func TestValidate_RateLimitBoundsIgnoredWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = -1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected out-of-range rate limit to be ignored when disabled, got: %v", err)
	}
}

func TestValidate_NATSURLRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.EventBus.NATSEnabled = true
	cfg.EventBus.NATSURL = "not-a-nats-url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a malformed NATS URL")
	}
}

func TestValidate_LocationIndexGridMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.LocationIndex.GridWidth = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a zero grid width")
	}
}

func TestValidate_ProfileTextModerationRequiresModel(t *testing.T) {
	cfg := validConfig()
	cfg.Moderation.ProfileTextModerationEnabled = true
	cfg.Moderation.ProfileTextModel = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when profile text moderation is enabled without a model")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized log level")
	}
}

func TestIsProduction(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = "production"
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to be true")
	}
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to be false")
	}
}

func TestIsDevelopment_DefaultsEmptyEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = ""
	if !cfg.IsDevelopment() {
		t.Error("expected an empty environment to be treated as development")
	}
}

func TestDecryptSecrets_RoundTrip(t *testing.T) {
	cfg := validConfig()
	encryptor, err := NewCredentialEncryptor(cfg.Security.JWTSecret)
	if err != nil {
		t.Fatalf("NewCredentialEncryptor: %v", err)
	}
	ciphertext, err := encryptor.Encrypt(`{"project_id":"nearline-test"}`)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	cfg.Push.FCMCredentialsEncrypted = ciphertext

	if err := cfg.decryptSecrets(); err != nil {
		t.Fatalf("decryptSecrets: %v", err)
	}
	if cfg.Push.FCMCredentialsJSON != `{"project_id":"nearline-test"}` {
		t.Errorf("FCMCredentialsJSON = %q, want decrypted plaintext", cfg.Push.FCMCredentialsJSON)
	}
}

func TestDecryptSecrets_NoopWhenUnset(t *testing.T) {
	cfg := validConfig()
	if err := cfg.decryptSecrets(); err != nil {
		t.Fatalf("expected no error when no encrypted secret is configured, got: %v", err)
	}
	if cfg.Push.FCMCredentialsJSON != "" {
		t.Error("expected FCMCredentialsJSON to remain empty")
	}
}

func TestDefaultConfig_SessionTimeoutIsReasonable(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Security.SessionTimeout < time.Hour {
		t.Errorf("default session timeout %v looks too short", cfg.Security.SessionTimeout)
	}
}
