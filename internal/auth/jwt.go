// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nearline-social/nearline/internal/config"
	"github.com/nearline-social/nearline/internal/models"
)

// Claims is the payload of an access token issued after a Google
// sign-in. Account and Permissions are the only authorization-relevant
// fields; email and display name live in the session, not the token,
// so a token never needs re-issuing when a profile's name changes.
type Claims struct {
	Account     models.AccountID   `json:"acc"`
	Permissions models.Permissions `json:"perm"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies access tokens with HMAC-SHA256.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager builds a JWTManager from the configured secret and
// session timeout. Returns an error if JWTSecret is empty.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret:  []byte(secret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// GenerateToken issues a signed access token for account, valid for the
// manager's configured timeout.
func (m *JWTManager) GenerateToken(account models.AccountID, permissions models.Permissions) (string, error) {
	claims := &Claims{
		Account:     account,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken parses and verifies tokenString, rejecting anything not
// signed with this manager's HMAC secret (algorithm confusion included),
// expired, or structurally invalid.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
