// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sony/gobreaker/v2"

	"github.com/nearline-social/nearline/internal/cache"
	"github.com/nearline-social/nearline/internal/metrics"
)

// TextModeration reviews profile text (and names) against an LLM,
// behind a circuit breaker so a struggling model degrades to
// MoveToHuman instead of stalling every request.
type TextModeration struct {
	Config  ProfileTextModerationConfig
	Client  LLMClient
	breaker *gobreaker.CircuitBreaker[string]

	// BlockedTerms, when set, is checked before the LLM is ever
	// consulted. A match rejects outright (or moves to human review,
	// per Config.MoveRejectedToHuman) without spending a completion.
	BlockedTerms *cache.AhoCorasick
}

// NewTextModeration builds a TextModeration with a circuit breaker
// tuned for an external, possibly self-hosted LLM endpoint: a handful
// of consecutive failures trips it, and it probes again after a short
// cool-down.
func NewTextModeration(cfg ProfileTextModerationConfig, client LLMClient) (*TextModeration, error) {
	if strings.Count(cfg.UserTextTemplate, "%s") != 1 {
		return nil, fmt.Errorf("moderation: user_text_template must contain exactly one %%s, got %q", cfg.UserTextTemplate)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "profile-text-moderation-llm",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
	return &TextModeration{Config: cfg, Client: client, breaker: breaker}, nil
}

// isSingleVisibleCharacter reports whether s, once whitespace is
// stripped, is exactly one rune long.
func isSingleVisibleCharacter(s string) bool {
	count := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		count++
		if count > 1 {
			return false
		}
	}
	return count == 1
}

// matchesExpected reports whether response, trimmed and lower-cased,
// starts with expected or has expected in its first line — the same
// "starts with or first-line-contains" rule profile-text review uses.
func matchesExpected(response, expected string) bool {
	response = strings.ToLower(strings.TrimSpace(response))
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" {
		return false
	}
	if strings.HasPrefix(response, expected) {
		return true
	}
	firstLine, _, _ := strings.Cut(response, "\n")
	return strings.Contains(firstLine, expected)
}

// Review decides whether text is acceptable. A single-visible-character
// text is auto-accepted when the config allows it, without consulting
// the LLM.
func (m *TextModeration) Review(ctx context.Context, text string) (Verdict, error) {
	if m.Config.AcceptSingleVisibleCharacter && isSingleVisibleCharacter(text) {
		return VerdictAccept, nil
	}

	if m.BlockedTerms != nil && m.BlockedTerms.Contains(text) {
		if m.Config.MoveRejectedToHuman {
			return VerdictMoveToHuman, nil
		}
		return VerdictReject, nil
	}

	prompt := fmt.Sprintf(m.Config.UserTextTemplate, text)
	response, err := m.breaker.Execute(func() (string, error) {
		return m.Client.Complete(ctx, m.Config.Model, m.Config.SystemText, prompt, m.Config.MaxTokens)
	})
	if err != nil {
		if m.Config.MoveRejectedToHuman {
			return VerdictMoveToHuman, nil
		}
		return VerdictReject, err
	}

	if matchesExpected(response, m.Config.ExpectedResponse) {
		return VerdictAccept, nil
	}
	if m.Config.MoveRejectedToHuman {
		return VerdictMoveToHuman, nil
	}
	return VerdictReject, nil
}
