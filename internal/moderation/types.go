// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import "context"

// Verdict is the outcome of one automated decision stage.
type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictReject
	VerdictMoveToHuman
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictReject:
		return "reject"
	case VerdictMoveToHuman:
		return "move_to_human"
	default:
		return "unknown"
	}
}

// NudeDetector flags images via a cheap skin-tone-ratio heuristic. It
// never accepts outright; a false result simply means the cascade
// continues to the neural classifier.
type NudeDetector interface {
	DetectNude(ctx context.Context, image []byte) (bool, error)
}

// NudeDetectionConfig controls the skin-tone-ratio stage.
type NudeDetectionConfig struct {
	MoveRejectedToHuman bool
}

// NsfwScores holds per-class probabilities from the neural classifier.
type NsfwScores struct {
	Drawings float32
	Hentai   float32
	Neutral  float32
	Porn     float32
	Sexy     float32
}

// NsfwClassifier scores an image against the five nsfw classes.
type NsfwClassifier interface {
	Classify(ctx context.Context, image []byte) (NsfwScores, error)
}

// NsfwThresholds is a set of optional per-class floors; classes left
// nil never trigger this threshold set.
type NsfwThresholds struct {
	Drawings *float32
	Hentai   *float32
	Neutral  *float32
	Porn     *float32
	Sexy     *float32
}

// Exceeds reports whether any configured class threshold is met or
// exceeded by s.
func (t NsfwThresholds) Exceeds(s NsfwScores) bool {
	if t.Drawings != nil && s.Drawings >= *t.Drawings {
		return true
	}
	if t.Hentai != nil && s.Hentai >= *t.Hentai {
		return true
	}
	if t.Neutral != nil && s.Neutral >= *t.Neutral {
		return true
	}
	if t.Porn != nil && s.Porn >= *t.Porn {
		return true
	}
	if t.Sexy != nil && s.Sexy >= *t.Sexy {
		return true
	}
	return false
}

// NsfwDetectionConfig controls the neural-classifier stage. Each of
// Reject/MoveToHuman/Accept is an independent optional threshold set;
// the cascade checks them in that order.
type NsfwDetectionConfig struct {
	Reject      *NsfwThresholds
	MoveToHuman *NsfwThresholds
	Accept      *NsfwThresholds
}

// ContentModerationConfig mirrors the bot config's content_moderation
// table.
type ContentModerationConfig struct {
	InitialContent bool
	AddedContent   bool
	NudeDetection  *NudeDetectionConfig
	NsfwDetection  *NsfwDetectionConfig
	DefaultAction  Verdict
}

// LLMClient completes a single prompt against a text model.
type LLMClient interface {
	Complete(ctx context.Context, model, systemText, prompt string, maxTokens int) (string, error)
}

// ProfileTextModerationConfig mirrors the bot config's
// profile_text_moderation table. UserTextTemplate must contain exactly
// one "%s", substituted with the profile text under review.
type ProfileTextModerationConfig struct {
	Model                        string
	SystemText                   string
	UserTextTemplate             string
	ExpectedResponse             string
	AcceptSingleVisibleCharacter bool
	MoveRejectedToHuman          bool
	MaxTokens                    int
}

// DefaultMaxTokens matches the bot config's default when max_tokens is
// left unset.
const DefaultMaxTokens = 10_000
