// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"context"
	"database/sql"

	"github.com/nearline-social/nearline/internal/metrics"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// ContentFetcher loads the raw bytes of an uploaded content item so
// the automated cascade can inspect it.
type ContentFetcher interface {
	FetchContent(ctx context.Context, contentID int64) ([]byte, error)
}

// AutomatedContentWorker checks out one Waiting request at a time
// under botID, runs it through pipeline, and either resolves it
// directly (Accept/Reject) or releases it back to Waiting for a human
// moderator (MoveToHuman).
type AutomatedContentWorker struct {
	DB       *sql.DB
	Pipeline *writepipeline.Pipeline
	Events   EventPublisher
	BotID    models.AccountID
	Queue    models.QueueType
	Decider  ContentPipeline
	Fetch    ContentFetcher
}

// ProcessNext handles a single request and reports whether one was
// available. Callers loop until it returns false to drain a queue.
func (w *AutomatedContentWorker) ProcessNext(ctx context.Context) (bool, error) {
	claimed, err := Checkout(ctx, w.DB, w.Queue, w.BotID, 1)
	if err != nil {
		return false, err
	}
	if len(claimed) == 0 {
		return false, nil
	}
	req := claimed[0]

	image, err := w.Fetch.FetchContent(ctx, req.ContentID)
	if err != nil {
		return true, err
	}

	verdict, category, err := w.Decider.Decide(ctx, image)
	if err != nil {
		return true, err
	}
	metrics.RecordModerationDecision("content", verdict.String())

	switch verdict {
	case VerdictMoveToHuman:
		return true, storage.ReleaseToHuman(ctx, w.DB, req.RequestID)
	case VerdictAccept:
		return true, Resolve(ctx, w.Pipeline, w.Events, req.RequestID, w.BotID, true, models.RejectionCategoryNone, "")
	default:
		return true, Resolve(ctx, w.Pipeline, w.Events, req.RequestID, w.BotID, false, category, "")
	}
}

// AutomatedTextWorker is the text-queue equivalent of
// AutomatedContentWorker, driving TextModeration instead of an image
// cascade. It applies to both QueueProfileText and QueueProfileName.
type AutomatedTextWorker struct {
	DB       *sql.DB
	Pipeline *writepipeline.Pipeline
	Events   EventPublisher
	BotID    models.AccountID
	Queue    models.QueueType
	Reviewer *TextModeration
}

// ProcessNext handles a single request and reports whether one was
// available.
func (w *AutomatedTextWorker) ProcessNext(ctx context.Context) (bool, error) {
	claimed, err := Checkout(ctx, w.DB, w.Queue, w.BotID, 1)
	if err != nil {
		return false, err
	}
	if len(claimed) == 0 {
		return false, nil
	}
	req := claimed[0]

	verdict, err := w.Reviewer.Review(ctx, req.TextSnapshot)
	if err != nil {
		return true, err
	}
	metrics.RecordModerationDecision("text", verdict.String())

	switch verdict {
	case VerdictMoveToHuman:
		return true, storage.ReleaseToHuman(ctx, w.DB, req.RequestID)
	case VerdictAccept:
		return true, Resolve(ctx, w.Pipeline, w.Events, req.RequestID, w.BotID, true, models.RejectionCategoryNone, "")
	default:
		return true, Resolve(ctx, w.Pipeline, w.Events, req.RequestID, w.BotID, false, models.RejectionCategoryPolicyText, "")
	}
}
