// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package eventbus

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/nearline-social/nearline/internal/models"
)

// ModerationPublisher adapts a Bus to moderation.EventPublisher, so
// resolving a queued moderation request notifies whichever gateway
// connection the content's owner is on without moderation importing
// this package (or anything about Watermill) itself.
type ModerationPublisher struct {
	Bus *Bus
}

type moderationCompletedPayload struct {
	Queue    string `json:"queue"`
	Accepted bool   `json:"accepted"`
}

type visibilityChangedPayload struct {
	Visibility string `json:"visibility"`
}

// PublishModerationCompleted implements moderation.EventPublisher.
func (m ModerationPublisher) PublishModerationCompleted(ctx context.Context, owner models.AccountID, queue models.QueueType, accepted bool) error {
	payload, err := json.Marshal(moderationCompletedPayload{Queue: strconv.Itoa(int(queue)), Accepted: accepted})
	if err != nil {
		return err
	}
	return m.Bus.Publish(Event{Kind: KindModeration, Account: owner, Payload: payload})
}

// PublishVisibilityChanged implements moderation.EventPublisher.
func (m ModerationPublisher) PublishVisibilityChanged(ctx context.Context, owner models.AccountID, vis models.Visibility) error {
	payload, err := json.Marshal(visibilityChangedPayload{Visibility: strconv.Itoa(int(vis))})
	if err != nil {
		return err
	}
	return m.Bus.Publish(Event{Kind: KindContent, Account: owner, Payload: payload})
}
