// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package eventbus

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/nearline-social/nearline/internal/models"
)

// Kind identifies what changed, mirroring the sync-version fields an
// account polls for (see storage.BumpSync): a client that missed an
// event can always fall back to asking "what changed since version N".
type Kind string

const (
	KindAccount        Kind = "account"
	KindProfile        Kind = "profile"
	KindNews           Kind = "news"
	KindContent        Kind = "content"
	KindSentLikes      Kind = "sent_likes"
	KindReceivedLikes  Kind = "received_likes"
	KindMatches        Kind = "matches"
	KindSentBlocks     Kind = "sent_blocks"
	KindReceivedBlocks Kind = "received_blocks"
	KindMessage        Kind = "message"
	KindModeration     Kind = "moderation"
)

// Event is a notification that an account's state changed. Payload is
// an opaque, kind-specific blob (for KindMessage, the pending message's
// id is enough; subscribers re-read current state rather than trust a
// stale snapshot carried in the event itself).
type Event struct {
	Kind    Kind             `json:"kind"`
	Account models.AccountID `json:"account"`
	Payload []byte           `json:"payload,omitempty"`
}

// Topic returns the subject an event for (kind, account) publishes and
// subscribes on. One topic per account keeps a disconnected account's
// backlog small and lets a subscriber unsubscribe the instant the
// client disconnects, without filtering a shared firehose.
func Topic(kind Kind, account models.AccountID) string {
	return fmt.Sprintf("nearline.%s.%d", kind, account)
}

func marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func unmarshal(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
