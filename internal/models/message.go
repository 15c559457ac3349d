// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

import "time"

// PendingMessage is a sent-but-not-fully-acknowledged chat message.
// It is deleted once both SenderAck and ReceiverAck are true.
type PendingMessage struct {
	Sender   AccountID
	Receiver AccountID

	// MessageNumber is unique and monotone per interaction; 0 is reserved
	// so "latest viewed == 0" unambiguously means "nothing viewed".
	MessageNumber uint64

	SenderClientID      string
	SenderClientLocalID int64

	Payload []byte
	SentAt  time.Time

	SenderAck   bool
	ReceiverAck bool
}

// Acked reports whether both sides have acknowledged the message.
func (m PendingMessage) Acked() bool {
	return m.SenderAck && m.ReceiverAck
}

// IdempotencyKey identifies a send for retry-safe resubmission: a retried
// send with the same (sender, client id, client local id) must return the
// existing entry instead of creating a new message.
type IdempotencyKey struct {
	Sender         AccountID
	ClientID       string
	ClientLocalID  int64
}
