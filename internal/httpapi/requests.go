// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

// ProfileUpdateRequest updates the mutable fields of a Profile. Fields
// left at the zero value are not considered "unset" by this API: the
// client always sends the full profile it wants in place, matching the
// data layer's UpsertProfile semantics.
type ProfileUpdateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Age  int32  `json:"age" validate:"required,min=18,max=99"`
	Text string `json:"text" validate:"max=2000"`
}

// SearchAgeRangeRequest sets an account's desired candidate age window.
type SearchAgeRangeRequest struct {
	Min int32 `json:"min" validate:"required,min=18,max=99"`
	Max int32 `json:"max" validate:"required,min=18,max=99,gtefield=Min"`
}

// LocationUpdateRequest moves an account to a new grid cell.
type LocationUpdateRequest struct {
	X uint16 `json:"x"`
	Y uint16 `json:"y"`
}

// VisibilityUpdateRequest sets an account's discovery visibility.
type VisibilityUpdateRequest struct {
	Visibility int `json:"visibility" validate:"min=0,max=3"`
}

// IteratorResetRequest starts a fresh profile-discovery iterator from
// a viewport area anchored at Start.
type IteratorResetRequest struct {
	MinX  uint16 `json:"min_x"`
	MinY  uint16 `json:"min_y"`
	MaxX  uint16 `json:"max_x"`
	MaxY  uint16 `json:"max_y"`
	StartX uint16 `json:"start_x"`
	StartY uint16 `json:"start_y"`
}

// SendMessageRequest sends a chat message; ClientID/ClientLocalID form
// the idempotency key a retried send is deduplicated against.
type SendMessageRequest struct {
	ReceiverID    int64  `json:"receiver_id" validate:"required"`
	ClientID      string `json:"client_id" validate:"required"`
	ClientLocalID int64  `json:"client_local_id" validate:"required"`
	Payload       []byte `json:"payload" validate:"required"`
}

// AckReceivedRequest acknowledges delivery of one or more messages sent
// to the caller.
type AckReceivedRequest struct {
	SenderID       int64    `json:"sender_id" validate:"required"`
	MessageNumbers []uint64 `json:"message_numbers" validate:"required,min=1"`
}

// AckSentRequest acknowledges the caller's own sent message reached the
// server durably, identified by the same idempotency key Send used.
type AckSentRequest struct {
	ClientID      string `json:"client_id" validate:"required"`
	ClientLocalID int64  `json:"client_local_id" validate:"required"`
}

// MarkViewedRequest records the latest message number the caller has
// viewed in a conversation with Other.
type MarkViewedRequest struct {
	OtherID int64  `json:"other_id" validate:"required"`
	Number  uint64 `json:"number" validate:"required"`
}

// ModerationDecisionRequest records a moderator's verdict on a
// checked-out request.
type ModerationDecisionRequest struct {
	RequestID int64  `json:"request_id" validate:"required"`
	Accept    bool   `json:"accept"`
	Category  int    `json:"category" validate:"min=0,max=4"`
	Details   string `json:"details" validate:"max=500"`
}

// NewsTranslationRequest upserts one locale's rendering of a news item.
type NewsTranslationRequest struct {
	Locale string `json:"locale" validate:"required,len=2"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"required,max=10000"`
}

// DeviceTokenRequest registers the FCM token push notifications for the
// caller's account are delivered to. PreviousToken is the
// pending-notification token the last registration issued, so the
// server can revoke it atomically with issuing a new one; it is empty
// on first registration.
type DeviceTokenRequest struct {
	FCMToken      string `json:"fcm_token" validate:"required"`
	PreviousToken string `json:"previous_token"`
}

// PendingTokenExchangeRequest redeems a PendingNotificationToken a push
// payload carried, identifying the account whose pending notification
// flags the client should now drain.
type PendingTokenExchangeRequest struct {
	Token string `json:"token" validate:"required"`
}
