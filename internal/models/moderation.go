// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package models

import "time"

// QueueType selects one of the four FIFO moderation queues.
type QueueType int

const (
	QueueInitialMedia QueueType = iota
	QueueMedia
	QueueProfileText
	QueueProfileName
)

func (q QueueType) String() string {
	switch q {
	case QueueInitialMedia:
		return "initial_media"
	case QueueMedia:
		return "media"
	case QueueProfileText:
		return "profile_text"
	case QueueProfileName:
		return "profile_name"
	default:
		return "unknown"
	}
}

// RequestState is the lifecycle of one moderation request.
type RequestState int

const (
	RequestWaiting RequestState = iota
	RequestInProgress
	RequestAccepted
	RequestRejected
)

// RejectionCategory groups the reason a request was rejected, for the
// optional "details" surfaced to the owner.
type RejectionCategory int

const (
	RejectionCategoryNone RejectionCategory = iota
	RejectionCategoryNudity
	RejectionCategoryFaceMissing
	RejectionCategoryPolicyText
	RejectionCategoryOther
)

// ModerationRequest is one item in a FIFO queue, globally monotone by
// QueueNumber within its QueueType.
type ModerationRequest struct {
	RequestID   int64
	Owner       AccountID
	QueueType   QueueType
	QueueNumber uint64
	State       RequestState

	// ModeratorID is set once the request transitions to InProgress.
	ModeratorID AccountID

	// ContentID is set for media queue types; TextSnapshot for text/name.
	ContentID    int64
	TextSnapshot string

	RejectionCategory RejectionCategory
	RejectionDetails  string

	CreatedAt time.Time
}

// Deletable reports whether the owner may delete this request themselves.
func (r ModerationRequest) Deletable() bool {
	return r.State == RequestWaiting
}

// ContentSlot is one of the 7 media slots (0..6), or unassigned.
type ContentSlot struct {
	Value uint8
	IsSet bool
}

// NoSlot is the zero-value "unassigned" ContentSlot.
var NoSlot = ContentSlot{}

// Slot returns an assigned ContentSlot.
func Slot(n uint8) ContentSlot { return ContentSlot{Value: n, IsSet: true} }

// ContentState is the lifecycle of one media content item.
type ContentState int

const (
	ContentInSlot ContentState = iota
	ContentInModeration
	ContentAccepted
	ContentRejected
)

// Content is one uploaded media item.
type Content struct {
	ContentID      int64
	Owner          AccountID
	Slot           ContentSlot
	State          ContentState
	IsSecureCapture bool
	FaceDetected   bool
	ContentType    string
	UploadedAt     time.Time
}
