// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/locationindex"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

func newTestPipeline(t *testing.T) *writepipeline.Pipeline {
	t.Helper()
	s, err := storage.Open(context.Background(), ":memory:", ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return writepipeline.New(s, accountcache.New(time.Minute), locationindex.NewManager(50, 50), 0)
}

func seedAccount(t *testing.T, p *writepipeline.Pipeline, id models.AccountID, vis models.Visibility) {
	t.Helper()
	ctx := context.Background()
	if _, err := storage.CreateAccount(ctx, p.Store.Current, id); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if err := storage.SetAccountState(ctx, p.Store, id, models.AccountStateNormal); err != nil {
		t.Fatalf("SetAccountState: %v", err)
	}
	if err := storage.SetVisibility(ctx, p.Store.Current, id, vis); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}
	profile := &models.Profile{AccountID: id, Name: "Alex", Age: 25,
		Attributes: map[models.AttributeID]models.AttributeValue{}, Filters: map[models.AttributeID]models.AttributeFilter{}}
	if err := storage.UpsertProfile(ctx, p.Store.Current, profile); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
}

type stubEvents struct {
	completed []models.QueueType
	visible   []models.Visibility
}

func (s *stubEvents) PublishModerationCompleted(_ context.Context, _ models.AccountID, queue models.QueueType, _ bool) error {
	s.completed = append(s.completed, queue)
	return nil
}

func (s *stubEvents) PublishVisibilityChanged(_ context.Context, _ models.AccountID, vis models.Visibility) error {
	s.visible = append(s.visible, vis)
	return nil
}
