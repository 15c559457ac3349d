// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockDrainer is a test double for Drainer.
type mockDrainer struct {
	calls      atomic.Int32
	queue      int32
	err        error
	errAfterN  int32
	processDur time.Duration
}

func (m *mockDrainer) ProcessNext(ctx context.Context) (bool, error) {
	n := m.calls.Add(1)
	if m.err != nil && (m.errAfterN == 0 || n > m.errAfterN) {
		return false, m.err
	}
	if m.processDur > 0 {
		time.Sleep(m.processDur)
	}
	if m.queue <= 0 {
		return false, nil
	}
	m.queue--
	return true, nil
}

func TestModerationWorkerService_Interface(t *testing.T) {
	var _ suture.Service = (*ModerationWorkerService)(nil)
}

func TestModerationWorkerService_DrainsQueue(t *testing.T) {
	worker := &mockDrainer{queue: 5}
	svc := NewModerationWorkerService("content-moderation", worker, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if worker.queue != 0 {
		t.Errorf("expected queue drained, %d items left", worker.queue)
	}
	// 5 successful claims plus one empty check before idling.
	if worker.calls.Load() < 6 {
		t.Errorf("expected at least 6 ProcessNext calls, got %d", worker.calls.Load())
	}
}

func TestModerationWorkerService_PropagatesErrors(t *testing.T) {
	expectedErr := errors.New("checkout failed")
	worker := &mockDrainer{err: expectedErr}
	svc := NewModerationWorkerService("content-moderation", worker, time.Second)

	err := svc.Serve(context.Background())
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected %v, got %v", expectedErr, err)
	}
}

func TestModerationWorkerService_String(t *testing.T) {
	svc := NewModerationWorkerService("profile-text-moderation", &mockDrainer{}, time.Second)
	if svc.String() != "profile-text-moderation" {
		t.Errorf("expected 'profile-text-moderation', got %q", svc.String())
	}
}

func TestModerationWorkerService_DefaultsIdleInterval(t *testing.T) {
	svc := NewModerationWorkerService("x", &mockDrainer{}, 0)
	if svc.idleInterval != time.Second {
		t.Errorf("expected default idle interval 1s, got %v", svc.idleInterval)
	}
}
