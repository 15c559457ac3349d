// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package wsgateway

import (
	"context"
	"testing"
	"time"

	"github.com/nearline-social/nearline/internal/models"
)

func testClient(hub *Hub, account models.AccountID) *Client {
	return &Client{hub: hub, account: account, send: make(chan Frame, 8), cancel: func() {}}
}

func TestHub_AddRemove(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunWithContext(ctx)

	c := testClient(hub, 1)
	hub.Register <- c
	waitFor(t, func() bool { return hub.Count() == 1 })

	hub.Unregister <- c
	waitFor(t, func() bool { return hub.Count() == 0 })
}

func TestHub_SecondConnectionReplacesFirst(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunWithContext(ctx)

	first := testClient(hub, 1)
	hub.Register <- first
	waitFor(t, func() bool { return hub.Count() == 1 })

	second := testClient(hub, 1)
	hub.Register <- second
	waitFor(t, func() bool { return hub.Count() == 1 })

	select {
	case _, ok := <-first.send:
		if ok {
			t.Fatal("expected first client's send channel to be closed, got a frame instead")
		}
	case <-time.After(time.Second):
		t.Fatal("first client's send channel was never closed")
	}
}

func TestHub_Send(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunWithContext(ctx)

	c := testClient(hub, 1)
	hub.Register <- c
	waitFor(t, func() bool { return hub.Count() == 1 })

	if !hub.Send(1, Frame{Type: FrameDataChanged}) {
		t.Fatal("Send() to a connected account returned false")
	}
	if hub.Send(2, Frame{Type: FrameDataChanged}) {
		t.Fatal("Send() to an unconnected account returned true")
	}

	select {
	case frame := <-c.send:
		if frame.Type != FrameDataChanged {
			t.Errorf("delivered frame type = %v, want %v", frame.Type, FrameDataChanged)
		}
	default:
		t.Fatal("expected a frame queued on the client's send channel")
	}
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()

	c := testClient(hub, 1)
	hub.Register <- c
	waitFor(t, func() bool { return hub.Count() == 1 })

	cancel()
	waitFor(t, func() bool {
		select {
		case _, ok := <-c.send:
			return !ok
		default:
			return false
		}
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
