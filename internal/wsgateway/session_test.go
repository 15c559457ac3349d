// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package wsgateway

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/auth"
	"github.com/nearline-social/nearline/internal/config"
	"github.com/nearline-social/nearline/internal/eventbus"
	"github.com/nearline-social/nearline/internal/locationindex"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
	"github.com/nearline-social/nearline/internal/wsync"
)

func newTestDeps(t *testing.T) (Deps, models.AccountID, string) {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:", ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pipeline := writepipeline.New(store, accountcache.New(time.Minute), locationindex.NewManager(50, 50), 0)

	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "test-secret-key-that-is-at-least-32-characters-long",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("auth.NewJWTManager: %v", err)
	}

	bus := eventbus.New(eventbus.Config{OutputChannelBuffer: 64}, nil)
	t.Cleanup(func() { bus.Close() })

	account := models.AccountID(1)
	if _, err := storage.CreateAccount(context.Background(), store.Current, account); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	refreshToken, err := generateRefreshToken()
	if err != nil {
		t.Fatalf("generateRefreshToken: %v", err)
	}
	if err := storage.RotateRefreshToken(context.Background(), store.Current, account, refreshToken, time.Now().Unix()); err != nil {
		t.Fatalf("RotateRefreshToken: %v", err)
	}

	return Deps{
		Store:    store,
		Pipeline: pipeline,
		JWT:      jwtManager,
		Events:   bus,
	}, account, refreshToken
}

func dialTestServer(t *testing.T, hub *Hub, deps Deps) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(Handler(hub, deps))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("Dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func TestServe_FullHandshake(t *testing.T) {
	deps, account, refreshToken := newTestDeps(t)
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunWithContext(ctx)

	conn, closeAll := dialTestServer(t, hub, deps)
	defer closeAll()

	preamble := wsync.Preamble{Proto: 1, ClientType: wsync.ClientTypeIOS, ClientVersion: [3]uint16{1, 0, 0}}.Encode()
	if err := conn.WriteMessage(websocket.BinaryMessage, preamble); err != nil {
		t.Fatalf("write preamble: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte(refreshToken)); err != nil {
		t.Fatalf("write refresh token: %v", err)
	}

	_, ackBytes, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read connect_ack: %v", err)
	}
	var ack Frame
	if err := json.Unmarshal(ackBytes, &ack); err != nil {
		t.Fatalf("unmarshal connect_ack: %v", err)
	}
	if ack.Type != FrameConnectAck {
		t.Fatalf("first frame type = %v, want %v", ack.Type, FrameConnectAck)
	}
	ackData, ok := ack.Data.(map[string]interface{})
	if !ok || ackData["refresh_token"] == refreshToken {
		t.Fatalf("connect_ack did not rotate the refresh token: %+v", ack.Data)
	}
	if ackData["access_token"] == "" || ackData["access_token"] == nil {
		t.Fatal("connect_ack missing access_token")
	}

	clientVersions, err := json.Marshal([]map[string]interface{}{})
	if err != nil {
		t.Fatalf("marshal client versions: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, clientVersions); err != nil {
		t.Fatalf("write client sync state: %v", err)
	}

	// Account has never changed, so the server has nothing to reconcile
	// and sends no account trailer; confirm the connection is still
	// alive and reachable by account after the handshake completes.
	waitFor(t, func() bool { return hub.Count() == 1 })
	if !hub.Send(account, Frame{Type: FrameDataChanged, Data: map[string]string{"kind": "profile"}}) {
		t.Fatal("expected the handshake to have registered the account with the hub")
	}
}
