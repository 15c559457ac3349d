// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package wsgateway

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/apperr"
	"github.com/nearline-social/nearline/internal/auth"
	"github.com/nearline-social/nearline/internal/eventbus"
	"github.com/nearline-social/nearline/internal/logging"
	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/pushtoken"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
	"github.com/nearline-social/nearline/internal/wsync"
)

// state names the stage of the connect handshake a session is in. The
// progression is strictly forward: a session that fails a stage is
// closed rather than allowed to retry it.
type state int

const (
	stateAwaitVersion state = iota
	stateAwaitRefreshToken
	stateSyncing
	stateIdle
	stateClosing
)

// refreshTokenLength matches the pending-notification token's 256-bit
// size; both are bearer credentials a client presents on reconnect and
// there is no reason for them to differ.
const refreshTokenLength = models.PendingNotificationTokenLength

func generateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("wsgateway: generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Deps bundles the collaborators a connection needs to authenticate,
// reconcile sync state and subscribe to live events. All fields are
// shared across every connection the gateway serves.
type Deps struct {
	Store    *storage.Store
	Pipeline *writepipeline.Pipeline
	JWT      *auth.JWTManager
	Events   *eventbus.Bus
	Pushes   *pushtoken.TokenStore
}

// allKinds lists every eventbus.Kind an Idle connection subscribes to
// on behalf of its account, in addition to the sync-version-bearing
// kinds already covered by allDataTypes.
var allKinds = []eventbus.Kind{
	eventbus.KindAccount,
	eventbus.KindProfile,
	eventbus.KindNews,
	eventbus.KindContent,
	eventbus.KindSentLikes,
	eventbus.KindReceivedLikes,
	eventbus.KindMatches,
	eventbus.KindSentBlocks,
	eventbus.KindReceivedBlocks,
	eventbus.KindMessage,
	eventbus.KindModeration,
}

// Serve runs one connection through AwaitVersion, AwaitRefreshToken,
// Syncing and Idle, blocking until the socket closes or ctx is
// canceled. It registers the client with hub only once the handshake
// succeeds, so a connection that never authenticates never occupies a
// hub slot.
func Serve(ctx context.Context, hub *Hub, conn *websocket.Conn, deps Deps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st := stateAwaitVersion

	_, preambleBytes, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("wsgateway: read preamble: %w", err)
	}
	preamble, err := wsync.ParsePreamble(preambleBytes)
	if err != nil {
		_ = writeError(conn, err)
		return err
	}
	st = stateAwaitRefreshToken
	logging.Debug().Uint8("proto", preamble.Proto).Int("client_type", int(preamble.ClientType)).Msg("wsgateway: preamble received")

	_, tokenBytes, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("wsgateway: read refresh token: %w", err)
	}
	account, err := storage.FindAccountByRefreshToken(ctx, deps.Store.Current, string(tokenBytes))
	if err != nil {
		_ = writeError(conn, err)
		return err
	}

	acc, err := storage.GetAccount(ctx, deps.Store.Current, account)
	if err != nil {
		_ = writeError(conn, err)
		return err
	}

	newRefreshToken, err := generateRefreshToken()
	if err != nil {
		_ = writeError(conn, err)
		return err
	}
	_, err = writepipeline.Write(ctx, deps.Pipeline, func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (struct{}, error) {
		return struct{}{}, storage.RotateRefreshToken(ctx, store.Current, account, newRefreshToken, time.Now().UTC().Unix())
	})
	if err != nil {
		_ = writeError(conn, err)
		return err
	}
	accessToken, err := deps.JWT.GenerateToken(account, acc.Permissions)
	if err != nil {
		_ = writeError(conn, err)
		return err
	}

	if err := writeFrame(conn, Frame{Type: FrameConnectAck, Data: map[string]string{
		"refresh_token": newRefreshToken,
		"access_token":  accessToken,
	}}); err != nil {
		return err
	}
	st = stateSyncing

	_, syncBytes, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("wsgateway: read client sync state: %w", err)
	}
	var clientVersions []wsync.ClientVersion
	if err := json.Unmarshal(syncBytes, &clientVersions); err != nil {
		err = apperr.New(apperr.KindUnauthorized, "wsgateway.Serve", fmt.Errorf("malformed client sync state: %w", err))
		_ = writeError(conn, err)
		return err
	}

	if err := sendReconciliation(conn, acc, wsync.Reconcile(acc.Sync, clientVersions)); err != nil {
		return err
	}

	st = stateIdle
	if err := pushtoken.ResetPending(ctx, deps.Pipeline, account); err != nil && !errors.Is(err, context.Canceled) {
		// A live connection just delivered the current state directly;
		// failure to clear the push flags only means a redundant push
		// might fire later, not a reason to drop the connection.
		logging.Warn().Err(err).Msg("wsgateway: failed to reset pending notification flags")
	}

	client := NewClient(hub, conn, account, cancel)
	hub.Register <- client
	client.Start()

	forwardEvents(ctx, deps.Events, account, client)

	st = stateClosing
	logging.Debug().Int("state", int(st)).Uint64("client_id", client.ID()).Msg("wsgateway: connection closing")
	return nil
}

// forwardEvents subscribes to every kind on account's behalf and
// copies each event onto the client's send channel until ctx is
// canceled (socket closed) or a subscription errors.
func forwardEvents(ctx context.Context, bus *eventbus.Bus, account models.AccountID, client *Client) {
	channels := make([]<-chan eventbus.Event, 0, len(allKinds))
	for _, kind := range allKinds {
		ch, err := bus.Subscribe(ctx, kind, account)
		if err != nil {
			logging.Error().Err(err).Str("kind", string(kind)).Msg("wsgateway: subscribe failed")
			continue
		}
		channels = append(channels, ch)
	}

	done := ctx.Done()
	remaining := len(channels)
	if remaining == 0 {
		<-done
		return
	}

	merged := make(chan eventbus.Event)
	for _, ch := range channels {
		go func(ch <-chan eventbus.Event) {
			for ev := range ch {
				select {
				case merged <- ev:
				case <-done:
					return
				}
			}
		}(ch)
	}

	for {
		select {
		case <-done:
			return
		case ev := <-merged:
			deliverEvent(client, ev)
		}
	}
}

// deliverEvent translates a bus event into the frame type a client
// understands. KindMessage and KindModeration carry their own payload
// shape; every sync-version-bearing kind is reported generically,
// leaving the client to re-fetch current state over the HTTP API.
func deliverEvent(client *Client, ev eventbus.Event) {
	var frame Frame
	switch ev.Kind {
	case eventbus.KindMessage:
		frame = Frame{Type: FrameMessage, Data: json.RawMessage(ev.Payload)}
	case eventbus.KindModeration:
		frame = Frame{Type: FrameModeration, Data: json.RawMessage(ev.Payload)}
	default:
		frame = Frame{Type: FrameDataChanged, Data: map[string]string{"kind": string(ev.Kind)}}
	}
	select {
	case client.send <- frame:
	default:
	}
}

// sendReconciliation writes the events a Syncing connection owes its
// client for steps, ending with the account sync-version trailer last
// whenever any step fired — mirroring the ordering rule the sync
// protocol was built around: the trailer tells a client it has now
// received everything else in this pass.
func sendReconciliation(conn *websocket.Conn, acc *models.Account, steps []wsync.Step) error {
	var accountStep *wsync.Step
	for i := range steps {
		s := steps[i]
		if s.Type == wsync.DataTypeAccount {
			accountStep = &steps[i]
			continue
		}
		if err := writeFrame(conn, Frame{Type: FrameDataChanged, Data: map[string]interface{}{
			"kind":    s.Type.String(),
			"version": s.NewVersion,
		}}); err != nil {
			return err
		}
	}

	if accountStep == nil {
		return nil
	}

	if err := writeFrame(conn, Frame{Type: FrameAccountState, Data: map[string]interface{}{"state": acc.State}}); err != nil {
		return err
	}
	if err := writeFrame(conn, Frame{Type: FramePermissions, Data: map[string]interface{}{"permissions": acc.Permissions}}); err != nil {
		return err
	}
	if err := writeFrame(conn, Frame{Type: FrameVisibility, Data: map[string]interface{}{"visibility": acc.Visibility}}); err != nil {
		return err
	}
	return writeFrame(conn, Frame{Type: FrameAccountSync, Data: map[string]interface{}{"version": accountStep.NewVersion}})
}

func writeFrame(conn *websocket.Conn, frame Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("wsgateway: marshal frame: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func writeError(conn *websocket.Conn, err error) error {
	return writeFrame(conn, Frame{Type: FrameError, Data: map[string]string{"error": err.Error()}})
}
