// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/nearline-social/nearline/internal/auth"
	"github.com/nearline-social/nearline/internal/contentstore"
	"github.com/nearline-social/nearline/internal/eventbus"
	"github.com/nearline-social/nearline/internal/pushtoken"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/validation"
	"github.com/nearline-social/nearline/internal/wsgateway"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// Handler holds every collaborator the REST surface's methods close
// over. Its methods are registered onto a chi.Router by NewRouter.
type Handler struct {
	store    *storage.Store
	pipeline *writepipeline.Pipeline
	events   *eventbus.Bus
	pushes   *pushtoken.TokenStore
	jwt      *auth.JWTManager
	wsHub    *wsgateway.Hub
	mods     eventbus.ModerationPublisher
	content  *contentstore.Store
}

// NewHandler builds a Handler from deps.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		store:    deps.Store,
		pipeline: deps.Pipeline,
		events:   deps.Events,
		pushes:   deps.Pushes,
		jwt:      deps.JWT,
		wsHub:    deps.WSHub,
		mods:     eventbus.ModerationPublisher{Bus: deps.Events},
		content:  deps.Content,
	}
}

// decodeAndValidate reads r's JSON body into dst and runs struct-tag
// validation on it. On failure it has already written the response and
// the caller must return without writing anything further.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("malformed request body")
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError(verr.Error())
		return false
	}
	return true
}
