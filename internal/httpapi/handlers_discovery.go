// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package httpapi

import (
	"net/http"

	"github.com/nearline-social/nearline/internal/models"
	"github.com/nearline-social/nearline/internal/storage"
	"github.com/nearline-social/nearline/internal/writepipeline"
)

// ResetIterator starts a fresh discovery session anchored at the
// requested viewport, returning the session id the client must echo on
// every NextProfiles call.
func (h *Handler) ResetIterator(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req IteratorResetRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	area := models.Area{
		TopLeft:     models.LocationKey{X: req.MinX, Y: req.MinY},
		BottomRight: models.LocationKey{X: req.MaxX, Y: req.MaxY},
	}
	start := models.LocationKey{X: req.StartX, Y: req.StartY}

	sessionID, err := writepipeline.ResetIterator(r.Context(), h.pipeline, hc.Account(), area, start)
	if err != nil {
		rw.AppError("httpapi.ResetIterator", err)
		return
	}
	rw.Success(map[string]string{"session_id": sessionID})
}

// NextProfiles pages through the caller's discovery session, excluding
// candidates outside its search age range or in a block relationship
// with the caller.
func (h *Handler) NextProfiles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		rw.BadRequest("session_id is required")
		return
	}

	profile, err := storage.GetProfile(r.Context(), h.store.Current, hc.Account())
	if err != nil {
		rw.AppError("httpapi.NextProfiles", err)
		return
	}
	ageRange := profile.SearchAgeRange

	filter := func(link models.ProfileLink) bool {
		if ageRange.Valid() && (link.Age < ageRange.Min || link.Age > ageRange.Max) {
			return false
		}
		interaction, err := storage.GetInteraction(r.Context(), h.store.Current, hc.Account(), link.AccountID)
		if err != nil {
			return false
		}
		return interaction.State.Kind != models.InteractionBlock
	}

	links, err := writepipeline.NextProfiles(r.Context(), h.pipeline, hc.Account(), sessionID, filter)
	if err != nil {
		rw.AppError("httpapi.NextProfiles", err)
		return
	}
	rw.Success(links)
}
