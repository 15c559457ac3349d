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

// GetProfile returns the caller's own profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	profile, err := storage.GetProfile(r.Context(), h.store.Current, hc.Account())
	if err != nil {
		rw.AppError("httpapi.GetProfile", err)
		return
	}
	rw.Success(profile)
}

// UpdateProfile replaces the caller's name, age, and bio text. Changing
// Name resets name moderation, which may move the profile out of the
// location index until it clears the profile_name queue again.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req ProfileUpdateRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	profile, err := writepipeline.UpdateProfile(r.Context(), h.pipeline, hc.Account(), req.Name, req.Age, req.Text)
	if err != nil {
		rw.AppError("httpapi.UpdateProfile", err)
		return
	}
	rw.Success(profile)
}

// SetSearchAgeRange sets the candidate age window discovery matches
// against.
func (h *Handler) SetSearchAgeRange(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req SearchAgeRangeRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	ageRange := models.AgeRange{Min: req.Min, Max: req.Max}
	if !ageRange.Valid() {
		rw.BadRequest("min must not exceed max")
		return
	}

	profile, err := writepipeline.SetSearchAgeRange(r.Context(), h.pipeline, hc.Account(), ageRange)
	if err != nil {
		rw.AppError("httpapi.SetSearchAgeRange", err)
		return
	}
	rw.Success(profile)
}

// SetLocation moves the caller to a new grid cell, relinking it in the
// location index.
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req LocationUpdateRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if err := writepipeline.SetLocation(r.Context(), h.pipeline, hc.Account(), models.LocationKey{X: req.X, Y: req.Y}); err != nil {
		rw.AppError("httpapi.SetLocation", err)
		return
	}
	rw.Success(nil)
}

// SetVisibility sets the caller's discovery visibility, adding or
// removing it from the location index as the new state requires.
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	hc, err := GetHandlerContext(r)
	if err != nil {
		RespondAuthError(rw, err)
		return
	}

	var req VisibilityUpdateRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	if err := writepipeline.SetVisibility(r.Context(), h.pipeline, hc.Account(), models.Visibility(req.Visibility)); err != nil {
		rw.AppError("httpapi.SetVisibility", err)
		return
	}
	rw.Success(nil)
}
