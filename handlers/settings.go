// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/olympiad/middleware"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/thresholds"
)

type SettingsHandler struct {
	thresholds *thresholds.Provider
}

func NewSettingsHandler(th *thresholds.Provider) *SettingsHandler {
	return &SettingsHandler{thresholds: th}
}

// SetPassingScore handles PUT /settings/passing-score
func (h *SettingsHandler) SetPassingScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.PassingScoreRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.thresholds.SetPassingScore(r.Context(), actor, req.Value); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, req)
}

// SetMedalTier handles PUT /settings/medals
func (h *SettingsHandler) SetMedalTier(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.MedalTierConfig
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.thresholds.SetMedalTier(r.Context(), actor, req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, req)
}
