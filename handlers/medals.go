// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/olympiad/medals"
	"github.com/danielhkuo/olympiad/middleware"
)

type MedalHandler struct {
	medals *medals.Service
}

func NewMedalHandler(m *medals.Service) *MedalHandler {
	return &MedalHandler{medals: m}
}

// Allocate handles POST /areas/{area}/medals
func (h *MedalHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.medals.Allocate(r.Context(), actor, r.PathValue("area"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}
