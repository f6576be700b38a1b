// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/olympiad/balancer"
	"github.com/danielhkuo/olympiad/middleware"
	"github.com/danielhkuo/olympiad/models"
)

// requireActor returns the verified actor or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "identity required")
	}
	return actor, ok
}

type AssignmentHandler struct {
	balancer *balancer.Service
}

func NewAssignmentHandler(b *balancer.Service) *AssignmentHandler {
	return &AssignmentHandler{balancer: b}
}

// Assign handles POST /areas/{area}/assignments
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.AssignRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.balancer.Assign(r.Context(), actor, balancer.Request{
		AreaID:  r.PathValue("area"),
		Phase:   req.Phase,
		Quota:   req.Quota,
		Confirm: req.Confirm,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if result.Confirmed {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, result)
}
