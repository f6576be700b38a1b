// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/olympiad/closure"
	"github.com/danielhkuo/olympiad/middleware"
	"github.com/danielhkuo/olympiad/models"
)

type ClosureHandler struct {
	closure *closure.Service
}

func NewClosureHandler(c *closure.Service) *ClosureHandler {
	return &ClosureHandler{closure: c}
}

// GetProgress handles GET /areas/{area}/phases/{phase}/progress
func (h *ClosureHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	progress, err := h.closure.Progress(r.Context(), r.PathValue("area"), models.Phase(r.PathValue("phase")))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, progress)
}

// ListAreas handles GET /phases/{phase}/areas
func (h *ClosureHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	areas, err := h.closure.Areas(r.Context(), models.Phase(r.PathValue("phase")))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if areas == nil {
		areas = []models.AreaClosure{}
	}
	middleware.JSONResponse(w, http.StatusOK, areas)
}

// CloseArea handles POST /areas/{area}/phases/{phase}/close
func (h *ClosureHandler) CloseArea(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.closure.CloseArea(r.Context(), actor, r.PathValue("area"), models.Phase(r.PathValue("phase")))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// GetCompetition handles GET /competition
func (h *ClosureHandler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	comp, err := h.closure.Competition(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, comp)
}

// CloseCompetition handles POST /competition/close
func (h *ClosureHandler) CloseCompetition(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.closure.CloseCompetition(r.Context(), actor)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// AutoClose handles POST /competition/auto-close. Any verified actor may
// trigger the check; the closure itself is attributed to the system.
func (h *ClosureHandler) AutoClose(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	result, err := h.closure.CheckAutomaticClosure(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// RevertCompetition handles POST /competition/revert
func (h *ClosureHandler) RevertCompetition(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.closure.RevertCompetition(r.Context(), actor)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// SetDeadline handles PUT /competition/deadline. A body carrying only
// extended_end_date extends the current deadline.
func (h *ClosureHandler) SetDeadline(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.DeadlineRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var (
		comp models.CompetitionClosure
		err  error
	)
	if req.EndDate == nil && req.ExtendedEndDate != nil {
		comp, err = h.closure.ExtendDeadline(r.Context(), actor, *req.ExtendedEndDate)
	} else {
		comp, err = h.closure.ConfigureDeadline(r.Context(), actor, req)
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, comp)
}
