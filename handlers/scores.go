// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/olympiad/classify"
	"github.com/danielhkuo/olympiad/middleware"
	"github.com/danielhkuo/olympiad/models"
	"github.com/danielhkuo/olympiad/review"
)

type ScoreHandler struct {
	review *review.Service
	engine *classify.Engine
}

func NewScoreHandler(rv *review.Service, engine *classify.Engine) *ScoreHandler {
	return &ScoreHandler{review: rv, engine: engine}
}

// SubmitScore handles POST /scores
func (h *ScoreHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.SubmitScoreRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.review.SubmitScore(r.Context(), actor, req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	status := http.StatusOK
	switch result.Outcome {
	case review.OutcomeCreated:
		status = http.StatusCreated
	case review.OutcomePendingApproval:
		status = http.StatusAccepted
	}
	middleware.JSONResponse(w, status, result)
}

// Disqualify handles POST /enrollments/{id}/disqualify
func (h *ScoreHandler) Disqualify(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.DisqualifyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	enr, err := h.engine.Disqualify(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, enr)
}

type reviewFunc func(ctx context.Context, actor models.Actor, changeID, note string) (models.ScoreChange, error)

// resolve decodes an optional note and applies a coordinator decision.
func (h *ScoreHandler) resolve(w http.ResponseWriter, r *http.Request, decide reviewFunc) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.ReviewRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	change, err := decide(r.Context(), actor, r.PathValue("id"), req.Note)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, change)
}

// Approve handles POST /score-changes/{id}/approve
func (h *ScoreHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.review.Approve)
}

// Reject handles POST /score-changes/{id}/reject
func (h *ScoreHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.review.Reject)
}

// RequestInfo handles POST /score-changes/{id}/request-info
func (h *ScoreHandler) RequestInfo(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.review.RequestInfo)
}
