// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# Actor Identity

Workflow routes require a signed actor:

	mux.HandleFunc("POST /scores", middleware.WithLogging(
		middleware.WithActor(cfg.IdentitySalt, h.SubmitScore)))

	actor, _ := middleware.ActorFromContext(r.Context())

Missing or tampered identity headers are rejected with 401 before the
handler runs.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, OPTIONS with Content-Type and the
X-User-* identity headers.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Workflow errors map to statuses by kind (validation 400, authorization
403, not_found 404, conflict 409, incomplete_state 422, anything else
500) and keep their explanatory data under "details":

	middleware.WriteError(w, err)

Parse JSON request bodies:

	var req models.SubmitScoreRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Logged with every request.
*/
package middleware
