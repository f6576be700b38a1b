// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the olympiad workflow API.

# Route Registration

NewServices wires the workflow components over one store and event
emitter. NewRouter creates a configured http.ServeMux with all endpoints,
and Wrap adds panic recovery and CORS:

	svc := router.NewServices(st, settings, dispatcher)
	handler := router.Wrap(router.NewRouter(svc, cfg))

# Endpoints

Public:

	GET /health  - Liveness
	GET /metrics - Prometheus metrics

Assignments and scores (signed actor headers required):

	POST /areas/{area}/assignments           - Preview or confirm balancing
	POST /scores                             - Submit or correct a score
	POST /enrollments/{id}/disqualify        - Disqualify an enrollment
	POST /score-changes/{id}/approve         - Apply a pending change
	POST /score-changes/{id}/reject          - Discard a pending change
	POST /score-changes/{id}/request-info    - Ask the evaluator for detail

Closure:

	GET  /areas/{area}/phases/{phase}/progress - Area progress
	POST /areas/{area}/phases/{phase}/close    - Close an area phase
	GET  /phases/{phase}/areas                 - Progress of every area
	GET  /competition                          - Competition closure record
	POST /competition/close                    - Close and migrate
	POST /competition/auto-close               - Deadline check
	POST /competition/revert                   - Undo within the window
	PUT  /competition/deadline                 - Set or extend the deadline

Medals and settings:

	POST /areas/{area}/medals   - Allocate medals
	PUT  /settings/passing-score
	PUT  /settings/medals
*/
package router
