// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the olympiad workflow API.

# Handler Types

Each handler is a struct wrapping one workflow service:

  - AssignmentHandler: evaluator assignment balancing
  - ScoreHandler: score submission, disqualification and change review
  - ClosureHandler: area and competition closure, deadlines, reversal
  - MedalHandler: medal allocation
  - SettingsHandler: passing score and medal tier configuration

Handlers are created via constructor functions:

	closureHandler := handlers.NewClosureHandler(closureService)

Every handler expects the verified actor in the request context, placed
there by middleware.WithActor. Authorization itself lives in the services.

# Responses

Workflow errors are written with middleware.WriteError, so the status
follows the error kind and explanatory data (missing counts, open areas,
the pending change id) is returned under "details".

	POST /scores                    201 created, 200 updated, 202 pending approval
	POST /areas/{area}/assignments  200 preview, 201 confirmed

Closing an already closed area or competition answers 200 with
"already_closed": true.
*/
package handlers
