// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package review handles score submission and the change-approval workflow.

# Submission

	POST /scores

Only an evaluator holding an assignment for the enrollment and phase may
submit. The first write inserts the score and the first edit overwrites
it. Every later edit is stored as a pending change request with a
justification and leaves the score untouched. While a request is open
further edits are rejected with the id of the blocking request.

# Review

	POST /score-changes/{id}/approve
	POST /score-changes/{id}/reject
	POST /score-changes/{id}/request-info

Only the coordinator of the enrollment's area reviews. Approval applies
the new score unless the area phase has closed in the meantime. Rejection
resolves the request without touching the score. Asking for information
keeps the request open.

Every applied write reruns classification and refreshes the area progress
record in the same transaction.
*/
package review
