// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain, request, and response types shared by the
workflow engine and the HTTP layer.

# Domain Types

One struct per persisted entity:

  - Enrollment: a participant registered in one area and level
  - Evaluator: a grader registered for an area (optionally one level)
  - ScoreRecord: one evaluator's score for one enrollment in one phase
  - Assignment: who must evaluate whom in a phase
  - AreaClosure: per (area, phase) closure state and counts
  - CompetitionClosure: competition-wide closure state, counts, deadline
  - OutcomeRecord: append-only not-classified / disqualified justification
  - MedalTierConfig: per-tier quota and score band
  - ScoreChange: an edit proposal awaiting coordinator review

Actor carries the identity collaborator's view of the caller.

# Enumerations

Every status is a named string type:

	Phase:             classification, final
	EnrollmentStatus:  pending, classified, not_classified, disqualified, medalist
	ClosureStatus:     pending, active, closed
	CompetitionStatus: active, closed_by_admin, closed_automatically
	ChangeStatus:      pending, approved, rejected, info_requested
	MedalTier:         gold, silver, bronze, honorable_mention
	Role:              admin, coordinador, evaluador

# Request Types

  - AssignRequest: phase, quota, confirm
  - SubmitScoreRequest: enrollment_id, phase, score, remark, justification
  - ReviewRequest: note
  - DisqualifyRequest: reason
  - DeadlineRequest: end_date, extended_end_date
  - PassingScoreRequest: value
*/
package models
