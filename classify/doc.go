// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package classify turns classification-phase scores into enrollment states.

# Rule

Classify is pure: the mean of an enrollment's scores is compared with the
passing score T.

	mean >= T  → classified
	mean <  T  → not_classified
	no scores  → pending

# Side Effects

Engine.Recompute applies the rule to one stored enrollment inside the
caller's transaction:

  - disqualified enrollments are never touched
  - a medalist stays medalist while its mean is at least T
  - not_classified upserts one justification record holding the mean and T
  - any other state deletes that record

Disqualification records are append-only and are never removed by a
recompute.

RecomputeArea runs the same step over a whole area right before closure.
*/
package classify
