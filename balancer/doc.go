// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package balancer spreads an area's enrollments over its evaluators.

Balance is pure. Enrollments are grouped into cohorts by level and each
cohort of size n is striped, in registration order, over ceil(n/Q)
evaluators. When fewer evaluators cover the level the last one chosen
takes the remainder.

Service.Assign loads the eligible sets inside a transaction:

  - enrollments without a score in the phase (final: classified only)
  - active evaluators without scored work in the area and phase

A preview returns the plan without writing. A confirmed run replaces every
unscored assignment of the area and phase with the new plan.
*/
package balancer
