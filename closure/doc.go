// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package closure implements the phase-closure state machine.

# Area Records

Each (area, phase) has one record moving pending → active → closed. A
closed record is frozen: it always reports 100% and is never recomputed.
For open records every figure comes from live enrollments and scores.

	GET  /areas/{area}/phases/{phase}/progress
	POST /areas/{area}/phases/{phase}/close

CloseArea requires every enrollment of the population to be scored. For
the classification phase it reruns the classification engine over the
area before writing the closed record and finalizing scores.

# Competition Record

The classification competition record moves active → closed_by_admin or
closed_automatically and back to active on reversal.

	POST /competition/close
	POST /competition/auto-close
	POST /competition/revert
	PUT  /competition/deadline

Closing migrates every classified enrollment into a final-phase assignment
tagged with the closure run id. Reversal deletes every final-phase
assignment, including ones the balancer put in place of the migrated rows,
and is only possible inside the reversal window and before any final score
exists.

An area whose enrollments are all disqualified closes with no one left to
evaluate; only an area without any enrollment is rejected.

Closure writes are conditional, so a concurrent second attempt sees the
closed state and reports AlreadyClosed instead of failing. The competition
record is marked closed before migration writes any assignment. Reads never
create the record.
*/
package closure
