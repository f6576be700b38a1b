// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the persistence port of the workflow engine.

Workflow components never touch *sql.DB directly. They receive a Store and
do all reads and writes inside a unit of work:

	err := st.WithTx(ctx, func(repo store.Repository) error {
		e, err := repo.GetEnrollment(ctx, id)
		...
		return repo.UpdateEnrollmentStatus(ctx, id, models.EnrollmentClassified)
	})

Returning an error from the callback rolls the whole unit back, so partial
closures or migrations are never observable.

# Conditional Writes

Closure writes are guarded in SQL rather than in Go:

  - SaveAreaProgress never overwrites a closed area record
  - CloseAreaPhase only closes a record that is not closed yet
  - MarkCompetitionClosed only moves an active competition record

Each returns whether it changed a row, which lets concurrent closures detect
that another transaction won.

# Errors

Lookups of a single row return an error wrapping ErrNotFound when the row
does not exist. All other failures are wrapped with fmt.Errorf("...: %w").
*/
package store
