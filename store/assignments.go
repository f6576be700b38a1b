// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/olympiad/models"
)

func (r *sqlRepo) InsertAssignment(ctx context.Context, a models.Assignment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO assignment (id, enrollment_id, evaluator_id, area_id, phase, run_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.EnrollmentID, a.EvaluatorID, a.AreaID, a.Phase, nullString(a.RunID), a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// ListAssignments returns the (area, phase) assignments in creation order.
func (r *sqlRepo) ListAssignments(ctx context.Context, areaID string, phase models.Phase) ([]models.Assignment, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, enrollment_id, evaluator_id, area_id, phase, run_id, created_at
		FROM assignment
		WHERE area_id = $1 AND phase = $2
		ORDER BY created_at, id
	`, areaID, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		var a models.Assignment
		var runID sql.NullString
		if err := rows.Scan(&a.ID, &a.EnrollmentID, &a.EvaluatorID, &a.AreaID, &a.Phase, &runID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.RunID = stringPtr(runID)
		a.CreatedAt = a.CreatedAt.UTC()
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *sqlRepo) HasAssignment(ctx context.Context, enrollmentID, evaluatorID string, phase models.Phase) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM assignment
		WHERE enrollment_id = $1 AND evaluator_id = $2 AND phase = $3
	`, enrollmentID, evaluatorID, phase).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query assignment: %w", err)
	}
	return n > 0, nil
}

// DeleteUnscoredAssignments removes the (area, phase) assignments that have not
// been consumed by a score record yet.
func (r *sqlRepo) DeleteUnscoredAssignments(ctx context.Context, areaID string, phase models.Phase) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM assignment
		WHERE area_id = $1 AND phase = $2
		  AND NOT EXISTS (
			SELECT 1 FROM score_record s
			WHERE s.enrollment_id = assignment.enrollment_id
			  AND s.evaluator_id = assignment.evaluator_id
			  AND s.phase = assignment.phase
		  )
	`, areaID, phase)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assignments: %w", err)
	}
	return rowsAffected(res)
}

func (r *sqlRepo) CountAssignments(ctx context.Context, phase models.Phase) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignment WHERE phase = $1`, phase).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return n, nil
}
