// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/olympiad/models"
)

const scoreColumns = `s.id, s.enrollment_id, s.evaluator_id, s.phase, s.score, s.remark,
	s.finalized, s.modification_count, s.created_at, s.updated_at`

func scanScore(row interface{ Scan(...any) error }) (models.ScoreRecord, error) {
	var s models.ScoreRecord
	err := row.Scan(&s.ID, &s.EnrollmentID, &s.EvaluatorID, &s.Phase, &s.Score, &s.Remark,
		&s.Finalized, &s.ModificationCount, &s.CreatedAt, &s.UpdatedAt)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, err
}

func (r *sqlRepo) InsertScore(ctx context.Context, s models.ScoreRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO score_record (id, enrollment_id, evaluator_id, phase, score, remark,
			finalized, modification_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.EnrollmentID, s.EvaluatorID, s.Phase, s.Score, s.Remark,
		s.Finalized, s.ModificationCount, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

func (r *sqlRepo) UpdateScore(ctx context.Context, id string, score float64, remark string, modifications int, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE score_record
		SET score = $1, remark = $2, modification_count = $3, updated_at = $4
		WHERE id = $5
	`, score, remark, modifications, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("score %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sqlRepo) GetScore(ctx context.Context, enrollmentID, evaluatorID string, phase models.Phase) (models.ScoreRecord, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+scoreColumns+`
		FROM score_record s
		WHERE s.enrollment_id = $1 AND s.evaluator_id = $2 AND s.phase = $3
	`, enrollmentID, evaluatorID, phase)
	s, err := scanScore(row)
	if err != nil {
		return s, notFound(err, "score")
	}
	return s, nil
}

func (r *sqlRepo) GetScoreByID(ctx context.Context, id string) (models.ScoreRecord, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+scoreColumns+` FROM score_record s WHERE s.id = $1`, id)
	s, err := scanScore(row)
	if err != nil {
		return s, notFound(err, "score")
	}
	return s, nil
}

func (r *sqlRepo) ListScores(ctx context.Context, enrollmentID string, phase models.Phase) ([]models.ScoreRecord, error) {
	return r.listScores(ctx, `
		SELECT `+scoreColumns+`
		FROM score_record s
		WHERE s.enrollment_id = $1 AND s.phase = $2
		ORDER BY s.created_at, s.id
	`, enrollmentID, phase)
}

func (r *sqlRepo) ListAreaScores(ctx context.Context, areaID string, phase models.Phase) ([]models.ScoreRecord, error) {
	return r.listScores(ctx, `
		SELECT `+scoreColumns+`
		FROM score_record s
		JOIN enrollment e ON e.id = s.enrollment_id
		WHERE e.area_id = $1 AND s.phase = $2
		ORDER BY s.created_at, s.id
	`, areaID, phase)
}

func (r *sqlRepo) listScores(ctx context.Context, query string, args ...any) ([]models.ScoreRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	scores := []models.ScoreRecord{}
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *sqlRepo) CountPhaseScores(ctx context.Context, phase models.Phase) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM score_record WHERE phase = $1`, phase).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}
	return n, nil
}

func (r *sqlRepo) FinalizeScores(ctx context.Context, areaID string, phase models.Phase) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE score_record
		SET finalized = $1
		WHERE phase = $2 AND enrollment_id IN (SELECT id FROM enrollment WHERE area_id = $3)
	`, true, phase, areaID)
	if err != nil {
		return 0, fmt.Errorf("failed to finalize scores: %w", err)
	}
	return rowsAffected(res)
}
