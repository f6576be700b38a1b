// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/olympiad/models"
)

const enrollmentColumns = `id, participant_id, participant_name, area_id, level, status, medal, created_at`

func scanEnrollment(row interface{ Scan(...any) error }) (models.Enrollment, error) {
	var e models.Enrollment
	var medal sql.NullString
	err := row.Scan(&e.ID, &e.ParticipantID, &e.ParticipantName, &e.AreaID,
		&e.Level, &e.Status, &medal, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	if medal.Valid {
		tier := models.MedalTier(medal.String)
		e.Medal = &tier
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (r *sqlRepo) CreateEnrollment(ctx context.Context, e models.Enrollment) error {
	if e.Status == "" {
		e.Status = models.EnrollmentPending
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO enrollment (id, participant_id, participant_name, area_id, level, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.ParticipantID, e.ParticipantName, e.AreaID, e.Level, e.Status, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}

func (r *sqlRepo) GetEnrollment(ctx context.Context, id string) (models.Enrollment, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+enrollmentColumns+` FROM enrollment WHERE id = $1`, id)
	e, err := scanEnrollment(row)
	if err != nil {
		return e, notFound(err, "enrollment")
	}
	return e, nil
}

// ListEnrollmentsByArea returns the area's enrollments in registration order.
func (r *sqlRepo) ListEnrollmentsByArea(ctx context.Context, areaID string) ([]models.Enrollment, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM enrollment
		WHERE area_id = $1
		ORDER BY created_at, id
	`, areaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (r *sqlRepo) ListAreaIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT DISTINCT area_id FROM enrollment ORDER BY area_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query areas: %w", err)
	}
	defer rows.Close()

	var areas []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, id)
	}
	return areas, rows.Err()
}

func (r *sqlRepo) UpdateEnrollmentStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE enrollment SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("enrollment %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sqlRepo) SetEnrollmentMedal(ctx context.Context, id string, status models.EnrollmentStatus, medal *models.MedalTier) error {
	var tier sql.NullString
	if medal != nil {
		tier = sql.NullString{String: string(*medal), Valid: true}
	}
	_, err := r.q.ExecContext(ctx, `UPDATE enrollment SET status = $1, medal = $2 WHERE id = $3`, status, tier, id)
	if err != nil {
		return fmt.Errorf("failed to update enrollment medal: %w", err)
	}
	return nil
}

func (r *sqlRepo) CreateEvaluator(ctx context.Context, ev models.Evaluator) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO evaluator (id, user_id, area_id, level, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ev.ID, ev.UserID, ev.AreaID, ev.Level, ev.Active, ev.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert evaluator: %w", err)
	}
	return nil
}

// ListEvaluators returns the area's active evaluators in registration order.
func (r *sqlRepo) ListEvaluators(ctx context.Context, areaID string) ([]models.Evaluator, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, area_id, level, active, created_at
		FROM evaluator
		WHERE area_id = $1 AND active = $2
		ORDER BY created_at, id
	`, areaID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluators: %w", err)
	}
	defer rows.Close()

	evaluators := []models.Evaluator{}
	for rows.Next() {
		var ev models.Evaluator
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.AreaID, &ev.Level, &ev.Active, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluator: %w", err)
		}
		ev.CreatedAt = ev.CreatedAt.UTC()
		evaluators = append(evaluators, ev)
	}
	return evaluators, rows.Err()
}
