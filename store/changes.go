// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/olympiad/models"
)

const changeColumns = `id, score_id, enrollment_id, area_id, phase, old_score, new_score, new_remark,
	justification, status, requested_by, reviewed_by, review_note, created_at, resolved_at`

func scanChange(row interface{ Scan(...any) error }) (models.ScoreChange, error) {
	var c models.ScoreChange
	var reviewedBy, note sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(&c.ID, &c.ScoreID, &c.EnrollmentID, &c.AreaID, &c.Phase, &c.OldScore, &c.NewScore,
		&c.NewRemark, &c.Justification, &c.Status, &c.RequestedBy, &reviewedBy, &note,
		&c.CreatedAt, &resolvedAt)
	c.ReviewedBy = stringPtr(reviewedBy)
	c.ReviewNote = stringPtr(note)
	c.ResolvedAt = timePtr(resolvedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

func (r *sqlRepo) InsertScoreChange(ctx context.Context, c models.ScoreChange) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO score_change (id, score_id, enrollment_id, area_id, phase, old_score, new_score,
			new_remark, justification, status, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.ScoreID, c.EnrollmentID, c.AreaID, c.Phase, c.OldScore, c.NewScore,
		c.NewRemark, c.Justification, c.Status, c.RequestedBy, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert score change: %w", err)
	}
	return nil
}

func (r *sqlRepo) GetScoreChange(ctx context.Context, id string) (models.ScoreChange, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+changeColumns+` FROM score_change WHERE id = $1`, id)
	c, err := scanChange(row)
	if err != nil {
		return c, notFound(err, "score change")
	}
	return c, nil
}

// FindOpenScoreChange returns the unresolved change blocking edits of scoreID.
func (r *sqlRepo) FindOpenScoreChange(ctx context.Context, scoreID string) (models.ScoreChange, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+changeColumns+`
		FROM score_change
		WHERE score_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`, scoreID, models.ChangePending, models.ChangeInfoRequested)
	c, err := scanChange(row)
	if err != nil {
		return c, notFound(err, "open score change")
	}
	return c, nil
}

func (r *sqlRepo) ResolveScoreChange(ctx context.Context, id string, status models.ChangeStatus, reviewer, note string, at *time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE score_change
		SET status = $1, reviewed_by = $2, review_note = $3, resolved_at = $4
		WHERE id = $5
	`, status, reviewer, note, nullTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to update score change: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("score change %s: %w", id, ErrNotFound)
	}
	return nil
}
