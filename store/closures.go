// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/olympiad/models"
)

const areaClosureColumns = `area_id, phase, status, percentage, total, evaluated,
	classified_count, not_classified_count, disqualified_count, closed_at, closed_by, updated_at`

func scanAreaClosure(row interface{ Scan(...any) error }) (models.AreaClosure, error) {
	var c models.AreaClosure
	var closedAt sql.NullTime
	var closedBy sql.NullString
	err := row.Scan(&c.AreaID, &c.Phase, &c.Status, &c.Percentage, &c.Total, &c.Evaluated,
		&c.ClassifiedCount, &c.NotClassifiedCount, &c.DisqualifiedCount, &closedAt, &closedBy, &c.UpdatedAt)
	c.ClosedAt = timePtr(closedAt)
	c.ClosedBy = stringPtr(closedBy)
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, err
}

func (r *sqlRepo) GetAreaClosure(ctx context.Context, areaID string, phase models.Phase) (models.AreaClosure, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+areaClosureColumns+`
		FROM area_phase_closure
		WHERE area_id = $1 AND phase = $2
	`, areaID, phase)
	c, err := scanAreaClosure(row)
	if err != nil {
		return c, notFound(err, "area closure")
	}
	return c, nil
}

func (r *sqlRepo) ListAreaClosures(ctx context.Context, phase models.Phase) ([]models.AreaClosure, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+areaClosureColumns+`
		FROM area_phase_closure
		WHERE phase = $1
		ORDER BY area_id
	`, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to query area closures: %w", err)
	}
	defer rows.Close()

	closures := []models.AreaClosure{}
	for rows.Next() {
		c, err := scanAreaClosure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan area closure: %w", err)
		}
		closures = append(closures, c)
	}
	return closures, rows.Err()
}

// SaveAreaProgress upserts live progress. A closed record is never touched;
// the returned flag is false in that case.
func (r *sqlRepo) SaveAreaProgress(ctx context.Context, c models.AreaClosure) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO area_phase_closure (area_id, phase, status, percentage, total, evaluated,
			classified_count, not_classified_count, disqualified_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (area_id, phase) DO UPDATE SET
			status = excluded.status,
			percentage = excluded.percentage,
			total = excluded.total,
			evaluated = excluded.evaluated,
			classified_count = excluded.classified_count,
			not_classified_count = excluded.not_classified_count,
			disqualified_count = excluded.disqualified_count,
			updated_at = excluded.updated_at
		WHERE area_phase_closure.status <> $11
	`, c.AreaID, c.Phase, c.Status, c.Percentage, c.Total, c.Evaluated,
		c.ClassifiedCount, c.NotClassifiedCount, c.DisqualifiedCount, c.UpdatedAt.UTC(),
		models.ClosureClosed)
	if err != nil {
		return false, fmt.Errorf("failed to save area progress: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// CloseAreaPhase writes the closed record unless another transaction already
// closed it. The returned flag reports whether this call performed the close.
func (r *sqlRepo) CloseAreaPhase(ctx context.Context, c models.AreaClosure) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO area_phase_closure (area_id, phase, status, percentage, total, evaluated,
			classified_count, not_classified_count, disqualified_count, closed_at, closed_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (area_id, phase) DO UPDATE SET
			status = excluded.status,
			percentage = excluded.percentage,
			total = excluded.total,
			evaluated = excluded.evaluated,
			classified_count = excluded.classified_count,
			not_classified_count = excluded.not_classified_count,
			disqualified_count = excluded.disqualified_count,
			closed_at = excluded.closed_at,
			closed_by = excluded.closed_by,
			updated_at = excluded.updated_at
		WHERE area_phase_closure.status <> $3
	`, c.AreaID, c.Phase, models.ClosureClosed, 100.0, c.Total, c.Evaluated,
		c.ClassifiedCount, c.NotClassifiedCount, c.DisqualifiedCount,
		nullTime(c.ClosedAt), nullString(c.ClosedBy), c.UpdatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to close area phase: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

const competitionColumns = `phase, status, run_id, total_enrollments, classified_count,
	not_classified_count, disqualified_count, excluded_count, migrated_count,
	end_date, extended_end_date, closed_at, closed_by, updated_at`

func (r *sqlRepo) GetCompetitionClosure(ctx context.Context, phase models.Phase) (models.CompetitionClosure, error) {
	var c models.CompetitionClosure
	var runID, closedBy sql.NullString
	var endDate, extended, closedAt sql.NullTime
	err := r.q.QueryRowContext(ctx, `
		SELECT `+competitionColumns+`
		FROM competition_closure
		WHERE phase = $1
	`, phase).Scan(&c.Phase, &c.Status, &runID, &c.TotalEnrollments, &c.ClassifiedCount,
		&c.NotClassifiedCount, &c.DisqualifiedCount, &c.ExcludedCount, &c.MigratedCount,
		&endDate, &extended, &closedAt, &closedBy, &c.UpdatedAt)
	if err != nil {
		return c, notFound(err, "competition closure")
	}
	c.RunID = stringPtr(runID)
	c.ClosedBy = stringPtr(closedBy)
	c.EndDate = timePtr(endDate)
	c.ExtendedEndDate = timePtr(extended)
	c.ClosedAt = timePtr(closedAt)
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// CreateCompetitionClosure inserts the record unless one already exists for
// the phase. It returns false when another writer got there first.
func (r *sqlRepo) CreateCompetitionClosure(ctx context.Context, c models.CompetitionClosure) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO competition_closure (`+competitionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (phase) DO NOTHING
	`, c.Phase, c.Status, nullString(c.RunID), c.TotalEnrollments, c.ClassifiedCount,
		c.NotClassifiedCount, c.DisqualifiedCount, c.ExcludedCount, c.MigratedCount,
		nullTime(c.EndDate), nullTime(c.ExtendedEndDate), nullTime(c.ClosedAt),
		nullString(c.ClosedBy), c.UpdatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to create competition closure: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

// SaveCompetitionClosure upserts the whole record unconditionally.
func (r *sqlRepo) SaveCompetitionClosure(ctx context.Context, c models.CompetitionClosure) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO competition_closure (`+competitionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (phase) DO UPDATE SET
			status = excluded.status,
			run_id = excluded.run_id,
			total_enrollments = excluded.total_enrollments,
			classified_count = excluded.classified_count,
			not_classified_count = excluded.not_classified_count,
			disqualified_count = excluded.disqualified_count,
			excluded_count = excluded.excluded_count,
			migrated_count = excluded.migrated_count,
			end_date = excluded.end_date,
			extended_end_date = excluded.extended_end_date,
			closed_at = excluded.closed_at,
			closed_by = excluded.closed_by,
			updated_at = excluded.updated_at
	`, c.Phase, c.Status, nullString(c.RunID), c.TotalEnrollments, c.ClassifiedCount,
		c.NotClassifiedCount, c.DisqualifiedCount, c.ExcludedCount, c.MigratedCount,
		nullTime(c.EndDate), nullTime(c.ExtendedEndDate), nullTime(c.ClosedAt),
		nullString(c.ClosedBy), c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save competition closure: %w", err)
	}
	return nil
}

// MarkCompetitionClosed moves an active record to c.Status. It returns false
// when the record was no longer active.
func (r *sqlRepo) MarkCompetitionClosed(ctx context.Context, c models.CompetitionClosure) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE competition_closure
		SET status = $1, run_id = $2, total_enrollments = $3, classified_count = $4,
			not_classified_count = $5, disqualified_count = $6, excluded_count = $7,
			migrated_count = $8, closed_at = $9, closed_by = $10, updated_at = $11
		WHERE phase = $12 AND status = $13
	`, c.Status, nullString(c.RunID), c.TotalEnrollments, c.ClassifiedCount,
		c.NotClassifiedCount, c.DisqualifiedCount, c.ExcludedCount,
		c.MigratedCount, nullTime(c.ClosedAt), nullString(c.ClosedBy), c.UpdatedAt.UTC(),
		c.Phase, models.CompetitionActive)
	if err != nil {
		return false, fmt.Errorf("failed to close competition: %w", err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}
