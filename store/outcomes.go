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

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// UpsertNotClassified keeps one not-classified record per (enrollment, phase),
// refreshing its mean and threshold when it already exists.
func (r *sqlRepo) UpsertNotClassified(ctx context.Context, rec models.OutcomeRecord) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE outcome_record
		SET score = $1, threshold = $2, justification = $3
		WHERE enrollment_id = $4 AND phase = $5 AND kind = $6
	`, nullFloat(rec.Score), nullFloat(rec.Threshold), rec.Justification,
		rec.EnrollmentID, rec.Phase, models.OutcomeNotClassified)
	if err != nil {
		return fmt.Errorf("failed to update not-classified record: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	rec.Kind = models.OutcomeNotClassified
	return r.InsertOutcome(ctx, rec)
}

func (r *sqlRepo) DeleteNotClassified(ctx context.Context, enrollmentID string, phase models.Phase) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM outcome_record
		WHERE enrollment_id = $1 AND phase = $2 AND kind = $3
	`, enrollmentID, phase, models.OutcomeNotClassified)
	if err != nil {
		return 0, fmt.Errorf("failed to retract not-classified record: %w", err)
	}
	return rowsAffected(res)
}

func (r *sqlRepo) InsertOutcome(ctx context.Context, rec models.OutcomeRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO outcome_record (id, enrollment_id, phase, kind, score, threshold,
			justification, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.EnrollmentID, rec.Phase, rec.Kind, nullFloat(rec.Score), nullFloat(rec.Threshold),
		rec.Justification, rec.CreatedBy, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert outcome record: %w", err)
	}
	return nil
}

func (r *sqlRepo) ListOutcomes(ctx context.Context, enrollmentID string) ([]models.OutcomeRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, enrollment_id, phase, kind, score, threshold, justification, created_by, created_at
		FROM outcome_record
		WHERE enrollment_id = $1
		ORDER BY created_at, id
	`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome records: %w", err)
	}
	defer rows.Close()

	records := []models.OutcomeRecord{}
	for rows.Next() {
		var rec models.OutcomeRecord
		var score, threshold sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.EnrollmentID, &rec.Phase, &rec.Kind, &score, &threshold,
			&rec.Justification, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome record: %w", err)
		}
		if score.Valid {
			rec.Score = &score.Float64
		}
		if threshold.Valid {
			rec.Threshold = &threshold.Float64
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *sqlRepo) ListMedalConfig(ctx context.Context, areaID string) ([]models.MedalTierConfig, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT area_id, level, tier, max_count, min_score, max_score
		FROM medal_config
		WHERE area_id = $1
		ORDER BY level, tier
	`, areaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query medal config: %w", err)
	}
	defer rows.Close()

	configs := []models.MedalTierConfig{}
	for rows.Next() {
		var c models.MedalTierConfig
		if err := rows.Scan(&c.AreaID, &c.Level, &c.Tier, &c.MaxCount, &c.MinScore, &c.MaxScore); err != nil {
			return nil, fmt.Errorf("failed to scan medal config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func (r *sqlRepo) UpsertMedalTier(ctx context.Context, c models.MedalTierConfig) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO medal_config (area_id, level, tier, max_count, min_score, max_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (area_id, level, tier) DO UPDATE SET
			max_count = excluded.max_count,
			min_score = excluded.min_score,
			max_score = excluded.max_score
	`, c.AreaID, c.Level, c.Tier, c.MaxCount, c.MinScore, c.MaxScore)
	if err != nil {
		return fmt.Errorf("failed to save medal config: %w", err)
	}
	return nil
}

func (r *sqlRepo) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.q.QueryRowContext(ctx, `SELECT value FROM setting WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query setting: %w", err)
	}
	return value, true, nil
}

func (r *sqlRepo) PutSetting(ctx context.Context, key, value string, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO setting (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}
